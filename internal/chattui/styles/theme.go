package styles

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors for message rendering.
type MessageColors struct {
	Own     string
	Other   string
	System  string
	Deleted string
	Pending string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	Badge        string
	Divider      string
}

// Theme defines the convo TUI style tokens.
type Theme struct {
	Name string

	Base    BaseColors
	Message MessageColors
	Chrome  ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}
