package styles

// HighContrastTheme trades the dark palette for maximum legibility.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "0",
		Foreground: "15",
		Muted:      "7",
		Accent:     "14",
		Border:     "15",
	},
	Message: MessageColors{
		Own:     "10",
		Other:   "11",
		System:  "13",
		Deleted: "8",
		Pending: "7",
	},
	Chrome: ChromeColors{
		Header:       "12",
		Footer:       "12",
		SelectedItem: "14",
		Badge:        "9",
		Divider:      "8",
	},
}
