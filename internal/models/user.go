package models

// User is the authenticated local account as returned by the auth endpoint.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Theme    string `json:"theme"`
}

// Session is a persisted login: the user plus a locally generated session id
// so a device can be told apart in logs and local state.
type Session struct {
	ID        string
	User      User
	CreatedAt Timestamp
}
