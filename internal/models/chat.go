package models

// Chat is one conversation as listed by the chats endpoint. LastMessage and
// LastMessageTime are denormalized for the conversation list only; the sync
// engine never reads them.
type Chat struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	IsGroup   bool   `json:"is_group"`
	CreatorID int64  `json:"creator_id"`

	// OtherUsername is set for personal chats: the handle of the counterpart
	// whose nickname/avatar the server substituted into Name/Avatar.
	OtherUsername string `json:"other_username"`

	LastMessage     string    `json:"last_message"`
	LastMessageTime Timestamp `json:"last_message_time"`
}

// Participant is a group member as listed by the groups endpoint. Owned by the
// group-membership collaborator; read-only to the sync engine.
type Participant struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	IsCreator bool   `json:"is_creator"`
}
