// Package models defines the wire and domain types shared across convo.
package models

// DeletedSentinel is the literal content the backend writes into a message row
// when it soft-deletes it. The client never stores or renders the sentinel
// directly; decoding converts it into the Deleted flag and presentation decides
// how a tombstone is shown.
const DeletedSentinel = "[deleted]"

// Message is a single chat message as served by the messages endpoint.
//
// IDs are serial per chat on the server and totally ordered; id order and
// created_at order agree for confirmed messages. Locally synthesized
// placeholders carry a millisecond-clock ID (far above any serial id the
// server can return) plus the Pending flag.
type Message struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"sender_id"`
	SenderNickname string    `json:"sender_nickname"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	PhotoURL       string    `json:"photo_url"`
	PhotoCaption   string    `json:"photo_caption"`
	VoiceURL       string    `json:"voice_url"`
	VoiceDuration  float64   `json:"voice_duration"`
	Edited         bool      `json:"is_edited"`
	Read           bool      `json:"is_read"`
	System         bool      `json:"is_system"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`

	// Deleted marks a tombstone: the row survives in the sequence but its
	// content and attachments are gone. Derived from DeletedSentinel at
	// decode time, never sent on the wire.
	Deleted bool `json:"-"`

	// Pending marks an optimistic placeholder that has not been confirmed
	// by the server yet. Local only.
	Pending bool `json:"-"`
}

// Normalize folds server-side soft-delete conventions into the Deleted flag.
func (m *Message) Normalize() {
	if m.Content == DeletedSentinel {
		m.Deleted = true
		m.Content = ""
		m.PhotoURL = ""
		m.PhotoCaption = ""
		m.VoiceURL = ""
		m.VoiceDuration = 0
	}
}

// HasAttachment reports whether the message carries a photo attachment.
func (m Message) HasAttachment() bool {
	return m.PhotoURL != ""
}
