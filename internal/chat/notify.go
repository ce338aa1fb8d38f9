package chat

import (
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/convohq/convo/internal/models"
)

// Gate decides whether a new-activity reconciliation pass deserves an audible
// cue. All conditions must hold: the tail message was not sent by the local
// user and is not a system message.
type Gate struct {
	LocalUserID int64
}

// ShouldNotify applies the gate to the tail message of a fetched sequence.
func (g Gate) ShouldNotify(tail models.Message) bool {
	if tail.SenderID == g.LocalUserID {
		return false
	}
	if tail.System {
		return false
	}
	return true
}

// Sounder plays the notification cue. Playback failure is never surfaced:
// platform audio policy can block it and the message itself already arrived.
type Sounder interface {
	Play(msg models.Message)
}

// BeepSounder is the default Sounder: a short tone plus a desktop
// notification carrying the sender and a trimmed preview.
type BeepSounder struct {
	// Desktop additionally raises an OS notification when true.
	Desktop bool
}

// Play implements Sounder. Errors from the platform are swallowed.
func (s BeepSounder) Play(msg models.Message) {
	_ = beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)

	if s.Desktop {
		title := msg.SenderNickname
		if title == "" {
			title = "@" + msg.SenderUsername
		}
		_ = beeep.Notify(title, previewBody(msg), "")
	}
}

// NopSounder discards every cue. Used when sound is disabled and in tests.
type NopSounder struct{}

// Play implements Sounder.
func (NopSounder) Play(models.Message) {}

const previewLimit = 100

// previewBody collapses whitespace and truncates the message content for a
// one-line notification body.
func previewBody(msg models.Message) string {
	body := msg.Content
	if body == "" && msg.HasAttachment() {
		body = msg.PhotoCaption
		if body == "" {
			body = "sent a photo"
		}
	}
	body = strings.Join(strings.Fields(body), " ")
	if runes := []rune(body); len(runes) > previewLimit {
		body = string(runes[:previewLimit-1]) + "…"
	}
	return body
}
