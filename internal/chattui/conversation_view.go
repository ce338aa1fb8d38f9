package chattui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/convohq/convo/internal/chat"
	"github.com/convohq/convo/internal/config"
	"github.com/convohq/convo/internal/db"
	"github.com/convohq/convo/internal/logging"
	"github.com/convohq/convo/internal/models"
)

const (
	writeTimeout        = 10 * time.Second
	participantsTimeout = 10 * time.Second
)

type conversationFocus int

const (
	focusCompose conversationFocus = iota
	focusHistory
)

// conversationRemote is everything the conversation view needs from the
// gateway: the sync engine capability set plus group membership.
type conversationRemote interface {
	chat.Remote
	ListParticipants(ctx context.Context, chatID int64) ([]models.Participant, error)
}

type conversationDeps struct {
	remote         conversationRemote
	manager        *chat.Manager
	user           models.User
	drafts         *db.DraftRepository
	markers        *db.MarkerRepository
	sync           config.SyncConfig
	showTimestamps bool
}

type conversationEventMsg struct {
	session *chat.ConversationSession
	event   chat.Event
	ok      bool
}

type sendResultMsg struct {
	restored *chat.ComposeInput
	err      error
}

type writeResultMsg struct {
	action string
	err    error
}

type participantsMsg struct {
	chatID       int64
	participants []models.Participant
	err          error
}

type composeState struct {
	text         string
	photoURL     string
	photoCaption string

	// editingID is nonzero while rewriting an existing message.
	editingID int64

	// attachPrompt is the photo file path input; empty string means closed.
	attachOpen bool
	attachPath string

	sending bool
}

func (c *composeState) reset() {
	*c = composeState{}
}

type conversationView struct {
	deps conversationDeps

	chat    models.Chat
	session *chat.ConversationSession

	messages []models.Message
	offset   int // rendered rows scrolled up from the tail
	focus    conversationFocus
	selected int // history selection, index into messages

	compose composeState

	// openMarker is the read marker loaded when the conversation opened; the
	// new-messages divider sits above the first message past it.
	openMarker int64

	participants     []models.Participant
	showParticipants bool

	status string

	lastWidth  int
	lastHeight int
	bodyRows   int
}

func newConversationView(deps conversationDeps) *conversationView {
	return &conversationView{deps: deps, selected: -1}
}

func (v *conversationView) Init() tea.Cmd {
	return nil
}

// Open switches the view to a conversation. The previous session, if any, is
// fully closed by the manager before the new one polls.
func (v *conversationView) Open(c models.Chat) tea.Cmd {
	v.saveDraft()

	v.chat = c
	v.messages = nil
	v.offset = 0
	v.focus = focusCompose
	v.selected = -1
	v.compose.reset()
	v.participants = nil
	v.showParticipants = false
	v.status = ""
	v.openMarker = 0

	v.loadDraft()
	if v.deps.markers != nil {
		marker, err := v.deps.markers.Get(context.Background(), c.ID)
		if err == nil {
			v.openMarker = marker
		}
	}

	var sounder chat.Sounder = chat.NopSounder{}
	if v.deps.sync.SoundEnabled {
		sounder = &chat.BeepSounder{Desktop: true}
	}

	v.session = v.deps.manager.Open(chat.ConversationConfig{
		Remote:          v.deps.remote,
		ChatID:          c.ID,
		User:            v.deps.user,
		PollInterval:    v.deps.sync.MessagePollInterval,
		AnchorThreshold: v.deps.sync.NearBottomRows,
		Sounder:         sounder,
		RollbackDelete:  v.deps.sync.RollbackDeleteOnFailure,
	})
	return v.waitEventCmd(v.session)
}

// Close persists the draft and stops the session.
func (v *conversationView) Close() {
	v.saveDraft()
	v.deps.manager.Close()
	v.session = nil
}

// waitEventCmd blocks on one session's feed. The session pointer rides along
// so deliveries from an already-replaced session are dropped instead of
// painting another chat's messages.
func (v *conversationView) waitEventCmd(session *chat.ConversationSession) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-session.Events()
		return conversationEventMsg{session: session, event: ev, ok: ok}
	}
}

func (v *conversationView) Update(msg tea.Msg) tea.Cmd {
	switch typed := msg.(type) {
	case conversationEventMsg:
		return v.applyEvent(typed)
	case sendResultMsg:
		return v.applySendResult(typed)
	case writeResultMsg:
		if typed.err != nil {
			v.status = fmt.Sprintf("%s failed: %s", typed.action, typed.err)
		}
		return nil
	case participantsMsg:
		if typed.chatID != v.chat.ID {
			return nil
		}
		if typed.err != nil {
			v.status = "participants: " + typed.err.Error()
			return nil
		}
		v.participants = typed.participants
		v.showParticipants = true
		return nil
	case tea.KeyMsg:
		return v.handleKey(typed)
	}
	return nil
}

func (v *conversationView) applyEvent(msg conversationEventMsg) tea.Cmd {
	if msg.session != v.session {
		return nil
	}
	if !msg.ok {
		return nil
	}

	v.messages = msg.event.Messages
	if msg.event.ScrollToBottom {
		v.offset = 0
	}
	if v.selected >= len(v.messages) {
		v.selected = len(v.messages) - 1
	}

	cmds := []tea.Cmd{v.waitEventCmd(msg.session)}
	if msg.event.NewActivity {
		if cmd := v.advanceMarkerCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (v *conversationView) advanceMarkerCmd() tea.Cmd {
	if v.deps.markers == nil || len(v.messages) == 0 {
		return nil
	}
	tail := v.messages[len(v.messages)-1]
	if tail.Pending || tail.ID <= 0 {
		return nil
	}
	chatID := v.chat.ID
	markers := v.deps.markers
	return func() tea.Msg {
		if err := markers.Advance(context.Background(), chatID, tail.ID); err != nil {
			tuiLog := logging.Component("chattui")
			tuiLog.Debug().Err(err).Msg("advance read marker failed")
		}
		return nil
	}
}

func (v *conversationView) applySendResult(msg sendResultMsg) tea.Cmd {
	v.compose.sending = false
	if msg.err == nil {
		return nil
	}
	if errors.Is(msg.err, chat.ErrSendInFlight) {
		v.status = "still sending the previous message"
		return nil
	}
	// The pipeline hands the input back; put it where the user can retry.
	if msg.restored != nil {
		v.compose.text = msg.restored.Text
		v.compose.photoURL = msg.restored.PhotoURL
		v.compose.photoCaption = msg.restored.PhotoCaption
	}
	v.status = "send failed: " + msg.err.Error()
	return nil
}

func (v *conversationView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.showParticipants {
		v.showParticipants = false
		return nil
	}
	if v.compose.attachOpen {
		return v.handleAttachKey(msg)
	}
	if v.focus == focusHistory {
		return v.handleHistoryKey(msg)
	}
	return v.handleComposeKey(msg)
}

func (v *conversationView) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if v.compose.editingID != 0 {
			v.compose.reset()
			v.loadDraft()
			return nil
		}
		// Leaving the conversation tears the session down; the abandoned
		// chat must not keep polling or sounding behind the chat list.
		v.Close()
		return popViewCmd()
	case tea.KeyEnter:
		return v.submitCompose()
	case tea.KeyBackspace:
		runes := []rune(v.compose.text)
		if len(runes) > 0 {
			v.compose.text = string(runes[:len(runes)-1])
		}
		return nil
	case tea.KeyTab:
		v.focus = focusHistory
		if v.selected < 0 {
			v.selected = len(v.messages) - 1
		}
		return nil
	case tea.KeyCtrlO:
		v.compose.attachOpen = true
		v.compose.attachPath = ""
		return nil
	case tea.KeyPgUp:
		v.scrollBy(v.pageStep())
		return nil
	case tea.KeyPgDown:
		v.scrollBy(-v.pageStep())
		return nil
	case tea.KeyCtrlU:
		v.scrollBy(v.pageStep())
		return nil
	case tea.KeyCtrlD:
		v.scrollBy(-v.pageStep())
		return nil
	case tea.KeyEnd:
		v.jumpBottom()
		return nil
	case tea.KeyRunes, tea.KeySpace:
		v.compose.text += string(msg.Runes)
		return nil
	}
	return nil
}

func (v *conversationView) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "tab":
		v.focus = focusCompose
		v.selected = -1
		return nil
	case "j", "down":
		v.moveSelection(1)
		return nil
	case "k", "up":
		v.moveSelection(-1)
		return nil
	case "G", "end":
		v.jumpBottom()
		v.selected = len(v.messages) - 1
		return nil
	case "p":
		if v.chat.IsGroup {
			return v.participantsCmd()
		}
		return nil
	case "e":
		return v.beginEdit()
	case "d":
		return v.deleteSelected()
	}
	return nil
}

func (v *conversationView) handleAttachKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		v.compose.attachOpen = false
		return nil
	case tea.KeyEnter:
		path := strings.TrimSpace(v.compose.attachPath)
		if path == "" {
			v.compose.attachOpen = false
			return nil
		}
		uri, err := EncodePhotoDataURI(path)
		if err != nil {
			v.status = "attach failed: " + err.Error()
			return nil
		}
		v.compose.photoURL = uri
		v.compose.photoCaption = v.compose.text
		v.compose.attachOpen = false
		v.status = "photo staged; enter sends it with the text as caption"
		return nil
	case tea.KeyBackspace:
		runes := []rune(v.compose.attachPath)
		if len(runes) > 0 {
			v.compose.attachPath = string(runes[:len(runes)-1])
		}
		return nil
	case tea.KeyRunes, tea.KeySpace:
		v.compose.attachPath += string(msg.Runes)
		return nil
	}
	return nil
}

func (v *conversationView) submitCompose() tea.Cmd {
	if v.session == nil || v.compose.sending {
		return nil
	}

	if v.compose.editingID != 0 {
		content := strings.TrimSpace(v.compose.text)
		if content == "" {
			return nil
		}
		messageID := v.compose.editingID
		session := v.session
		v.compose.reset()
		v.loadDraft()
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			return writeResultMsg{action: "edit", err: session.Edit(ctx, messageID, content)}
		}
	}

	input := chat.ComposeInput{
		Text:         strings.TrimSpace(v.compose.text),
		PhotoURL:     v.compose.photoURL,
		PhotoCaption: v.compose.photoCaption,
	}
	if input.PhotoURL != "" {
		// The caption carries the text; don't double-send it as a body.
		input.Text = ""
		input.PhotoCaption = strings.TrimSpace(v.compose.text)
	}
	if input.Empty() {
		return nil
	}

	v.compose.reset()
	v.compose.sending = true
	v.clearDraft()

	session := v.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		restored, err := session.Send(ctx, input)
		return sendResultMsg{restored: restored, err: err}
	}
}

func (v *conversationView) beginEdit() tea.Cmd {
	m, ok := v.selectedMessage()
	if !ok {
		return nil
	}
	if m.SenderID != v.deps.user.ID || m.Deleted || m.System || m.Pending {
		v.status = "only your own messages can be edited"
		return nil
	}
	if m.PhotoURL != "" {
		v.status = "photo messages cannot be edited"
		return nil
	}
	v.compose.reset()
	v.compose.editingID = m.ID
	v.compose.text = m.Content
	v.focus = focusCompose
	v.selected = -1
	return nil
}

func (v *conversationView) deleteSelected() tea.Cmd {
	m, ok := v.selectedMessage()
	if !ok {
		return nil
	}
	if m.SenderID != v.deps.user.ID || m.Pending {
		v.status = "only your own messages can be deleted"
		return nil
	}
	v.focus = focusCompose
	v.selected = -1

	session := v.session
	messageID := m.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return writeResultMsg{action: "delete", err: session.Delete(ctx, messageID)}
	}
}

func (v *conversationView) participantsCmd() tea.Cmd {
	remote := v.deps.remote
	chatID := v.chat.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), participantsTimeout)
		defer cancel()
		participants, err := remote.ListParticipants(ctx, chatID)
		return participantsMsg{chatID: chatID, participants: participants, err: err}
	}
}

func (v *conversationView) moveSelection(delta int) {
	if len(v.messages) == 0 {
		v.selected = -1
		return
	}
	if v.selected < 0 {
		v.selected = len(v.messages) - 1
	}
	v.selected = clampInt(v.selected+delta, 0, len(v.messages)-1)
}

func (v *conversationView) selectedMessage() (models.Message, bool) {
	if v.selected < 0 || v.selected >= len(v.messages) {
		return models.Message{}, false
	}
	return v.messages[v.selected], true
}

// scrollBy moves the viewport and reports the new tail distance to the anchor
// policy, so reading history releases auto-follow and coming back re-engages
// it.
func (v *conversationView) scrollBy(delta int) {
	v.offset = maxInt(0, v.offset+delta)
	if v.session != nil {
		v.session.Anchor().HandleScroll(v.offset)
	}
}

func (v *conversationView) jumpBottom() {
	v.offset = 0
	if v.session != nil {
		v.session.Anchor().HandleScroll(0)
	}
}

func (v *conversationView) pageStep() int {
	if v.bodyRows > 0 {
		return maxInt(1, v.bodyRows/2)
	}
	return 6
}

func (v *conversationView) saveDraft() {
	if v.deps.drafts == nil || v.chat.ID == 0 || v.compose.editingID != 0 {
		return
	}
	err := v.deps.drafts.Save(context.Background(), db.Draft{
		ChatID:       v.chat.ID,
		Body:         v.compose.text,
		PhotoURL:     v.compose.photoURL,
		PhotoCaption: v.compose.photoCaption,
	})
	if err != nil {
		tuiLog := logging.Component("chattui")
		tuiLog.Debug().Err(err).Msg("save draft failed")
	}
}

func (v *conversationView) loadDraft() {
	if v.deps.drafts == nil || v.chat.ID == 0 {
		return
	}
	draft, err := v.deps.drafts.Load(context.Background(), v.chat.ID)
	if err != nil {
		tuiLog := logging.Component("chattui")
		tuiLog.Debug().Err(err).Msg("load draft failed")
		return
	}
	v.compose.text = draft.Body
	v.compose.photoURL = draft.PhotoURL
	v.compose.photoCaption = draft.PhotoCaption
}

func (v *conversationView) clearDraft() {
	if v.deps.drafts == nil || v.chat.ID == 0 {
		return
	}
	if err := v.deps.drafts.Clear(context.Background(), v.chat.ID); err != nil {
		tuiLog := logging.Component("chattui")
		tuiLog.Debug().Err(err).Msg("clear draft failed")
	}
}
