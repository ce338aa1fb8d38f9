package chat

import (
	"context"
	"sync"

	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/models"
)

// fakeRemote is an in-memory stand-in for the gateway client.
type fakeRemote struct {
	mu sync.Mutex

	seqs      map[int64][]models.Message
	nextID    int64
	listCalls int

	listErr   error
	sendErr   error
	editErr   error
	deleteErr error

	sends  []gateway.SendMessageRequest
	marked []int64

	// onSend observes the moment the write is in flight.
	onSend func()
	// sendGate, when set, blocks SendMessage until the channel is closed.
	sendGate chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		seqs:   make(map[int64][]models.Message),
		nextID: 100,
	}
}

func (f *fakeRemote) setSequence(chatID int64, seq []models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs[chatID] = seq
}

func (f *fakeRemote) ListMessages(ctx context.Context, chatID int64) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	seq := f.seqs[chatID]
	out := make([]models.Message, len(seq))
	copy(out, seq)
	return out, nil
}

func (f *fakeRemote) SendMessage(ctx context.Context, req gateway.SendMessageRequest) (gateway.SendAck, error) {
	if f.onSend != nil {
		f.onSend()
	}
	if f.sendGate != nil {
		select {
		case <-f.sendGate:
		case <-ctx.Done():
			return gateway.SendAck{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, req)
	if f.sendErr != nil {
		return gateway.SendAck{}, f.sendErr
	}

	f.nextID++
	confirmed := models.Message{
		ID:           f.nextID,
		SenderID:     req.SenderID,
		Content:      req.Content,
		PhotoURL:     req.PhotoURL,
		PhotoCaption: req.PhotoCaption,
		CreatedAt:    models.Now(),
		UpdatedAt:    models.Now(),
	}
	f.seqs[req.ChatID] = append(f.seqs[req.ChatID], confirmed)
	return gateway.SendAck{ID: confirmed.ID, CreatedAt: confirmed.CreatedAt}, nil
}

func (f *fakeRemote) EditMessage(ctx context.Context, messageID int64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	for chatID, seq := range f.seqs {
		for i := range seq {
			if seq[i].ID == messageID {
				seq[i].Content = content
				seq[i].Edited = true
				f.seqs[chatID] = seq
			}
		}
	}
	return nil
}

func (f *fakeRemote) DeleteMessage(ctx context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for chatID, seq := range f.seqs {
		for i := range seq {
			if seq[i].ID == messageID {
				seq[i].Deleted = true
				seq[i].Content = ""
				f.seqs[chatID] = seq
			}
		}
	}
	return nil
}

func (f *fakeRemote) MarkRead(ctx context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, messageID)
	return nil
}

func (f *fakeRemote) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeRemote) markedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.marked))
	copy(out, f.marked)
	return out
}

func (f *fakeRemote) sentRequests() []gateway.SendMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gateway.SendMessageRequest, len(f.sends))
	copy(out, f.sends)
	return out
}

// recordSounder captures gate-approved notifications.
type recordSounder struct {
	mu     sync.Mutex
	played []models.Message
}

func (r *recordSounder) Play(msg models.Message) {
	r.mu.Lock()
	r.played = append(r.played, msg)
	r.mu.Unlock()
}

func (r *recordSounder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.played)
}
