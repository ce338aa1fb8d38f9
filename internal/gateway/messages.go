package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/convohq/convo/internal/models"
)

// SendMessageRequest is the payload for appending a message to a chat.
type SendMessageRequest struct {
	ChatID       int64  `json:"chat_id"`
	SenderID     int64  `json:"sender_id"`
	Content      string `json:"content"`
	PhotoURL     string `json:"photo_url,omitempty"`
	PhotoCaption string `json:"photo_caption,omitempty"`
}

// SendAck is the server acknowledgement of an appended message.
type SendAck struct {
	ID        int64            `json:"id"`
	CreatedAt models.Timestamp `json:"created_at"`
}

// ListMessages fetches the full, id-ascending message sequence of a chat.
// Every poll tick is a complete reload; there is no incremental fetch.
func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]models.Message, error) {
	var body struct {
		Messages []models.Message `json:"messages"`
	}
	query := url.Values{"chat_id": {strconv.FormatInt(chatID, 10)}}.Encode()
	if err := c.getJSON(ctx, c.endpoints.Messages, query, &body); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	for i := range body.Messages {
		body.Messages[i].Normalize()
	}
	return body.Messages, nil
}

// SendMessage appends a message and returns the server-issued id.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (SendAck, error) {
	var ack SendAck
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoints.Messages, req, &ack); err != nil {
		return SendAck{}, fmt.Errorf("send message: %w", err)
	}
	return ack, nil
}

// EditMessage replaces a message's content and marks it edited.
func (c *Client) EditMessage(ctx context.Context, messageID int64, content string) error {
	payload := map[string]interface{}{
		"action":     "edit",
		"message_id": messageID,
		"content":    content,
	}
	if err := c.sendJSON(ctx, http.MethodPut, c.endpoints.Messages, payload, nil); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// MarkRead flags a message as read by the counterpart.
func (c *Client) MarkRead(ctx context.Context, messageID int64) error {
	payload := map[string]interface{}{
		"action":     "mark_read",
		"message_id": messageID,
	}
	if err := c.sendJSON(ctx, http.MethodPut, c.endpoints.Messages, payload, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// DeleteMessage soft-deletes a message server-side. The row survives as a
// tombstone in subsequent ListMessages responses.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	payload := map[string]interface{}{"message_id": messageID}
	if err := c.sendJSON(ctx, http.MethodDelete, c.endpoints.Messages, payload, nil); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
