package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/convohq/convo/internal/models"
)

// ListChats fetches the user's conversations, most recently active first.
func (c *Client) ListChats(ctx context.Context, userID int64) ([]models.Chat, error) {
	var body struct {
		Chats []models.Chat `json:"chats"`
	}
	query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}.Encode()
	if err := c.getJSON(ctx, c.endpoints.Chats, query, &body); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return body.Chats, nil
}

// CreatePersonalChat opens (or finds) a one-on-one chat with another user.
// The second return value reports whether the chat already existed.
func (c *Client) CreatePersonalChat(ctx context.Context, userID int64, otherUsername string) (int64, bool, error) {
	payload := map[string]interface{}{
		"action":         "create_personal",
		"user_id":        userID,
		"other_username": otherUsername,
	}
	var body struct {
		ChatID   int64 `json:"chat_id"`
		Existing bool  `json:"existing"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoints.Chats, payload, &body); err != nil {
		return 0, false, fmt.Errorf("create personal chat: %w", err)
	}
	return body.ChatID, body.Existing, nil
}

// ListParticipants fetches group membership. Only meaningful for group chats.
func (c *Client) ListParticipants(ctx context.Context, chatID int64) ([]models.Participant, error) {
	var body struct {
		Participants []models.Participant `json:"participants"`
	}
	query := url.Values{"chat_id": {strconv.FormatInt(chatID, 10)}}.Encode()
	if err := c.getJSON(ctx, c.endpoints.Groups, query, &body); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return body.Participants, nil
}
