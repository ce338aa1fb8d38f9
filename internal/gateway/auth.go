package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/convohq/convo/internal/models"
)

// Login exchanges credentials for the account record. The service keeps no
// session tokens; the returned user id is the identity every other call takes.
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	payload := map[string]interface{}{
		"action":   "login",
		"username": username,
		"password": password,
	}
	var user models.User
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoints.Auth, payload, &user); err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}
	return user, nil
}

// Register creates an account and returns it.
func (c *Client) Register(ctx context.Context, username, password, nickname string) (models.User, error) {
	payload := map[string]interface{}{
		"action":   "register",
		"username": username,
		"password": password,
		"nickname": nickname,
	}
	var user models.User
	if err := c.sendJSON(ctx, http.MethodPost, c.endpoints.Auth, payload, &user); err != nil {
		return models.User{}, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

// UpdateNickname changes the account's display name.
func (c *Client) UpdateNickname(ctx context.Context, userID int64, nickname string) error {
	payload := map[string]interface{}{
		"action":   "update_nickname",
		"user_id":  userID,
		"nickname": nickname,
	}
	if err := c.sendJSON(ctx, http.MethodPut, c.endpoints.Profile, payload, nil); err != nil {
		return fmt.Errorf("update nickname: %w", err)
	}
	return nil
}
