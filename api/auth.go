package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var errUnknownIdentity = errors.New("unrecognized identity payload")

// LoginResult is a successful POST /auth/login.
type LoginResult struct {
	Token    string
	Identity *Identity
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var raw json.RawMessage
	if err := c.request(ctx, http.MethodPost, "/auth/login", "", body, &raw); err != nil {
		return nil, err
	}

	var shell struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return nil, err
	}
	id, err := normalizeIdentity(raw, "")
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: shell.AccessToken, Identity: id}, nil
}

// Me returns the current identity for a stored token (session bootstrap).
func (c *Client) Me(ctx context.Context, token string) (*Identity, error) {
	var raw json.RawMessage
	if err := c.request(ctx, http.MethodGet, "/auth/me", token, nil, &raw); err != nil {
		return nil, err
	}
	return normalizeIdentity(raw, "")
}

func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	body := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	return c.request(ctx, http.MethodPost, "/auth/change-password", token, body, nil)
}
