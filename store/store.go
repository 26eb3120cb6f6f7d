// Package store persists the small amount of client-local state the app
// keeps between restarts: the bearer token, the serialized session and the
// last viewed screen, per chat. Everything else is refetched from the API.
package store

import (
	"context"

	"kudakan-telegram/models"
)

const (
	ViewHome      = "home"
	ViewDashboard = "dashboard"
)

type Store interface {
	Token(ctx context.Context, chatID int64) (string, error)
	SetToken(ctx context.Context, chatID int64, token string) error

	Session(ctx context.Context, chatID int64) (*models.Session, error)
	SetSession(ctx context.Context, chatID int64, s *models.Session) error

	LastView(ctx context.Context, chatID int64) (string, error)
	SetLastView(ctx context.Context, chatID int64, view string) error

	// Clear removes token, session and last view for the chat.
	Clear(ctx context.Context, chatID int64) error
}
