package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kudakan-telegram/db"
	"kudakan-telegram/models"

	"github.com/jackc/pgx/v5"
)

// Postgres keeps client state in the client_state table.
type Postgres struct{}

func NewPostgres() *Postgres { return &Postgres{} }

func (p *Postgres) Token(ctx context.Context, chatID int64) (string, error) {
	var token string
	err := db.Pool.QueryRow(ctx, `
		SELECT token FROM client_state WHERE chat_id = $1`,
		chatID,
	).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return token, err
}

func (p *Postgres) SetToken(ctx context.Context, chatID int64, token string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO client_state (chat_id, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			token = $2,
			updated_at = now()`,
		chatID, token,
	)
	return err
}

func (p *Postgres) Session(ctx context.Context, chatID int64) (*models.Session, error) {
	var raw []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT session_data FROM client_state WHERE chat_id = $1`,
		chatID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (p *Postgres) SetSession(ctx context.Context, chatID int64, s *models.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO client_state (chat_id, session_data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			session_data = $2::jsonb,
			updated_at = now()`,
		chatID, raw,
	)
	return err
}

func (p *Postgres) LastView(ctx context.Context, chatID int64) (string, error) {
	var view string
	err := db.Pool.QueryRow(ctx, `
		SELECT last_view FROM client_state WHERE chat_id = $1`,
		chatID,
	).Scan(&view)
	if errors.Is(err, pgx.ErrNoRows) {
		return ViewHome, nil
	}
	if err != nil {
		return "", err
	}
	if view == "" {
		view = ViewHome
	}
	return view, nil
}

func (p *Postgres) SetLastView(ctx context.Context, chatID int64, view string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO client_state (chat_id, last_view, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chat_id) DO UPDATE SET
			last_view = $2,
			updated_at = now()`,
		chatID, view,
	)
	return err
}

func (p *Postgres) Clear(ctx context.Context, chatID int64) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM client_state WHERE chat_id = $1`, chatID)
	return err
}
