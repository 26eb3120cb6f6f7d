package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
	"kudakan-telegram/store"
)

// SessionManager owns the per-chat authentication state machine:
// Bootstrapping -> Anonymous | Authenticated. Sessions live in memory and
// are mirrored to the local store so a restart picks up where it left off.
type SessionManager struct {
	api   *api.Client
	store store.Store

	mu       sync.RWMutex
	sessions map[int64]*models.Session
}

func NewSessionManager(apiClient *api.Client, st store.Store) *SessionManager {
	return &SessionManager{
		api:      apiClient,
		store:    st,
		sessions: make(map[int64]*models.Session),
	}
}

// Current returns the cached session for the chat, nil when anonymous.
func (m *SessionManager) Current(chatID int64) *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[chatID]
}

// Bootstrap restores identity from the persisted token. On success it
// returns the session and the last viewed screen; on any failure it clears
// the stored state and returns a nil session (Anonymous).
func (m *SessionManager) Bootstrap(ctx context.Context, chatID int64) (*models.Session, string, error) {
	if s := m.Current(chatID); s != nil {
		view, _ := m.store.LastView(ctx, chatID)
		return s, view, nil
	}

	token, err := m.store.Token(ctx, chatID)
	if err != nil {
		return nil, store.ViewHome, fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return nil, store.ViewHome, nil
	}

	id, err := m.api.Me(ctx, token)
	if err != nil {
		// Stale or revoked token: fall back to Anonymous.
		_ = m.store.Clear(ctx, chatID)
		if errors.Is(err, api.ErrSessionExpired) {
			return nil, store.ViewHome, nil
		}
		return nil, store.ViewHome, err
	}

	session := sessionFromIdentity(id, token)
	view, _ := m.store.LastView(ctx, chatID)
	if view == "" {
		view = store.ViewHome
	}

	m.mu.Lock()
	m.sessions[chatID] = session
	m.mu.Unlock()
	_ = m.store.SetSession(ctx, chatID, session)
	return session, view, nil
}

// Login transitions Anonymous -> Authenticated and persists the session.
func (m *SessionManager) Login(ctx context.Context, chatID int64, email, password string) (*models.Session, error) {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login response missing access token")
	}

	session := sessionFromIdentity(res.Identity, res.Token)

	m.mu.Lock()
	m.sessions[chatID] = session
	m.mu.Unlock()

	if err := m.store.SetToken(ctx, chatID, res.Token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	_ = m.store.SetSession(ctx, chatID, session)
	_ = m.store.SetLastView(ctx, chatID, store.ViewDashboard)
	return session, nil
}

// Logout clears the token, the session and the last-view marker. The caller
// is responsible for the confirmation step; a forced logout (session
// expired) skips it.
func (m *SessionManager) Logout(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	return m.store.Clear(ctx, chatID)
}

// SetProfileComplete flips the flag after a completion flow succeeds.
func (m *SessionManager) SetProfileComplete(ctx context.Context, chatID int64, complete bool) {
	m.mu.Lock()
	s := m.sessions[chatID]
	if s != nil {
		s.ProfileComplete = complete
	}
	m.mu.Unlock()
	if s != nil {
		_ = m.store.SetSession(ctx, chatID, s)
	}
}

func (m *SessionManager) SaveLastView(ctx context.Context, chatID int64, view string) {
	_ = m.store.SetLastView(ctx, chatID, view)
}

// Expired handles ErrSessionExpired from any call: discard local state so
// the chat lands back on the login screen. Returns true when err was the
// expiry sentinel.
func (m *SessionManager) Expired(ctx context.Context, chatID int64, err error) bool {
	if !errors.Is(err, api.ErrSessionExpired) {
		return false
	}
	_ = m.Logout(ctx, chatID)
	return true
}

// sessionFromIdentity derives the session, including the role-specific
// profile-completeness rule.
func sessionFromIdentity(id *api.Identity, token string) *models.Session {
	s := &models.Session{Role: id.Role, Token: token}
	switch {
	case id.Student != nil:
		s.Role = models.RoleStudent
		s.UserID = id.Student.ID
		s.DisplayName = id.Student.Name
		s.Email = id.Student.Email
		s.ProfileComplete = StudentProfileComplete(id.Student.DeliveryAddress, id.Student.Phone)
	case id.Kantin != nil:
		s.Role = models.RoleKantin
		s.UserID = id.Kantin.ID
		s.DisplayName = id.Kantin.Name
		s.Email = id.Kantin.Email
		s.ProfileComplete = KantinProfileComplete(id.Kantin.TenantName, id.Kantin.OwnerName, id.Kantin.OwnerPhone, id.Kantin.OperatingHours)
	}
	return s
}
