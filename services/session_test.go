package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kudakan-telegram/api"
	"kudakan-telegram/config"
	"kudakan-telegram/models"
	"kudakan-telegram/store"
)

func testGateway(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := api.New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

func authMeHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/me":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(body))
		case "/auth/login":
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestBootstrapWithoutToken(t *testing.T) {
	gw := testGateway(t, http.NotFoundHandler())
	m := NewSessionManager(gw, store.NewMemory())

	session, view, err := m.Bootstrap(context.Background(), 1)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil (anonymous)", session)
	}
	if view != store.ViewHome {
		t.Errorf("view = %q, want home", view)
	}
}

func TestBootstrapRestoresSessionAndLastView(t *testing.T) {
	gw := testGateway(t, authMeHandler(
		`{"mahasiswa":{"id_mahasiswa":7,"nama":"Budi","email":"budi@kampus.id","alamat_pengiriman":"Asrama A","nomor_hp":"0812"}}`))
	st := store.NewMemory()
	ctx := context.Background()
	_ = st.SetToken(ctx, 1, "tok")
	_ = st.SetLastView(ctx, 1, store.ViewDashboard)

	m := NewSessionManager(gw, st)
	session, view, err := m.Bootstrap(ctx, 1)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if session == nil {
		t.Fatal("session = nil, want restored")
	}
	if session.Role != models.RoleStudent || session.UserID != 7 || session.DisplayName != "Budi" {
		t.Errorf("session = %+v", session)
	}
	if !session.ProfileComplete {
		t.Error("address and phone set: ProfileComplete should be true")
	}
	if session.Token != "tok" {
		t.Errorf("token = %q, want tok", session.Token)
	}
	if view != store.ViewDashboard {
		t.Errorf("view = %q, want dashboard", view)
	}

	// Second bootstrap hits the cache.
	again, _, err := m.Bootstrap(ctx, 1)
	if err != nil || again != session {
		t.Errorf("cached bootstrap: session=%p want %p, err=%v", again, session, err)
	}
}

func TestBootstrapStaleTokenFallsBackToAnonymous(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	st := store.NewMemory()
	ctx := context.Background()
	_ = st.SetToken(ctx, 1, "stale")

	m := NewSessionManager(gw, st)
	session, view, err := m.Bootstrap(ctx, 1)
	if err != nil {
		t.Fatalf("stale token must not surface an error, got %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
	if view != store.ViewHome {
		t.Errorf("view = %q, want home", view)
	}
	if tok, _ := st.Token(ctx, 1); tok != "" {
		t.Errorf("stored token = %q, want cleared", tok)
	}
}

func TestLoginDerivesIncompleteProfile(t *testing.T) {
	gw := testGateway(t, authMeHandler(
		`{"access_token":"fresh","kantin":{"id_kantin":3,"nama_kantin":"Bu Sri","email":"sri@kampus.id"}}`))
	st := store.NewMemory()
	m := NewSessionManager(gw, st)
	ctx := context.Background()

	session, err := m.Login(ctx, 1, "sri@kampus.id", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Role != models.RoleKantin || session.UserID != 3 {
		t.Errorf("session = %+v", session)
	}
	if session.ProfileComplete {
		t.Error("kantin without tenant data must be incomplete")
	}
	if tok, _ := st.Token(ctx, 1); tok != "fresh" {
		t.Errorf("persisted token = %q, want fresh", tok)
	}
	if view, _ := st.LastView(ctx, 1); view != store.ViewDashboard {
		t.Errorf("last view after login = %q, want dashboard", view)
	}
	if m.Current(1) != session {
		t.Error("Current must return the logged-in session")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	gw := testGateway(t, authMeHandler(
		`{"access_token":"fresh","mahasiswa":{"id_mahasiswa":7,"nama":"Budi"}}`))
	st := store.NewMemory()
	m := NewSessionManager(gw, st)
	ctx := context.Background()

	if _, err := m.Login(ctx, 1, "budi@kampus.id", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(ctx, 1); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if m.Current(1) != nil {
		t.Error("session survives logout")
	}
	if tok, _ := st.Token(ctx, 1); tok != "" {
		t.Errorf("token survives logout: %q", tok)
	}
	if view, _ := st.LastView(ctx, 1); view != store.ViewHome {
		t.Errorf("last view after logout = %q, want home", view)
	}
}

func TestExpired(t *testing.T) {
	gw := testGateway(t, authMeHandler(
		`{"access_token":"fresh","mahasiswa":{"id_mahasiswa":7,"nama":"Budi"}}`))
	st := store.NewMemory()
	m := NewSessionManager(gw, st)
	ctx := context.Background()

	if _, err := m.Login(ctx, 1, "budi@kampus.id", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if m.Expired(ctx, 1, errors.New("other")) {
		t.Error("Expired on unrelated error = true, want false")
	}
	if m.Current(1) == nil {
		t.Fatal("unrelated error must not log out")
	}

	if !m.Expired(ctx, 1, api.ErrSessionExpired) {
		t.Error("Expired on ErrSessionExpired = false, want true")
	}
	if m.Current(1) != nil {
		t.Error("expiry must discard the session")
	}
	if tok, _ := st.Token(ctx, 1); tok != "" {
		t.Errorf("expiry must clear the stored token, got %q", tok)
	}
}

func TestSetProfileComplete(t *testing.T) {
	gw := testGateway(t, authMeHandler(
		`{"access_token":"fresh","kantin":{"id_kantin":3,"nama_kantin":"Bu Sri"}}`))
	m := NewSessionManager(gw, store.NewMemory())
	ctx := context.Background()

	session, err := m.Login(ctx, 1, "sri@kampus.id", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	m.SetProfileComplete(ctx, 1, true)
	if !session.ProfileComplete {
		t.Error("flag not flipped on the cached session")
	}
}
