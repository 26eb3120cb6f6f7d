package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kudakan-telegram/config"
	"kudakan-telegram/models"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestRequestSessionExpiredOn401(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	_, err := c.Me(context.Background(), "stale")
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("got %v, want ErrSessionExpired", err)
	}
}

func TestRequestValidationDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"email sudah terdaftar"}`, "email sudah terdaftar"},
		{"list detail", `{"detail":[{"msg":"nama wajib"},{"msg":"harga wajib"}]}`, "nama wajib; harga wajib"},
		{"no detail", `{}`, ""},
		{"not json", `oops`, ""},
	}
	for _, tt := range tests {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(tt.body))
		}))
		err := c.RegisterKantin(context.Background(), "K", "k@x.id", "pw")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%s: got %v, want *ValidationError", tt.name, err)
			continue
		}
		if vErr.Detail != tt.want {
			t.Errorf("%s: detail = %q, want %q", tt.name, vErr.Detail, tt.want)
		}
	}
}

func TestRequestStatusError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.ListMenu(context.Background(), "")
	var sErr *StatusError
	if !errors.As(err, &sErr) {
		t.Fatalf("got %v, want *StatusError", err)
	}
	if sErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", sErr.Status)
	}
}

func TestRequestConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(config.APIConfig{BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ListMenu(context.Background(), "")
	var cErr *ConnectivityError
	if !errors.As(err, &cErr) {
		t.Errorf("got %v, want *ConnectivityError", err)
	}
}

func TestRequestEmptyBodyOK(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	if err := c.DeleteMenu(context.Background(), "tok", 5); err != nil {
		t.Errorf("DeleteMenu on empty body: %v", err)
	}
}

func TestRequestBearerToken(t *testing.T) {
	var got string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))

	if _, err := c.ListMenu(context.Background(), "tok123"); err != nil {
		t.Fatalf("ListMenu: %v", err)
	}
	if got != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", got)
	}

	if _, err := c.ListMenu(context.Background(), ""); err != nil {
		t.Fatalf("ListMenu guest: %v", err)
	}
	if got != "" {
		t.Errorf("guest request sent Authorization %q, want none", got)
	}
}

func TestFlexInt64(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{`42`, 42},
		{`"42"`, 42},
		{`15000.0`, 15000},
		{`null`, 0},
		{`""`, 0},
	}
	for _, tt := range tests {
		var n flexInt64
		if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		if int64(n) != tt.want {
			t.Errorf("flexInt64(%s) = %d, want %d", tt.in, n, tt.want)
		}
	}
}

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantRole string
		wantID   int64
	}{
		{
			"nested mahasiswa",
			`{"access_token":"t","mahasiswa":{"id_mahasiswa":7,"nama":"Budi","nim":"123"}}`,
			models.RoleStudent, 7,
		},
		{
			"nested kantin",
			`{"kantin":{"id_kantin":"3","nama_kantin":"Bu Sri"}}`,
			models.RoleKantin, 3,
		},
		{
			"user_info wrapper",
			`{"user_type":"mahasiswa","user_info":{"id_mahasiswa":9,"nama":"Sari"}}`,
			models.RoleStudent, 9,
		},
		{
			"flattened student",
			`{"id_mahasiswa":11,"nama":"Andi","nim":"456"}`,
			models.RoleStudent, 11,
		},
		{
			"flattened kantin",
			`{"id_kantin":12,"nama_kantin":"Teknik"}`,
			models.RoleKantin, 12,
		},
	}
	for _, tt := range tests {
		id, err := normalizeIdentity(json.RawMessage(tt.payload), "")
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if id.Role != tt.wantRole {
			t.Errorf("%s: role = %q, want %q", tt.name, id.Role, tt.wantRole)
		}
		var gotID int64
		if id.Student != nil {
			gotID = id.Student.ID
		} else if id.Kantin != nil {
			gotID = id.Kantin.ID
		}
		if gotID != tt.wantID {
			t.Errorf("%s: id = %d, want %d", tt.name, gotID, tt.wantID)
		}
	}

	if _, err := normalizeIdentity(json.RawMessage(`{"foo":"bar"}`), ""); err == nil {
		t.Error("unrecognized payload must fail")
	}
}

func TestMenuTypeMapping(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id_menu":1,"nama_menu":"Nasi","tipe_menu":"Makanan","harga":"12000","id_kantin":4},
			{"id_menu":2,"nama_menu":"Teh","tipe_menu":"minuman","harga":5000,"id_kantin":4},
			{"id_menu":3,"nama_menu":"Risol","tipe_menu":"snack","harga":3000,"id_kantin":4}
		]`))
	}))
	items, err := c.ListMenu(context.Background(), "")
	if err != nil {
		t.Fatalf("ListMenu: %v", err)
	}
	want := []string{models.TypeFood, models.TypeDrink, models.TypeSnack}
	for i, it := range items {
		if it.Type != want[i] {
			t.Errorf("item %d type = %q, want %q", it.ID, it.Type, want[i])
		}
	}
	if items[0].Price != 12000 {
		t.Errorf("string price parsed as %d, want 12000", items[0].Price)
	}
}

func TestOrderStatusFolding(t *testing.T) {
	tests := []struct {
		wire, want string
	}{
		{"selesai", models.OrderStatusDone},
		{"Done", models.OrderStatusDone},
		{"completed", models.OrderStatusDone},
		{"diproses", models.OrderStatusInProgress},
		{"pending", models.OrderStatusInProgress},
		{"", models.OrderStatusInProgress},
	}
	for _, tt := range tests {
		if got := orderStatusFromWire(tt.wire); got != tt.want {
			t.Errorf("orderStatusFromWire(%q) = %q, want %q", tt.wire, got, tt.want)
		}
	}
}

func TestCreateMenuWithImageMultipart(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("nama_menu") != "Nasi Goreng" {
			t.Errorf("nama_menu = %q", r.FormValue("nama_menu"))
		}
		if r.FormValue("tipe_menu") != "makanan" {
			t.Errorf("tipe_menu = %q, want makanan", r.FormValue("tipe_menu"))
		}
		f, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image file: %v", err)
		}
		defer f.Close()
		if header.Filename != "foto.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"id_menu":8,"nama_menu":"Nasi Goreng","tipe_menu":"makanan","harga":15000,"id_kantin":2}`))
	}))

	in := MenuInput{Name: "Nasi Goreng", Description: "Enak", Price: 15000, Type: models.TypeFood}
	item, err := c.CreateMenuWithImage(context.Background(), "tok", in, "foto.jpg", bytes.NewReader([]byte("jpegdata")))
	if err != nil {
		t.Fatalf("CreateMenuWithImage: %v", err)
	}
	if item.ID != 8 || item.Type != models.TypeFood {
		t.Errorf("item = %+v", item)
	}
}
