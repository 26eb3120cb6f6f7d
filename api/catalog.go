package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"kudakan-telegram/models"
)

// Kantin and menu listings are public; pass an empty token for guests.

func (c *Client) ListKantin(ctx context.Context, token string) ([]models.Vendor, error) {
	var raw []rawKantin
	if err := c.request(ctx, http.MethodGet, "/kantin/?skip=0&limit=100", token, nil, &raw); err != nil {
		return nil, err
	}
	vendors := make([]models.Vendor, len(raw))
	for i := range raw {
		vendors[i] = raw[i].toVendor()
	}
	return vendors, nil
}

func (c *Client) GetKantin(ctx context.Context, token string, id int64) (*models.KantinProfile, error) {
	var raw rawKantin
	if err := c.request(ctx, http.MethodGet, "/kantin/"+strconv.FormatInt(id, 10), token, nil, &raw); err != nil {
		return nil, err
	}
	return raw.toModel(), nil
}

func (c *Client) RegisterKantin(ctx context.Context, name, email, password string) error {
	body := map[string]string{
		"nama_kantin": name,
		"email":       email,
		"password":    password,
	}
	return c.request(ctx, http.MethodPost, "/kantin/", "", body, nil)
}

// KantinProfileInput carries the fields the completion gate and the profile
// editor submit for the kantin role.
type KantinProfileInput struct {
	TenantName     string `json:"nama_tenant"`
	OwnerName      string `json:"nama_pemilik"`
	OwnerPhone     string `json:"nomor_pemilik"`
	OperatingHours string `json:"jam_operasional"`
}

func (c *Client) CompleteKantinProfile(ctx context.Context, token string, in KantinProfileInput) error {
	return c.request(ctx, http.MethodPut, "/kantin/complete-profile", token, in, nil)
}

func (c *Client) KantinProfileStatus(ctx context.Context, token string) (bool, error) {
	var out struct {
		ProfileComplete bool `json:"is_profile_complete"`
	}
	if err := c.request(ctx, http.MethodGet, "/kantin/profile-status", token, nil, &out); err != nil {
		return false, err
	}
	return out.ProfileComplete, nil
}

func (c *Client) RegisterStudent(ctx context.Context, name, nim, email, password string) error {
	body := map[string]string{
		"nama":     name,
		"nim":      nim,
		"email":    email,
		"password": password,
	}
	return c.request(ctx, http.MethodPost, "/mahasiswa/", "", body, nil)
}

func (c *Client) CompleteStudentProfile(ctx context.Context, token, deliveryAddress, phone string) error {
	body := map[string]string{
		"alamat_pengiriman": deliveryAddress,
		"nomor_hp":          phone,
	}
	return c.request(ctx, http.MethodPut, "/mahasiswa/complete-profile", token, body, nil)
}

func (c *Client) StudentProfileStatus(ctx context.Context, token string) (bool, error) {
	var out struct {
		ProfileComplete bool `json:"is_profile_complete"`
	}
	if err := c.request(ctx, http.MethodGet, "/mahasiswa/profile-status", token, nil, &out); err != nil {
		return false, err
	}
	return out.ProfileComplete, nil
}

func (c *Client) ListMenu(ctx context.Context, token string) ([]models.MenuItem, error) {
	var raw []rawMenu
	if err := c.request(ctx, http.MethodGet, "/menu/?skip=0&limit=100", token, nil, &raw); err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, len(raw))
	for i := range raw {
		items[i] = raw[i].toModel()
	}
	return items, nil
}

func (c *Client) ListMenuByKantin(ctx context.Context, token string, kantinID int64) ([]models.MenuItem, error) {
	var raw []rawMenu
	path := fmt.Sprintf("/menu/kantin/%d", kantinID)
	if err := c.request(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, len(raw))
	for i := range raw {
		items[i] = raw[i].toModel()
	}
	return items, nil
}

// MenuInput is a menu create/update payload. Type uses the internal enum
// ("food", "drink", "snack"); the wire value is translated here.
type MenuInput struct {
	Name        string
	Description string
	Price       int64
	Type        string
}

func (in MenuInput) wire() map[string]interface{} {
	return map[string]interface{}{
		"nama_menu": in.Name,
		"deskripsi": in.Description,
		"harga":     in.Price,
		"tipe_menu": menuTypeToWire(in.Type),
	}
}

func (c *Client) CreateMenu(ctx context.Context, token string, in MenuInput) (models.MenuItem, error) {
	var raw rawMenu
	if err := c.request(ctx, http.MethodPost, "/menu/", token, in.wire(), &raw); err != nil {
		return models.MenuItem{}, err
	}
	return raw.toModel(), nil
}

// CreateMenuWithImage posts the menu fields plus the image as multipart form
// data to /menu/with-image.
func (c *Client) CreateMenuWithImage(ctx context.Context, token string, in MenuInput, filename string, image io.Reader) (models.MenuItem, error) {
	fields := map[string]string{
		"nama_menu": in.Name,
		"deskripsi": in.Description,
		"harga":     strconv.FormatInt(in.Price, 10),
		"tipe_menu": menuTypeToWire(in.Type),
	}
	var raw rawMenu
	if err := c.upload(ctx, "/menu/with-image", token, fields, "image", filename, image, &raw); err != nil {
		return models.MenuItem{}, err
	}
	return raw.toModel(), nil
}

func (c *Client) UpdateMenu(ctx context.Context, token string, id int64, in MenuInput) error {
	return c.request(ctx, http.MethodPut, "/menu/"+strconv.FormatInt(id, 10), token, in.wire(), nil)
}

func (c *Client) DeleteMenu(ctx context.Context, token string, id int64) error {
	return c.request(ctx, http.MethodDelete, "/menu/"+strconv.FormatInt(id, 10), token, nil, nil)
}
