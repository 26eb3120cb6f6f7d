package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"kudakan-telegram/models"
)

// flexInt64 tolerates ids and prices arriving as numbers or strings.
type flexInt64 int64

func (n *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		v = int64(f)
	}
	*n = flexInt64(v)
	return nil
}

type rawStudent struct {
	ID              flexInt64 `json:"id_mahasiswa"`
	Name            string    `json:"nama"`
	NameAlt         string    `json:"nama_mahasiswa"`
	NIM             string    `json:"nim"`
	Email           string    `json:"email"`
	DeliveryAddress string    `json:"alamat_pengiriman"`
	Phone           string    `json:"nomor_hp"`
	ProfileComplete bool      `json:"is_profile_complete"`
}

func (r *rawStudent) toModel() *models.StudentProfile {
	name := r.Name
	if name == "" {
		name = r.NameAlt
	}
	return &models.StudentProfile{
		ID:              int64(r.ID),
		Name:            name,
		NIM:             r.NIM,
		Email:           r.Email,
		DeliveryAddress: r.DeliveryAddress,
		Phone:           r.Phone,
		ProfileComplete: r.ProfileComplete,
	}
}

type rawKantin struct {
	ID              flexInt64 `json:"id_kantin"`
	Name            string    `json:"nama_kantin"`
	Email           string    `json:"email"`
	TenantName      string    `json:"nama_tenant"`
	OwnerName       string    `json:"nama_pemilik"`
	OwnerPhone      string    `json:"nomor_pemilik"`
	OperatingHours  string    `json:"jam_operasional"`
	ProfileComplete bool      `json:"is_profile_complete"`
}

func (r *rawKantin) toModel() *models.KantinProfile {
	return &models.KantinProfile{
		ID:              int64(r.ID),
		Name:            r.Name,
		Email:           r.Email,
		TenantName:      r.TenantName,
		OwnerName:       r.OwnerName,
		OwnerPhone:      r.OwnerPhone,
		OperatingHours:  r.OperatingHours,
		ProfileComplete: r.ProfileComplete,
	}
}

func (r *rawKantin) toVendor() models.Vendor {
	return models.Vendor{
		ID:              int64(r.ID),
		Name:            r.Name,
		OwnerName:       r.OwnerName,
		OwnerPhone:      r.OwnerPhone,
		OperatingHours:  r.OperatingHours,
		ProfileComplete: r.ProfileComplete,
	}
}

type rawMenu struct {
	ID          flexInt64 `json:"id_menu"`
	Name        string    `json:"nama_menu"`
	Description string    `json:"deskripsi"`
	Price       flexInt64 `json:"harga"`
	Type        string    `json:"tipe_menu"`
	VendorID    flexInt64 `json:"id_kantin"`
	ImageRef    string    `json:"gambar"`
}

func (r *rawMenu) toModel() models.MenuItem {
	return models.MenuItem{
		ID:          int64(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Price:       int64(r.Price),
		Type:        menuTypeFromWire(r.Type),
		VendorID:    int64(r.VendorID),
		ImageRef:    r.ImageRef,
	}
}

// The backend speaks Indonesian enums; the rest of the app does not.
func menuTypeFromWire(t string) string {
	switch strings.ToLower(t) {
	case "makanan", models.TypeFood:
		return models.TypeFood
	case "minuman", models.TypeDrink:
		return models.TypeDrink
	default:
		return models.TypeSnack
	}
}

func menuTypeToWire(t string) string {
	switch t {
	case models.TypeFood:
		return "makanan"
	case models.TypeDrink:
		return "minuman"
	default:
		return "snack"
	}
}

type rawOrder struct {
	ID        flexInt64 `json:"id_pesanan"`
	VendorID  flexInt64 `json:"id_kantin"`
	BuyerID   flexInt64 `json:"id_mahasiswa"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"created_at"`
}

func (r *rawOrder) toModel() models.Order {
	return models.Order{
		ID:        int64(r.ID),
		VendorID:  int64(r.VendorID),
		BuyerID:   int64(r.BuyerID),
		Status:    orderStatusFromWire(r.Status),
		CreatedAt: parseTime(r.CreatedAt),
	}
}

type rawOrderLine struct {
	MenuItemID flexInt64 `json:"id_menu"`
	Name       string    `json:"nama_menu"`
	Quantity   flexInt64 `json:"jumlah"`
	Subtotal   flexInt64 `json:"subtotal"`
	Menu       *rawMenu  `json:"menu"`
}

func (r *rawOrderLine) toModel() models.OrderLine {
	name := r.Name
	id := int64(r.MenuItemID)
	if r.Menu != nil {
		if name == "" {
			name = r.Menu.Name
		}
		if id == 0 {
			id = int64(r.Menu.ID)
		}
	}
	return models.OrderLine{
		MenuItemID: id,
		Name:       name,
		Quantity:   int(r.Quantity),
		Subtotal:   int64(r.Subtotal),
	}
}

// orderStatusFromWire folds every observed status spelling into the two
// states the client knows: in progress until marked done.
func orderStatusFromWire(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "selesai", "done", "completed":
		return models.OrderStatusDone
	default:
		return models.OrderStatusInProgress
	}
}

func orderStatusToWire(s string) string {
	if s == models.OrderStatusDone {
		return "selesai"
	}
	return "diproses"
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Identity is the normalized result of /auth/login and /auth/me: exactly one
// of Student or Kantin is set.
type Identity struct {
	Role    string
	Student *models.StudentProfile
	Kantin  *models.KantinProfile
}

// normalizeIdentity flattens the duck-shaped identity payloads: role data is
// sometimes nested under a "mahasiswa"/"kantin" key, sometimes under
// "user_info", sometimes at the top level.
func normalizeIdentity(raw json.RawMessage, roleHint string) (*Identity, error) {
	var shell struct {
		UserType  string          `json:"user_type"`
		Type      string          `json:"type"`
		UserInfo  json.RawMessage `json:"user_info"`
		Mahasiswa *rawStudent     `json:"mahasiswa"`
		Kantin    *rawKantin      `json:"kantin"`
	}
	if err := json.Unmarshal(raw, &shell); err != nil {
		return nil, err
	}

	role := shell.UserType
	if role == "" {
		role = shell.Type
	}
	if role == "" {
		role = roleHint
	}

	if shell.Mahasiswa != nil {
		return &Identity{Role: models.RoleStudent, Student: shell.Mahasiswa.toModel()}, nil
	}
	if shell.Kantin != nil {
		return &Identity{Role: models.RoleKantin, Kantin: shell.Kantin.toModel()}, nil
	}
	if len(shell.UserInfo) > 0 {
		return normalizeIdentity(shell.UserInfo, role)
	}

	// Flattened: the role fields sit on the top-level object.
	var student rawStudent
	var kantin rawKantin
	if err := json.Unmarshal(raw, &student); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &kantin); err != nil {
		return nil, err
	}
	switch {
	case role == models.RoleStudent, student.ID != 0 && kantin.ID == 0:
		return &Identity{Role: models.RoleStudent, Student: student.toModel()}, nil
	case role == models.RoleKantin, kantin.ID != 0:
		return &Identity{Role: models.RoleKantin, Kantin: kantin.toModel()}, nil
	}
	return nil, errUnknownIdentity
}
