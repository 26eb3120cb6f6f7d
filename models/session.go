package models

const (
	RoleStudent = "mahasiswa"
	RoleKantin  = "kantin"
)

// Session is the authenticated identity for one chat. Persisted alongside the
// raw token in the local state store; destroyed on logout.
type Session struct {
	UserID          int64  `json:"user_id"`
	Role            string `json:"role"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	ProfileComplete bool   `json:"profile_complete"`
	Token           string `json:"-"`
}

// StudentProfile mirrors the mahasiswa record as the API exposes it.
type StudentProfile struct {
	ID              int64
	Name            string
	NIM             string
	Email           string
	DeliveryAddress string
	Phone           string
	ProfileComplete bool
}

// KantinProfile mirrors the kantin record as the API exposes it.
type KantinProfile struct {
	ID              int64
	Name            string
	Email           string
	TenantName      string
	OwnerName       string
	OwnerPhone      string
	OperatingHours  string
	ProfileComplete bool
}
