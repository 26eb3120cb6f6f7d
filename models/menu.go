package models

// MenuItem is one dish or drink a kantin sells. Prices are rupiah (no cents).
type MenuItem struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Type        string // "food", "drink", "snack"
	VendorID    int64
	ImageRef    string
}

const (
	TypeFood  = "food"
	TypeDrink = "drink"
	TypeSnack = "snack"
)

// Vendor is a kantin stall. Read-mostly; only the kantin role edits its own fields.
type Vendor struct {
	ID              int64
	Name            string
	OwnerName       string
	OwnerPhone      string
	OperatingHours  string
	ProfileComplete bool
}
