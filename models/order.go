package models

import "time"

const (
	OrderStatusInProgress = "in_progress"
	OrderStatusDone       = "done"
)

// Order always belongs to exactly one vendor; a multi-vendor cart is split
// into one order per kantin at checkout.
type Order struct {
	ID        int64
	VendorID  int64
	BuyerID   int64
	Status    string
	CreatedAt time.Time
}

// OrderLine is one row of an order's detail (detail-pesanan).
type OrderLine struct {
	MenuItemID int64
	Name       string
	Quantity   int
	Subtotal   int64
}

// CartLine lives only in memory for the duration of a session; it is never
// sent to the server until checkout.
type CartLine struct {
	LineID     string // client-local, unique per AddItem call
	MenuItemID int64
	VendorID   int64
	Name       string
	UnitPrice  int64
	Quantity   int
}
