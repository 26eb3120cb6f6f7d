package services

import (
	"context"
	"sort"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
)

// OrderPlacer is the slice of the gateway checkout needs; tests substitute a
// fake.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, token string, in api.CreateOrderInput) (models.Order, error)
}

// VendorGroup is the cart lines destined for one kantin.
type VendorGroup struct {
	VendorID int64
	Lines    []models.CartLine
}

// GroupResult is the outcome of one vendor group's order submission.
type GroupResult struct {
	VendorID int64
	Order    models.Order
	Err      error
}

// GroupByVendor splits cart lines into one group per kantin, ordered by
// vendor id so submission order is deterministic.
func GroupByVendor(lines []models.CartLine) []VendorGroup {
	byVendor := make(map[int64][]models.CartLine)
	for _, l := range lines {
		byVendor[l.VendorID] = append(byVendor[l.VendorID], l)
	}
	ids := make([]int64, 0, len(byVendor))
	for id := range byVendor {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	groups := make([]VendorGroup, len(ids))
	for i, id := range ids {
		groups[i] = VendorGroup{VendorID: id, Lines: byVendor[id]}
	}
	return groups
}

// Checkout submits one order per vendor group. Best effort across groups:
// every group is attempted and per-group failures are returned for display,
// so partial success is surfaced rather than swallowed. The caller clears
// the cart and refetches the order list when at least one group succeeded.
func Checkout(ctx context.Context, placer OrderPlacer, token string, lines []models.CartLine) []GroupResult {
	groups := GroupByVendor(lines)
	results := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		in := api.CreateOrderInput{VendorID: g.VendorID}
		for _, l := range g.Lines {
			in.Lines = append(in.Lines, api.OrderLineInput{
				MenuItemID: l.MenuItemID,
				Quantity:   l.Quantity,
			})
		}
		order, err := placer.CreateOrder(ctx, token, in)
		results = append(results, GroupResult{VendorID: g.VendorID, Order: order, Err: err})
	}
	return results
}

// AnySuccess reports whether at least one group's order was created.
func AnySuccess(results []GroupResult) bool {
	for _, r := range results {
		if r.Err == nil {
			return true
		}
	}
	return false
}
