package services

import (
	"context"
	"errors"
	"testing"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
)

type fakePlacer struct {
	calls  []api.CreateOrderInput
	failOn map[int64]error
	nextID int64
}

func (f *fakePlacer) CreateOrder(ctx context.Context, token string, in api.CreateOrderInput) (models.Order, error) {
	f.calls = append(f.calls, in)
	if err, ok := f.failOn[in.VendorID]; ok {
		return models.Order{}, err
	}
	f.nextID++
	return models.Order{ID: f.nextID, VendorID: in.VendorID, Status: models.OrderStatusInProgress}, nil
}

func cartLine(lineID string, menuID, vendorID int64, qty int) models.CartLine {
	return models.CartLine{LineID: lineID, MenuItemID: menuID, VendorID: vendorID, Quantity: qty}
}

func TestGroupByVendor(t *testing.T) {
	lines := []models.CartLine{
		cartLine("a", 1, 20, 1),
		cartLine("b", 2, 10, 1),
		cartLine("c", 3, 20, 2),
	}
	groups := GroupByVendor(lines)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].VendorID != 10 || groups[1].VendorID != 20 {
		t.Errorf("groups not ordered by vendor id: %d, %d", groups[0].VendorID, groups[1].VendorID)
	}
	if len(groups[0].Lines) != 1 || len(groups[1].Lines) != 2 {
		t.Errorf("group sizes = %d/%d, want 1/2", len(groups[0].Lines), len(groups[1].Lines))
	}
}

func TestCheckoutOneOrderPerVendor(t *testing.T) {
	placer := &fakePlacer{}
	lines := []models.CartLine{
		cartLine("a", 1, 10, 1),
		cartLine("b", 2, 10, 2),
		cartLine("c", 3, 20, 1),
	}
	results := Checkout(context.Background(), placer, "tok", lines)

	if len(placer.calls) != 2 {
		t.Fatalf("CreateOrder called %d times, want 2 (one per vendor)", len(placer.calls))
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	first := placer.calls[0]
	if first.VendorID != 10 || len(first.Lines) != 2 {
		t.Errorf("vendor 10 order: got vendor %d with %d lines, want 10 with 2", first.VendorID, len(first.Lines))
	}
	if first.Lines[1].MenuItemID != 2 || first.Lines[1].Quantity != 2 {
		t.Errorf("line carried wrong item/quantity: %+v", first.Lines[1])
	}
	if !AnySuccess(results) {
		t.Error("AnySuccess = false, want true")
	}
}

func TestCheckoutPartialFailure(t *testing.T) {
	boom := errors.New("boom")
	placer := &fakePlacer{failOn: map[int64]error{10: boom}}
	lines := []models.CartLine{
		cartLine("a", 1, 10, 1),
		cartLine("b", 2, 20, 1),
		cartLine("c", 3, 30, 1),
	}
	results := Checkout(context.Background(), placer, "tok", lines)

	if len(placer.calls) != 3 {
		t.Fatalf("all groups must be attempted, got %d calls", len(placer.calls))
	}
	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.VendorID != 10 {
				t.Errorf("unexpected failing vendor %d", r.VendorID)
			}
		} else {
			succeeded++
			if r.Order.ID == 0 {
				t.Errorf("successful result for vendor %d carries no order", r.VendorID)
			}
		}
	}
	if failed != 1 || succeeded != 2 {
		t.Errorf("failed/succeeded = %d/%d, want 1/2", failed, succeeded)
	}
	if !AnySuccess(results) {
		t.Error("AnySuccess = false, want true on partial success")
	}
}

func TestCheckoutAllFailed(t *testing.T) {
	boom := errors.New("boom")
	placer := &fakePlacer{failOn: map[int64]error{10: boom}}
	results := Checkout(context.Background(), placer, "tok", []models.CartLine{cartLine("a", 1, 10, 1)})
	if AnySuccess(results) {
		t.Error("AnySuccess = true, want false when every group failed")
	}
}
