package services

import (
	"testing"

	"kudakan-telegram/models"
)

func sampleCatalog() []CatalogItem {
	items := []models.MenuItem{
		{ID: 1, Name: "Nasi Goreng Spesial", Description: "Pedas, pakai telur", Price: 15000, Type: models.TypeFood, VendorID: 10},
		{ID: 2, Name: "Es Teh Manis", Description: "Dingin", Price: 5000, Type: models.TypeDrink, VendorID: 10},
		{ID: 3, Name: "Risol Mayo", Description: "Gorengan", Price: 3000, Type: models.TypeSnack, VendorID: 20},
		{ID: 4, Name: "Nasi Uduk", Description: "", Price: 12000, Type: models.TypeFood, VendorID: 99},
	}
	vendors := []models.Vendor{
		{ID: 10, Name: "Kantin Bu Sri"},
		{ID: 20, Name: "Kantin Teknik"},
	}
	return JoinVendors(items, vendors)
}

func TestJoinVendorsPlaceholder(t *testing.T) {
	joined := sampleCatalog()
	if len(joined) != 4 {
		t.Fatalf("join dropped items: got %d, want 4", len(joined))
	}
	for _, it := range joined {
		switch it.VendorID {
		case 10:
			if it.VendorName != "Kantin Bu Sri" {
				t.Errorf("item %d vendor name = %q", it.ID, it.VendorName)
			}
		case 99:
			if it.VendorName != PlaceholderVendorName {
				t.Errorf("unknown vendor must get placeholder, got %q", it.VendorName)
			}
		}
	}
}

func TestFilterItems(t *testing.T) {
	items := sampleCatalog()
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"no filter", Filter{}, []int64{1, 2, 3, 4}},
		{"search name case-insensitive", Filter{Search: "NASI"}, []int64{1, 4}},
		{"search description", Filter{Search: "pedas"}, []int64{1}},
		{"search vendor name", Filter{Search: "teknik"}, []int64{3}},
		{"search no match", Filter{Search: "bakso"}, nil},
		{"type food", Filter{Type: models.TypeFood}, []int64{1, 4}},
		{"type drink", Filter{Type: models.TypeDrink}, []int64{2}},
		{"vendor", Filter{VendorID: 10}, []int64{1, 2}},
		{"vendor without items", Filter{VendorID: 55}, nil},
		{"combined", Filter{Search: "nasi", Type: models.TypeFood, VendorID: 10}, []int64{1}},
		{"combined excludes", Filter{Search: "nasi", VendorID: 20}, nil},
	}
	for _, tt := range tests {
		got := FilterItems(items, tt.filter)
		var ids []int64
		for _, it := range got {
			ids = append(ids, it.ID)
		}
		if len(ids) != len(tt.want) {
			t.Errorf("%s: got ids %v, want %v", tt.name, ids, tt.want)
			continue
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("%s: got ids %v, want %v", tt.name, ids, tt.want)
				break
			}
		}
	}
}

func TestFilterItemsDoesNotMutateSource(t *testing.T) {
	items := sampleCatalog()
	before := len(items)
	_ = FilterItems(items, Filter{Type: models.TypeSnack})
	_ = FilterItems(items, Filter{Search: "es"})
	if len(items) != before {
		t.Errorf("source slice changed length: %d -> %d", before, len(items))
	}
	if items[0].ID != 1 || items[3].ID != 4 {
		t.Error("source slice order changed")
	}
}
