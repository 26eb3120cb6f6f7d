package services

import (
	"context"
	"strings"
	"sync"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
)

// PlaceholderVendorName is shown for a menu item whose kantin is missing
// from the vendor list; the join never fails.
const PlaceholderVendorName = "Kantin Tidak Dikenal"

// CatalogItem is a menu item joined with its vendor's display name.
type CatalogItem struct {
	models.MenuItem
	VendorName string
}

// Filter holds the three independent catalog filters. Zero values mean
// "no filter" (show everything).
type Filter struct {
	Search   string // case-insensitive substring on name/description/vendor
	Type     string // exact menu type
	VendorID int64  // exact kantin
}

// FetchCatalog loads the full kantin and menu lists concurrently and joins
// menu items to vendor names client-side.
func FetchCatalog(ctx context.Context, client *api.Client, token string) ([]CatalogItem, []models.Vendor, error) {
	var (
		wg         sync.WaitGroup
		vendors    []models.Vendor
		items      []models.MenuItem
		vErr, mErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vendors, vErr = client.ListKantin(ctx, token)
	}()
	go func() {
		defer wg.Done()
		items, mErr = client.ListMenu(ctx, token)
	}()
	wg.Wait()
	if vErr != nil {
		return nil, nil, vErr
	}
	if mErr != nil {
		return nil, nil, mErr
	}
	return JoinVendors(items, vendors), vendors, nil
}

// JoinVendors attaches vendor display names to menu items. Unknown vendor
// ids get a placeholder name.
func JoinVendors(items []models.MenuItem, vendors []models.Vendor) []CatalogItem {
	names := make(map[int64]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}
	out := make([]CatalogItem, len(items))
	for i, it := range items {
		name, ok := names[it.VendorID]
		if !ok || name == "" {
			name = PlaceholderVendorName
		}
		out[i] = CatalogItem{MenuItem: it, VendorName: name}
	}
	return out
}

// FilterItems applies the three filters in memory. Pure: the source slice is
// never mutated, and the result is re-derived on every call.
func FilterItems(items []CatalogItem, f Filter) []CatalogItem {
	out := make([]CatalogItem, 0, len(items))
	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, it := range items {
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Name), term) &&
			!strings.Contains(strings.ToLower(it.Description), term) &&
			!strings.Contains(strings.ToLower(it.VendorName), term) {
			continue
		}
		if f.Type != "" && it.Type != f.Type {
			continue
		}
		if f.VendorID != 0 && it.VendorID != f.VendorID {
			continue
		}
		out = append(out, it)
	}
	return out
}
