package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kudakan-telegram/models"
	"kudakan-telegram/services"
	"kudakan-telegram/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func typeLabel(t string) string {
	switch t {
	case models.TypeFood:
		return "Makanan"
	case models.TypeDrink:
		return "Minuman"
	case models.TypeSnack:
		return "Snack"
	}
	return t
}

func formatRupiah(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "Rp" + b.String()
}

// showHome is the landing screen for guests and the entry point after a
// forced logout. Guests can still browse the catalog.
func (b *Bot) showHome(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session != nil {
		b.sessions.SaveLastView(ctx, chatID, store.ViewHome)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	text := "Selamat datang di Kudakan, kantin kampus dalam genggaman.\n\nLihat menu tanpa login, atau masuk untuk mulai memesan."
	if session != nil {
		text = fmt.Sprintf("Halo, %s!", session.DisplayName)
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🍽 Lihat Menu", cbCatalog)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Dashboard", cbDashboard)),
		)
	} else {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🍽 Lihat Menu", cbCatalog)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔑 Login", cbLogin)),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Daftar Mahasiswa", cbRegisterStudent),
				tgbotapi.NewInlineKeyboardButtonData("Daftar Kantin", cbRegisterKantin),
			),
		)
	}
	b.sendKb(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showDashboard is the authenticated hub. An incomplete profile interposes
// the completion gate; "Nanti" lands on renderDashboard directly, and the
// gate reappears the next time the dashboard is entered.
func (b *Bot) showDashboard(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		b.showHome(ctx, chatID)
		return
	}
	if !session.ProfileComplete {
		b.sessions.SaveLastView(ctx, chatID, store.ViewDashboard)
		b.showProfileGate(chatID, session)
		return
	}
	b.renderDashboard(ctx, chatID)
}

// renderDashboard draws the role-specific hub without the gate check.
func (b *Bot) renderDashboard(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		b.showHome(ctx, chatID)
		return
	}
	b.sessions.SaveLastView(ctx, chatID, store.ViewDashboard)

	var rows [][]tgbotapi.InlineKeyboardButton
	if session.Role == models.RoleKantin {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📥 Pesanan Masuk", cbKantinOrders)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🍽 Kelola Menu", cbKantinMenu)),
		)
	} else {
		cart := b.carts.Get(chatID)
		cartLabel := "🛒 Keranjang"
		if n := cart.Len(); n > 0 {
			cartLabel = fmt.Sprintf("🛒 Keranjang (%d)", n)
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🍽 Lihat Menu", cbCatalog)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(cartLabel, cbCart)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📦 Pesanan Saya", cbOrders)),
		)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("👤 Profil", cbProfile)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚪 Logout", cbLogout)),
	)
	text := fmt.Sprintf("Dashboard %s\n%s", session.DisplayName, session.Email)
	b.sendKb(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// showCatalog fetches the full catalog and renders it through the chat's
// active filters. The fetch is repeated on every entry so the listing stays
// fresh; the filters survive between entries.
func (b *Bot) showCatalog(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	token := ""
	if session != nil {
		token = session.Token
	}

	items, vendors, err := services.FetchCatalog(ctx, b.gw, token)
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}

	b.catalogMu.Lock()
	st, ok := b.catalogs[chatID]
	if !ok {
		st = &catalogState{}
		b.catalogs[chatID] = st
	}
	st.items = items
	st.vendors = vendors
	b.catalogMu.Unlock()

	b.renderCatalog(ctx, chatID)
}

func (b *Bot) catalogStateFor(chatID int64) *catalogState {
	b.catalogMu.Lock()
	defer b.catalogMu.Unlock()
	st, ok := b.catalogs[chatID]
	if !ok {
		st = &catalogState{}
		b.catalogs[chatID] = st
	}
	return st
}

// renderCatalog re-applies the filters to the last fetched items and draws
// the listing. Each visible item gets its own message with an add button for
// logged-in students.
func (b *Bot) renderCatalog(ctx context.Context, chatID int64) {
	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	items := st.items
	filter := st.filter
	vendors := st.vendors
	b.catalogMu.Unlock()

	visible := services.FilterItems(items, filter)

	var header strings.Builder
	header.WriteString("🍽 Menu Kudakan")
	var active []string
	if filter.Search != "" {
		active = append(active, "cari: "+filter.Search)
	}
	if filter.Type != "" {
		active = append(active, "tipe: "+typeLabel(filter.Type))
	}
	if filter.VendorID != 0 {
		name := services.PlaceholderVendorName
		for _, v := range vendors {
			if v.ID == filter.VendorID {
				name = v.Name
				break
			}
		}
		active = append(active, "kantin: "+name)
	}
	if len(active) > 0 {
		header.WriteString("\nFilter aktif: " + strings.Join(active, ", "))
	}
	header.WriteString(fmt.Sprintf("\n%d menu ditampilkan", len(visible)))

	b.sendKb(chatID, header.String(), b.catalogFilterKeyboard(vendors, filter))

	if len(visible) == 0 {
		b.send(chatID, "Tidak ada menu yang cocok dengan filter.")
		return
	}

	session := b.sessions.Current(chatID)
	canOrder := session != nil && session.Role == models.RoleStudent
	for _, it := range visible {
		text := fmt.Sprintf("%s — %s\n%s\n%s · %s", it.Name, formatRupiah(it.Price), it.Description, typeLabel(it.Type), it.VendorName)
		if canOrder {
			kb := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("➕ Tambah", cbAddPrefix+strconv.FormatInt(it.ID, 10)),
				),
			)
			b.sendKb(chatID, text, kb)
		} else {
			b.send(chatID, text)
		}
	}

	if canOrder {
		cart := b.carts.Get(chatID)
		footer := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 Keranjang (%d)", cart.Len()), cbCart),
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard),
			),
		)
		b.sendKb(chatID, "Pilih menu di atas untuk ditambahkan.", footer)
	}
}

func (b *Bot) catalogFilterKeyboard(vendors []models.Vendor, f services.Filter) tgbotapi.InlineKeyboardMarkup {
	typeRow := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Makanan", cbTypeFilterPrefix+models.TypeFood),
		tgbotapi.NewInlineKeyboardButtonData("Minuman", cbTypeFilterPrefix+models.TypeDrink),
		tgbotapi.NewInlineKeyboardButtonData("Snack", cbTypeFilterPrefix+models.TypeSnack),
	)
	rows := [][]tgbotapi.InlineKeyboardButton{typeRow}

	var vendorRow []tgbotapi.InlineKeyboardButton
	for _, v := range vendors {
		vendorRow = append(vendorRow, tgbotapi.NewInlineKeyboardButtonData(
			v.Name, cbVendorFilterPrefix+strconv.FormatInt(v.ID, 10)))
		if len(vendorRow) == 2 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(vendorRow...))
			vendorRow = nil
		}
	}
	if len(vendorRow) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(vendorRow...))
	}

	controlRow := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🔍 Cari", cbCatalogSearch),
	}
	if f.Search != "" || f.Type != "" || f.VendorID != 0 {
		controlRow = append(controlRow, tgbotapi.NewInlineKeyboardButtonData("✖️ Hapus Filter", cbCatalogClear))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(controlRow...))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Toggling an already-active type filter clears it.
func (b *Bot) setTypeFilter(ctx context.Context, chatID int64, t string) {
	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	if st.filter.Type == t {
		st.filter.Type = ""
	} else {
		st.filter.Type = t
	}
	b.catalogMu.Unlock()
	b.renderCatalog(ctx, chatID)
}

func (b *Bot) setVendorFilter(ctx context.Context, chatID int64, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	if st.filter.VendorID == id {
		st.filter.VendorID = 0
	} else {
		st.filter.VendorID = id
	}
	b.catalogMu.Unlock()
	b.renderCatalog(ctx, chatID)
}

func (b *Bot) startCatalogSearch(chatID int64) {
	b.setPending(chatID, &pendingInput{Kind: kindSearch, Data: map[string]string{}})
	b.send(chatID, "Ketik kata kunci pencarian (nama menu, deskripsi, atau kantin). /batal untuk membatalkan.")
}

func (b *Bot) applyCatalogSearch(ctx context.Context, chatID int64, term string) {
	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	st.filter.Search = term
	b.catalogMu.Unlock()
	b.clearPending(chatID)
	b.renderCatalog(ctx, chatID)
}

func (b *Bot) clearCatalogFilter(ctx context.Context, chatID int64) {
	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	st.filter = services.Filter{}
	b.catalogMu.Unlock()
	b.renderCatalog(ctx, chatID)
}

// addToCart resolves the tapped menu item from the last fetched catalog and
// appends a new cart line. Requires a logged-in student.
func (b *Bot) addToCart(ctx context.Context, chatID int64, raw string) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleStudent {
		b.send(chatID, "Login sebagai mahasiswa untuk memesan.")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}

	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	var found *services.CatalogItem
	for i := range st.items {
		if st.items[i].ID == id {
			found = &st.items[i]
			break
		}
	}
	b.catalogMu.Unlock()
	if found == nil {
		b.send(chatID, "Menu tidak ditemukan, muat ulang daftar menu.")
		return
	}

	cart := b.carts.Get(chatID)
	cart.AddItem(found.MenuItem)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 Keranjang (%d)", cart.Len()), cbCart),
		),
	)
	b.sendKb(chatID, fmt.Sprintf("%s ditambahkan ke keranjang.", found.Name), kb)
}

// showCart renders the cart lines, each with its own remove button, plus the
// running total and the checkout action.
func (b *Bot) showCart(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleStudent {
		b.send(chatID, "Login sebagai mahasiswa untuk melihat keranjang.")
		return
	}

	cart := b.carts.Get(chatID)
	lines := cart.Lines()
	if len(lines) == 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🍽 Lihat Menu", cbCatalog)),
		)
		b.sendKb(chatID, "Keranjang Anda kosong.", kb)
		return
	}

	var text strings.Builder
	text.WriteString("🛒 Keranjang\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, l := range lines {
		text.WriteString(fmt.Sprintf("%d. %s x%d — %s\n", i+1, l.Name, l.Quantity, formatRupiah(l.UnitPrice*int64(l.Quantity))))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 Hapus %d. %s", i+1, l.Name), cbRemovePrefix+l.LineID),
		))
	}
	text.WriteString(fmt.Sprintf("\nTotal: %s", formatRupiah(cart.Total())))
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Checkout", cbCheckout)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard)),
	)
	b.sendKb(chatID, text.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) removeFromCart(ctx context.Context, chatID int64, lineID string) {
	cart := b.carts.Get(chatID)
	if !cart.Remove(lineID) {
		b.send(chatID, "Item sudah tidak ada di keranjang.")
	}
	b.showCart(ctx, chatID)
}

// checkout submits one order per kantin in the cart. Per-kantin failures are
// reported individually; if anything succeeded the cart is cleared and the
// order list is refetched.
func (b *Bot) checkout(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleStudent {
		b.send(chatID, "Login sebagai mahasiswa untuk checkout.")
		return
	}
	cart := b.carts.Get(chatID)
	lines := cart.Lines()
	if len(lines) == 0 {
		b.send(chatID, "Keranjang Anda kosong.")
		return
	}

	results := services.Checkout(ctx, b.gw, session.Token, lines)

	vendorNames := make(map[int64]string)
	st := b.catalogStateFor(chatID)
	b.catalogMu.Lock()
	for _, v := range st.vendors {
		vendorNames[v.ID] = v.Name
	}
	b.catalogMu.Unlock()

	var report strings.Builder
	for _, r := range results {
		name, ok := vendorNames[r.VendorID]
		if !ok {
			name = fmt.Sprintf("Kantin #%d", r.VendorID)
		}
		if r.Err != nil {
			if b.sessions.Expired(ctx, chatID, r.Err) {
				b.forceLogout(ctx, chatID)
				return
			}
			report.WriteString(fmt.Sprintf("❌ %s: pesanan gagal dibuat\n", name))
		} else {
			report.WriteString(fmt.Sprintf("✅ %s: pesanan #%d dibuat\n", name, r.Order.ID))
		}
	}

	if services.AnySuccess(results) {
		cart.Clear()
	}
	b.send(chatID, report.String())
	b.showOrders(ctx, chatID)
}

// showOrders lists the student's orders with per-order totals.
func (b *Bot) showOrders(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		b.send(chatID, "Login untuk melihat pesanan.")
		return
	}
	if session.Role == models.RoleKantin {
		b.showKantinOrders(ctx, chatID)
		return
	}

	summaries, err := services.FetchOrderSummaries(ctx, b.gw, session)
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Muat Ulang", cbOrders),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard),
		),
	)
	if len(summaries) == 0 {
		b.sendKb(chatID, "Belum ada pesanan.", kb)
		return
	}
	b.sendKb(chatID, renderOrderList("📦 Pesanan Saya", summaries), kb)
}

func statusLabel(status string) string {
	if status == models.OrderStatusDone {
		return "✅ Selesai"
	}
	return "⏳ Diproses"
}

func renderOrderList(title string, summaries []services.OrderSummary) string {
	var text strings.Builder
	text.WriteString(title + "\n")
	for _, s := range summaries {
		text.WriteString(fmt.Sprintf("\nPesanan #%d — %s\n", s.Order.ID, statusLabel(s.Order.Status)))
		for _, l := range s.Lines {
			text.WriteString(fmt.Sprintf("  • %s x%d — %s\n", l.Name, l.Quantity, formatRupiah(l.Subtotal)))
		}
		if s.Total > 0 {
			text.WriteString(fmt.Sprintf("  Total: %s\n", formatRupiah(s.Total)))
		}
	}
	return text.String()
}
