package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
	"kudakan-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showKantinOrders renders the incoming orders screen and starts the poller
// that keeps it fresh while the kantin stays on it. Re-entering the screen
// replaces the previous poller.
func (b *Bot) showKantinOrders(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleKantin {
		b.send(chatID, "Hanya akun kantin yang dapat melihat pesanan masuk.")
		return
	}

	summaries, err := services.FetchOrderSummaries(ctx, b.gw, session)
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}

	text, kb := renderKantinOrders(summaries)
	msgID := b.sendKb(chatID, text, kb)
	b.ordersMsgMu.Lock()
	b.ordersMsg[chatID] = msgID
	b.ordersMsgMu.Unlock()

	poller := services.StartPoller(context.Background(), b.cfg.API.PollInterval, func(pctx context.Context) {
		b.refreshKantinOrders(pctx, chatID)
	})
	b.setPoller(chatID, poller)
}

// refreshKantinOrders is the poll body: refetch and edit the screen message
// in place. Transient fetch errors are skipped. It runs inside the poll
// callback, so teardown must go through requestStopPoller; stopPoller here
// would wait on the very callback that is executing.
func (b *Bot) refreshKantinOrders(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		b.requestStopPoller(chatID)
		return
	}
	summaries, err := services.FetchOrderSummaries(ctx, b.gw, session)
	if err != nil {
		if b.sessions.Expired(ctx, chatID, err) {
			b.requestStopPoller(chatID)
			b.carts.Drop(chatID)
			b.send(chatID, "Sesi Anda telah berakhir. Silakan login kembali.")
			b.showHome(ctx, chatID)
		}
		return
	}

	text, kb := renderKantinOrders(summaries)
	b.ordersMsgMu.Lock()
	msgID := b.ordersMsg[chatID]
	b.ordersMsgMu.Unlock()
	if msgID == 0 {
		return
	}
	newID := b.editKb(chatID, msgID, text, kb)
	if newID != msgID {
		b.ordersMsgMu.Lock()
		b.ordersMsg[chatID] = newID
		b.ordersMsgMu.Unlock()
	}
}

// renderKantinOrders builds the screen text plus one "Selesai" button per
// order still in progress. Done is terminal, so finished orders get no
// button.
func renderKantinOrders(summaries []services.OrderSummary) (string, tgbotapi.InlineKeyboardMarkup) {
	var rows [][]tgbotapi.InlineKeyboardButton
	text := "📥 Pesanan Masuk\n\nBelum ada pesanan."
	if len(summaries) > 0 {
		text = renderOrderList("📥 Pesanan Masuk", summaries)
		for _, s := range summaries {
			if !services.ValidStatusTransition(s.Order.Status, models.OrderStatusDone) {
				continue
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("✅ Selesai #%d", s.Order.ID),
					cbOrderDonePrefix+strconv.FormatInt(s.Order.ID, 10)),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard),
	))
	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) markOrderDone(ctx context.Context, chatID int64, raw string) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleKantin {
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}

	order, _, err := b.gw.OrderWithDetails(ctx, session.Token, id)
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}
	if !services.ValidStatusTransition(order.Status, models.OrderStatusDone) {
		b.send(chatID, fmt.Sprintf("Pesanan #%d sudah selesai.", id))
		b.refreshKantinOrders(ctx, chatID)
		return
	}

	if err := b.gw.UpdateOrderStatus(ctx, session.Token, id, models.OrderStatusDone); err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("Pesanan #%d ditandai selesai.", id))
	b.refreshKantinOrders(ctx, chatID)
}

// showKantinMenu lists the kantin's own menu items with per-item edit and
// delete actions.
func (b *Bot) showKantinMenu(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleKantin {
		b.send(chatID, "Hanya akun kantin yang dapat mengelola menu.")
		return
	}

	items, err := b.gw.ListMenuByKantin(ctx, session.Token, session.UserID)
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}

	b.kantinMenuMu.Lock()
	b.kantinMenus[chatID] = items
	b.kantinMenuMu.Unlock()

	if len(items) == 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Tambah Menu", cbMenuAdd)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard)),
		)
		b.sendKb(chatID, "Belum ada menu. Tambahkan menu pertama Anda.", kb)
		return
	}

	for _, it := range items {
		text := fmt.Sprintf("%s — %s\n%s\n%s", it.Name, formatRupiah(it.Price), it.Description, typeLabel(it.Type))
		idStr := strconv.FormatInt(it.ID, 10)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Ubah", cbMenuEditPrefix+idStr),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Hapus", cbMenuDeletePrefix+idStr),
			),
		)
		b.sendKb(chatID, text, kb)
	}
	footer := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Tambah Menu", cbMenuAdd),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard),
		),
	)
	b.sendKb(chatID, fmt.Sprintf("%d menu terdaftar.", len(items)), footer)
}

func (b *Bot) startMenuAdd(chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleKantin {
		return
	}
	b.setPending(chatID, &pendingInput{Kind: kindMenuAdd, Step: menuAddStepName, Data: map[string]string{}})
	b.send(chatID, "Nama menu? /batal untuk membatalkan.")
}

func (b *Bot) handleMenuAddText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case menuAddStepName:
		if text == "" {
			b.send(chatID, "Nama menu tidak boleh kosong.")
			return
		}
		p.Data["name"] = text
		p.Step = menuAddStepDescription
		b.setPending(chatID, p)
		b.send(chatID, "Deskripsi menu?")
	case menuAddStepDescription:
		p.Data["description"] = text
		p.Step = menuAddStepPrice
		b.setPending(chatID, p)
		b.send(chatID, "Harga (angka, dalam rupiah)?")
	case menuAddStepPrice:
		price, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil || price <= 0 {
			b.send(chatID, "Harga harus berupa angka positif.")
			return
		}
		p.Data["price"] = strconv.FormatInt(price, 10)
		p.Step = menuAddStepType
		b.setPending(chatID, p)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Makanan", cbMenuTypePrefix+models.TypeFood),
				tgbotapi.NewInlineKeyboardButtonData("Minuman", cbMenuTypePrefix+models.TypeDrink),
				tgbotapi.NewInlineKeyboardButtonData("Snack", cbMenuTypePrefix+models.TypeSnack),
			),
		)
		b.sendKb(chatID, "Tipe menu?", kb)
	}
}

func (b *Bot) setMenuAddType(ctx context.Context, chatID int64, t string) {
	p := b.currentPending(chatID)
	if p == nil || p.Kind != kindMenuAdd || p.Step != menuAddStepType {
		return
	}
	switch t {
	case models.TypeFood, models.TypeDrink, models.TypeSnack:
	default:
		return
	}
	p.Data["type"] = t
	p.Step = menuAddStepImage
	b.setPending(chatID, p)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Lewati (tanpa foto)", cbMenuSkipImage),
		),
	)
	b.sendKb(chatID, "Kirim foto menu, atau lewati.", kb)
}

// handleMenuPhoto downloads the largest photo variant from Telegram and
// forwards it as the multipart image.
func (b *Bot) handleMenuPhoto(ctx context.Context, chatID int64, photos []tgbotapi.PhotoSize) {
	photo := photos[len(photos)-1]
	url, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		b.send(chatID, "Gagal mengambil foto, coba kirim ulang.")
		return
	}
	resp, err := http.Get(url)
	if err != nil {
		b.send(chatID, "Gagal mengunduh foto, coba kirim ulang.")
		return
	}
	defer resp.Body.Close()
	b.finishMenuAdd(ctx, chatID, photo.FileID+".jpg", resp.Body)
}

func (b *Bot) finishMenuAdd(ctx context.Context, chatID int64, filename string, image io.Reader) {
	session := b.sessions.Current(chatID)
	p := b.currentPending(chatID)
	if session == nil || p == nil || p.Kind != kindMenuAdd || p.Step != menuAddStepImage {
		return
	}
	b.clearPending(chatID)

	price, _ := strconv.ParseInt(p.Data["price"], 10, 64)
	in := menuInputFromData(p.Data, price)

	var err error
	if image != nil {
		_, err = b.gw.CreateMenuWithImage(ctx, session.Token, in, filename, image)
	} else {
		_, err = b.gw.CreateMenu(ctx, session.Token, in)
	}
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}
	b.send(chatID, fmt.Sprintf("Menu %q ditambahkan.", in.Name))
	b.showKantinMenu(ctx, chatID)
}

// startMenuEdit begins the edit form, pre-seeding the existing values from
// the last fetched listing so the type survives unchanged.
func (b *Bot) startMenuEdit(chatID int64, raw string) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleKantin {
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}

	b.kantinMenuMu.Lock()
	var found *models.MenuItem
	for i, it := range b.kantinMenus[chatID] {
		if it.ID == id {
			found = &b.kantinMenus[chatID][i]
			break
		}
	}
	b.kantinMenuMu.Unlock()
	if found == nil {
		b.send(chatID, "Menu tidak ditemukan, muat ulang daftar menu.")
		return
	}

	b.setPending(chatID, &pendingInput{Kind: kindMenuEdit, Data: map[string]string{
		"id":   raw,
		"type": found.Type,
	}})
	b.send(chatID, fmt.Sprintf("Mengubah %q.\nNama baru? (kirim - untuk mempertahankan)", found.Name))
}

func (b *Bot) handleMenuEditText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	keep := text == "-"
	switch p.Step {
	case 0:
		if !keep {
			p.Data["name"] = text
		}
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, "Deskripsi baru? (kirim - untuk mempertahankan)")
	case 1:
		if !keep {
			p.Data["description"] = text
		}
		p.Step = 2
		b.setPending(chatID, p)
		b.send(chatID, "Harga baru? (kirim - untuk mempertahankan)")
	case 2:
		session := b.sessions.Current(chatID)
		if session == nil {
			b.clearPending(chatID)
			return
		}
		id, _ := strconv.ParseInt(p.Data["id"], 10, 64)

		b.kantinMenuMu.Lock()
		var current models.MenuItem
		for _, it := range b.kantinMenus[chatID] {
			if it.ID == id {
				current = it
				break
			}
		}
		b.kantinMenuMu.Unlock()

		price := current.Price
		if !keep {
			parsed, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
			if err != nil || parsed <= 0 {
				b.send(chatID, "Harga harus berupa angka positif.")
				return
			}
			price = parsed
		}
		b.clearPending(chatID)

		in := menuInputFromData(p.Data, price)
		if in.Name == "" {
			in.Name = current.Name
		}
		if in.Description == "" {
			in.Description = current.Description
		}
		if err := b.gw.UpdateMenu(ctx, session.Token, id, in); err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.send(chatID, "Menu diperbarui.")
		b.showKantinMenu(ctx, chatID)
	}
}

func menuInputFromData(data map[string]string, price int64) api.MenuInput {
	return api.MenuInput{
		Name:        data["name"],
		Description: data["description"],
		Price:       price,
		Type:        data["type"],
	}
}

func (b *Bot) deleteMenu(ctx context.Context, chatID int64, raw string) {
	session := b.sessions.Current(chatID)
	if session == nil || session.Role != models.RoleKantin {
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	if err := b.gw.DeleteMenu(ctx, session.Token, id); err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}
	b.send(chatID, "Menu dihapus.")
	b.showKantinMenu(ctx, chatID)
}
