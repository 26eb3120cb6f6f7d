package bot

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"kudakan-telegram/api"
	"kudakan-telegram/config"
	"kudakan-telegram/models"
	"kudakan-telegram/services"
	"kudakan-telegram/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// pendingInput tracks a multi-step text form for one chat (login, register,
// profile completion, menu editing). One pending form at a time per chat.
type pendingInput struct {
	Kind string
	Step int
	Data map[string]string
}

// catalogState is the last fetched catalog plus the active filters for one
// chat. Filters are re-applied in memory on every change.
type catalogState struct {
	items   []services.CatalogItem
	vendors []models.Vendor
	filter  services.Filter
}

type Bot struct {
	api      *tgbotapi.BotAPI
	gw       *api.Client
	cfg      *config.Config
	sessions *services.SessionManager
	carts    *services.CartStore

	pendingMu sync.Mutex
	pending   map[int64]*pendingInput

	pollerMu sync.Mutex
	pollers  map[int64]*services.Poller

	catalogMu sync.Mutex
	catalogs  map[int64]*catalogState

	kantinMenuMu sync.Mutex
	kantinMenus  map[int64][]models.MenuItem

	ordersMsgMu sync.Mutex
	ordersMsg   map[int64]int // kantin orders screen message id, for live edits
}

func New(cfg *config.Config, gw *api.Client, sessions *services.SessionManager, carts *services.CartStore) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return newBot(cfg, botAPI, gw, sessions, carts), nil
}

func newBot(cfg *config.Config, botAPI *tgbotapi.BotAPI, gw *api.Client, sessions *services.SessionManager, carts *services.CartStore) *Bot {
	return &Bot{
		api:         botAPI,
		gw:          gw,
		cfg:         cfg,
		sessions:    sessions,
		carts:       carts,
		pending:     make(map[int64]*pendingInput),
		pollers:     make(map[int64]*services.Poller),
		catalogs:    make(map[int64]*catalogState),
		kantinMenus: make(map[int64][]models.MenuItem),
		ordersMsg:   make(map[int64]int),
	}
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Halaman utama"},
			{Command: "menu", Description: "Lihat semua menu"},
			{Command: "keranjang", Description: "Keranjang belanja"},
			{Command: "pesanan", Description: "Pesanan"},
			{Command: "profil", Description: "Profil"},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

func (b *Bot) Start() {
	_ = b.setBotCommands()
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
			continue
		}
		if update.Message == nil {
			continue
		}
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// Commands navigate, so they close any open form and, like callback
	// navigation, stop the orders poller of the screen being left.
	// /pesanan restarts it for the kantin role.
	if strings.HasPrefix(text, "/") {
		b.clearPending(chatID)
		b.stopPoller(chatID)
	}

	switch text {
	case "/start":
		b.handleStart(ctx, chatID)
		return
	case "/menu":
		b.showCatalog(ctx, chatID)
		return
	case "/keranjang":
		b.showCart(ctx, chatID)
		return
	case "/pesanan":
		b.showOrders(ctx, chatID)
		return
	case "/profil":
		b.showProfile(ctx, chatID)
		return
	case "/batal":
		b.send(chatID, "Dibatalkan.")
		return
	}

	// Photo during the add-menu flow.
	if len(msg.Photo) > 0 {
		if p := b.currentPending(chatID); p != nil && p.Kind == kindMenuAdd && p.Step == menuAddStepImage {
			b.handleMenuPhoto(ctx, chatID, msg.Photo)
			return
		}
	}

	if p := b.currentPending(chatID); p != nil {
		b.handlePendingText(ctx, chatID, p, text)
		return
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.answerCallback(cb.ID, "")

	// Leaving the kantin orders screen stops its poller.
	if data != cbKantinOrders && !strings.HasPrefix(data, cbOrderDonePrefix) {
		b.stopPoller(chatID)
	}

	switch {
	case data == cbHome:
		b.clearPending(chatID)
		b.showHome(ctx, chatID)
	case data == cbDashboard:
		b.clearPending(chatID)
		b.showDashboard(ctx, chatID)
	case data == cbLogin:
		b.startLogin(chatID)
	case data == cbRegisterStudent:
		b.startRegisterStudent(chatID)
	case data == cbRegisterKantin:
		b.startRegisterKantin(chatID)
	case data == cbCatalog:
		b.showCatalog(ctx, chatID)
	case data == cbCatalogSearch:
		b.startCatalogSearch(chatID)
	case data == cbCatalogClear:
		b.clearCatalogFilter(ctx, chatID)
	case strings.HasPrefix(data, cbTypeFilterPrefix):
		b.setTypeFilter(ctx, chatID, strings.TrimPrefix(data, cbTypeFilterPrefix))
	case strings.HasPrefix(data, cbVendorFilterPrefix):
		b.setVendorFilter(ctx, chatID, strings.TrimPrefix(data, cbVendorFilterPrefix))
	case strings.HasPrefix(data, cbAddPrefix):
		b.addToCart(ctx, chatID, strings.TrimPrefix(data, cbAddPrefix))
	case data == cbCart:
		b.showCart(ctx, chatID)
	case strings.HasPrefix(data, cbRemovePrefix):
		b.removeFromCart(ctx, chatID, strings.TrimPrefix(data, cbRemovePrefix))
	case data == cbCheckout:
		b.checkout(ctx, chatID)
	case data == cbOrders:
		b.showOrders(ctx, chatID)
	case data == cbKantinOrders:
		b.showKantinOrders(ctx, chatID)
	case strings.HasPrefix(data, cbOrderDonePrefix):
		b.markOrderDone(ctx, chatID, strings.TrimPrefix(data, cbOrderDonePrefix))
	case data == cbKantinMenu:
		b.showKantinMenu(ctx, chatID)
	case data == cbMenuAdd:
		b.startMenuAdd(chatID)
	case strings.HasPrefix(data, cbMenuTypePrefix):
		b.setMenuAddType(ctx, chatID, strings.TrimPrefix(data, cbMenuTypePrefix))
	case data == cbMenuSkipImage:
		b.finishMenuAdd(ctx, chatID, "", nil)
	case strings.HasPrefix(data, cbMenuEditPrefix):
		b.startMenuEdit(chatID, strings.TrimPrefix(data, cbMenuEditPrefix))
	case strings.HasPrefix(data, cbMenuDeletePrefix):
		b.deleteMenu(ctx, chatID, strings.TrimPrefix(data, cbMenuDeletePrefix))
	case data == cbProfile:
		b.showProfile(ctx, chatID)
	case data == cbProfileComplete:
		b.startProfileComplete(ctx, chatID)
	case data == cbProfileLater:
		b.renderDashboard(ctx, chatID)
	case data == cbProfileEdit:
		b.startProfileEdit(ctx, chatID)
	case data == cbChangePassword:
		b.startChangePassword(chatID)
	case data == cbLogout:
		b.confirmLogout(chatID)
	case data == cbLogoutYes:
		b.logout(ctx, chatID, false)
	case data == cbLogoutNo:
		b.showDashboard(ctx, chatID)
	}
}

// forceLogout tears down everything tied to the chat after a session expiry:
// the poller, the cart and the session itself (already discarded by Expired).
// Must not run inside the poll callback; see requestStopPoller.
func (b *Bot) forceLogout(ctx context.Context, chatID int64) {
	b.stopPoller(chatID)
	b.carts.Drop(chatID)
	b.send(chatID, "Sesi Anda telah berakhir. Silakan login kembali.")
	b.showHome(ctx, chatID)
}

// handleErr turns a gateway error into a user-facing notification. A session
// expiry forces logout without the confirmation step and drops back to the
// login screen; everything else falls back to a safe screen with a message.
func (b *Bot) handleErr(ctx context.Context, chatID int64, err error) {
	if b.sessions.Expired(ctx, chatID, err) {
		b.forceLogout(ctx, chatID)
		return
	}

	var vErr *api.ValidationError
	var cErr *api.ConnectivityError
	var sErr *api.StatusError
	switch {
	case errors.As(err, &vErr):
		if vErr.Detail != "" {
			b.send(chatID, "Data tidak valid: "+vErr.Detail)
		} else {
			b.send(chatID, "Data tidak valid. Periksa kembali isian Anda.")
		}
	case errors.As(err, &cErr):
		b.send(chatID, "Tidak dapat terhubung ke server. Coba lagi beberapa saat.")
	case errors.As(err, &sErr):
		b.send(chatID, "Permintaan gagal. Coba lagi.")
	default:
		log.Printf("chat %d: %v", chatID, err)
		b.send(chatID, "Terjadi kesalahan. Coba lagi.")
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendKb(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("send chat %d: %v", chatID, err)
		return 0
	}
	return sent.MessageID
}

// editKb edits an existing message in place; on "not found" it sends a new
// one instead and returns the new message id.
func (b *Bot) editKb(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) int {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &kb
	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "not modified") {
			return messageID
		}
		return b.sendKb(chatID, text, kb)
	}
	return messageID
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("answer callback: %v", err)
	}
}

func (b *Bot) currentPending(chatID int64) *pendingInput {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return b.pending[chatID]
}

func (b *Bot) setPending(chatID int64, p *pendingInput) {
	b.pendingMu.Lock()
	b.pending[chatID] = p
	b.pendingMu.Unlock()
}

func (b *Bot) clearPending(chatID int64) {
	b.pendingMu.Lock()
	delete(b.pending, chatID)
	b.pendingMu.Unlock()
}

func (b *Bot) stopPoller(chatID int64) {
	b.pollerMu.Lock()
	p := b.pollers[chatID]
	delete(b.pollers, chatID)
	b.pollerMu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// requestStopPoller releases the chat's poller without waiting for its loop
// to exit. Used from inside the poll callback, where stopPoller would block
// on its own completion.
func (b *Bot) requestStopPoller(chatID int64) {
	b.pollerMu.Lock()
	p := b.pollers[chatID]
	delete(b.pollers, chatID)
	b.pollerMu.Unlock()
	if p != nil {
		p.RequestStop()
	}
}

func (b *Bot) setPoller(chatID int64, p *services.Poller) {
	b.pollerMu.Lock()
	old := b.pollers[chatID]
	b.pollers[chatID] = p
	b.pollerMu.Unlock()
	if old != nil {
		old.Stop()
	}
}

// handleStart bootstraps the session and restores the last viewed screen.
func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	session, lastView, err := b.sessions.Bootstrap(ctx, chatID)
	if err != nil {
		b.handleErr(ctx, chatID, err)
		return
	}
	if session == nil {
		b.showHome(ctx, chatID)
		return
	}
	if lastView == store.ViewDashboard {
		b.showDashboard(ctx, chatID)
		return
	}
	b.showHome(ctx, chatID)
}
