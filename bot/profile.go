package bot

import (
	"context"
	"fmt"
	"strings"

	"kudakan-telegram/api"
	"kudakan-telegram/models"
	"kudakan-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handlePendingText routes free text into whichever multi-step form the chat
// has open.
func (b *Bot) handlePendingText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	if text == "" {
		return
	}
	switch p.Kind {
	case kindSearch:
		b.applyCatalogSearch(ctx, chatID, text)
	case kindLogin:
		b.handleLoginText(ctx, chatID, p, text)
	case kindRegisterStudent:
		b.handleRegisterStudentText(ctx, chatID, p, text)
	case kindRegisterKantin:
		b.handleRegisterKantinText(ctx, chatID, p, text)
	case kindCompleteStudent, kindEditStudent:
		b.handleStudentProfileText(ctx, chatID, p, text)
	case kindCompleteKantin, kindEditKantin:
		b.handleKantinProfileText(ctx, chatID, p, text)
	case kindPassword:
		b.handlePasswordText(ctx, chatID, p, text)
	case kindMenuAdd:
		b.handleMenuAddText(ctx, chatID, p, text)
	case kindMenuEdit:
		b.handleMenuEditText(ctx, chatID, p, text)
	}
}

func (b *Bot) startLogin(chatID int64) {
	b.setPending(chatID, &pendingInput{Kind: kindLogin, Data: map[string]string{}})
	b.send(chatID, "Email Anda? /batal untuk membatalkan.")
}

func (b *Bot) handleLoginText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case 0:
		p.Data["email"] = text
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, "Password?")
	case 1:
		b.clearPending(chatID)
		session, err := b.sessions.Login(ctx, chatID, p.Data["email"], text)
		if err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.send(chatID, fmt.Sprintf("Login berhasil. Selamat datang, %s!", session.DisplayName))
		b.showDashboard(ctx, chatID)
	}
}

func (b *Bot) startRegisterStudent(chatID int64) {
	b.setPending(chatID, &pendingInput{Kind: kindRegisterStudent, Data: map[string]string{}})
	b.send(chatID, "Pendaftaran mahasiswa.\nNama lengkap? /batal untuk membatalkan.")
}

func (b *Bot) handleRegisterStudentText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case 0:
		p.Data["name"] = text
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, "NIM?")
	case 1:
		p.Data["nim"] = text
		p.Step = 2
		b.setPending(chatID, p)
		b.send(chatID, "Email?")
	case 2:
		p.Data["email"] = text
		p.Step = 3
		b.setPending(chatID, p)
		b.send(chatID, fmt.Sprintf("Password? (minimal %d karakter)", services.MinPasswordLen))
	case 3:
		if len(text) < services.MinPasswordLen {
			b.send(chatID, fmt.Sprintf("Password minimal %d karakter.", services.MinPasswordLen))
			return
		}
		b.clearPending(chatID)
		if err := b.gw.RegisterStudent(ctx, p.Data["name"], p.Data["nim"], p.Data["email"], text); err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.send(chatID, "Pendaftaran berhasil. Silakan login.")
		b.startLogin(chatID)
	}
}

func (b *Bot) startRegisterKantin(chatID int64) {
	b.setPending(chatID, &pendingInput{Kind: kindRegisterKantin, Data: map[string]string{}})
	b.send(chatID, "Pendaftaran kantin.\nNama kantin? /batal untuk membatalkan.")
}

func (b *Bot) handleRegisterKantinText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case 0:
		p.Data["name"] = text
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, "Email?")
	case 1:
		p.Data["email"] = text
		p.Step = 2
		b.setPending(chatID, p)
		b.send(chatID, fmt.Sprintf("Password? (minimal %d karakter)", services.MinPasswordLen))
	case 2:
		if len(text) < services.MinPasswordLen {
			b.send(chatID, fmt.Sprintf("Password minimal %d karakter.", services.MinPasswordLen))
			return
		}
		b.clearPending(chatID)
		if err := b.gw.RegisterKantin(ctx, p.Data["name"], p.Data["email"], text); err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.send(chatID, "Pendaftaran berhasil. Silakan login.")
		b.startLogin(chatID)
	}
}

// showProfileGate interposes after login while the profile is incomplete.
// "Nanti" dismisses it for this visit; the gate reappears next time the
// dashboard is entered because the flag is still false.
func (b *Bot) showProfileGate(chatID int64, session *models.Session) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📝 Lengkapi Sekarang", cbProfileComplete)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Nanti", cbProfileLater)),
	)
	what := "alamat pengiriman dan nomor HP"
	if session.Role == models.RoleKantin {
		what = "data tenant, pemilik, dan jam operasional"
	}
	b.sendKb(chatID, fmt.Sprintf("Profil Anda belum lengkap (%s). Lengkapi sekarang agar dapat bertransaksi.", what), kb)
}

func (b *Bot) showProfile(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		b.send(chatID, "Login untuk melihat profil.")
		return
	}

	var text strings.Builder
	text.WriteString("👤 Profil\n\n")
	text.WriteString("Nama: " + session.DisplayName + "\n")
	text.WriteString("Email: " + session.Email + "\n")

	if session.Role == models.RoleStudent {
		// The student record rides on the identity endpoint; there is no
		// per-student read endpoint.
		id, err := b.gw.Me(ctx, session.Token)
		if err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		if id.Student != nil {
			text.WriteString("NIM: " + id.Student.NIM + "\n")
			if id.Student.DeliveryAddress != "" {
				text.WriteString("Alamat: " + id.Student.DeliveryAddress + "\n")
			}
			if id.Student.Phone != "" {
				text.WriteString("No. HP: " + id.Student.Phone + "\n")
			}
		}
	} else {
		prof, err := b.gw.GetKantin(ctx, session.Token, session.UserID)
		if err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		if prof.TenantName != "" {
			text.WriteString("Tenant: " + prof.TenantName + "\n")
		}
		if prof.OwnerName != "" {
			text.WriteString("Pemilik: " + prof.OwnerName + " (" + prof.OwnerPhone + ")\n")
		}
		if prof.OperatingHours != "" {
			text.WriteString("Jam operasional: " + prof.OperatingHours + "\n")
		}
	}
	if !session.ProfileComplete {
		text.WriteString("\n⚠️ Profil belum lengkap.")
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✏️ Ubah Profil", cbProfileEdit)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔒 Ganti Password", cbChangePassword)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Kembali", cbDashboard)),
	)
	b.sendKb(chatID, text.String(), kb)
}

func (b *Bot) startProfileComplete(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		return
	}
	if session.Role == models.RoleKantin {
		b.setPending(chatID, &pendingInput{Kind: kindCompleteKantin, Data: map[string]string{}})
		b.send(chatID, "Nama tenant? /batal untuk membatalkan.")
		return
	}
	b.setPending(chatID, &pendingInput{Kind: kindCompleteStudent, Data: map[string]string{}})
	b.send(chatID, "Alamat pengiriman? /batal untuk membatalkan.")
}

// startProfileEdit reuses the completion forms; the same endpoint accepts
// updates after the first completion.
func (b *Bot) startProfileEdit(ctx context.Context, chatID int64) {
	session := b.sessions.Current(chatID)
	if session == nil {
		return
	}
	if session.Role == models.RoleKantin {
		b.setPending(chatID, &pendingInput{Kind: kindEditKantin, Data: map[string]string{}})
		b.send(chatID, "Nama tenant? /batal untuk membatalkan.")
		return
	}
	b.setPending(chatID, &pendingInput{Kind: kindEditStudent, Data: map[string]string{}})
	b.send(chatID, "Alamat pengiriman? /batal untuk membatalkan.")
}

func (b *Bot) handleStudentProfileText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case 0:
		p.Data["address"] = text
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, "Nomor HP?")
	case 1:
		b.clearPending(chatID)
		session := b.sessions.Current(chatID)
		if session == nil {
			return
		}
		address, phone := p.Data["address"], text
		if !services.StudentProfileComplete(address, phone) {
			b.send(chatID, "Alamat dan nomor HP tidak boleh kosong.")
			return
		}
		if err := b.gw.CompleteStudentProfile(ctx, session.Token, address, phone); err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.sessions.SetProfileComplete(ctx, chatID, true)
		b.send(chatID, "Profil tersimpan.")
		b.showDashboard(ctx, chatID)
	}
}

func (b *Bot) handleKantinProfileText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case 0:
		p.Data["tenant"] = text
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, "Nama pemilik?")
	case 1:
		p.Data["owner"] = text
		p.Step = 2
		b.setPending(chatID, p)
		b.send(chatID, "Nomor HP pemilik?")
	case 2:
		p.Data["phone"] = text
		p.Step = 3
		b.setPending(chatID, p)
		b.send(chatID, "Jam operasional? (contoh: 07.00-16.00)")
	case 3:
		b.clearPending(chatID)
		session := b.sessions.Current(chatID)
		if session == nil {
			return
		}
		in := api.KantinProfileInput{
			TenantName:     p.Data["tenant"],
			OwnerName:      p.Data["owner"],
			OwnerPhone:     p.Data["phone"],
			OperatingHours: text,
		}
		if !services.KantinProfileComplete(in.TenantName, in.OwnerName, in.OwnerPhone, in.OperatingHours) {
			b.send(chatID, "Semua kolom profil kantin wajib diisi.")
			return
		}
		if err := b.gw.CompleteKantinProfile(ctx, session.Token, in); err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.sessions.SetProfileComplete(ctx, chatID, true)
		b.send(chatID, "Profil tersimpan.")
		b.showDashboard(ctx, chatID)
	}
}

func (b *Bot) startChangePassword(chatID int64) {
	if b.sessions.Current(chatID) == nil {
		return
	}
	b.setPending(chatID, &pendingInput{Kind: kindPassword, Data: map[string]string{}})
	b.send(chatID, "Password saat ini? /batal untuk membatalkan.")
}

// handlePasswordText validates locally before the request: minimum length
// and confirmation match fail fast without a round trip.
func (b *Bot) handlePasswordText(ctx context.Context, chatID int64, p *pendingInput, text string) {
	switch p.Step {
	case 0:
		p.Data["current"] = text
		p.Step = 1
		b.setPending(chatID, p)
		b.send(chatID, fmt.Sprintf("Password baru? (minimal %d karakter)", services.MinPasswordLen))
	case 1:
		p.Data["new"] = text
		p.Step = 2
		b.setPending(chatID, p)
		b.send(chatID, "Ulangi password baru.")
	case 2:
		b.clearPending(chatID)
		session := b.sessions.Current(chatID)
		if session == nil {
			return
		}
		if err := services.ValidateNewPassword(p.Data["new"], text); err != nil {
			b.send(chatID, err.Error())
			return
		}
		if err := b.gw.ChangePassword(ctx, session.Token, p.Data["current"], p.Data["new"]); err != nil {
			b.handleErr(ctx, chatID, err)
			return
		}
		b.send(chatID, "Password berhasil diganti.")
		b.showProfile(ctx, chatID)
	}
}

// confirmLogout asks before an intentional logout. A forced logout on
// session expiry skips this step.
func (b *Bot) confirmLogout(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ya, keluar", cbLogoutYes),
			tgbotapi.NewInlineKeyboardButtonData("Batal", cbLogoutNo),
		),
	)
	b.sendKb(chatID, "Yakin ingin keluar? Keranjang Anda akan dikosongkan.", kb)
}

func (b *Bot) logout(ctx context.Context, chatID int64, silent bool) {
	b.stopPoller(chatID)
	b.carts.Drop(chatID)
	b.clearPending(chatID)
	if err := b.sessions.Logout(ctx, chatID); err != nil && !silent {
		b.send(chatID, "Gagal menghapus sesi lokal, coba lagi.")
		return
	}
	if !silent {
		b.send(chatID, "Anda telah keluar. Sampai jumpa!")
	}
	b.showHome(ctx, chatID)
}
