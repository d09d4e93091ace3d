package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"driverbook/pkg/logger"
	"driverbook/storage"
)

const adminTimeFormat = "02.01.2006 15:04"

func (b *Bot) isAdmin(c tele.Context) bool {
	return b.Cfg.AdminID != 0 && c.Sender().ID == b.Cfg.AdminID
}

func (b *Bot) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !b.isAdmin(c) {
			return c.Send(messages["denied"])
		}
		return next(c)
	}
}

func (b *Bot) handleAdmin(c tele.Context) error {
	return c.Send(messages["admin_panel"])
}

func (b *Bot) handleAdminBookings(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	bookings, err := b.Svc.Booking().ListActive(ctx)
	if err != nil {
		b.Log.Error("failed to list active bookings", logger.Error(err))
		return c.Send(messages["try_later"])
	}
	if len(bookings) == 0 {
		return c.Send(messages["admin_none"])
	}

	loc := b.loc()
	lines := []string{messages["admin_header"]}
	for _, bk := range bookings {
		lines = append(lines, fmt.Sprintf(messages["admin_line"],
			bk.ID, dash(bk.UserName), dash(bk.Username), dash(bk.DriverName),
			bk.StartTime.In(loc).Format(adminTimeFormat), bk.EndTime.In(loc).Format(timeFormat),
			orNoteNone(bk.Notes), bk.Status))
	}
	return c.Send(truncate(strings.Join(lines, "\n\n"), maxMessageLen))
}

func (b *Bot) handleAdminDrivers(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	drivers, err := b.Svc.Slot().Drivers(ctx)
	if err != nil {
		b.Log.Error("failed to list drivers", logger.Error(err))
		return c.Send(messages["try_later"])
	}
	if len(drivers) == 0 {
		return c.Send(messages["admin_nodrivers"])
	}
	lines := []string{messages["admin_drivers"]}
	for _, d := range drivers {
		line := fmt.Sprintf("🚗 %s (ID %d)", d.Name, d.ID)
		if d.Phone != "" {
			line += " 📞 " + d.Phone
		}
		lines = append(lines, line)
	}
	return c.Send(strings.Join(lines, "\n"))
}

// handleAdminCancel accepts the id inline (/cancel_booking 12) or asks for it.
func (b *Bot) handleAdminCancel(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	if args := c.Args(); len(args) > 0 {
		return b.adminCancel(ctx, c, args[0])
	}
	if err := b.saveSession(ctx, c, &Session{State: StateAdminCancelID}); err != nil {
		return c.Send(messages["try_later"])
	}
	return c.Send(messages["ask_booking_id"])
}

func (b *Bot) adminCancel(ctx context.Context, c tele.Context, text string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return c.Send(messages["bad_id"])
	}
	b.clearSession(ctx, c)

	ok, err := b.Svc.Booking().Cancel(ctx, id)
	switch {
	case err != nil:
		b.Log.Error("admin cancel failed", logger.Int64("booking_id", id), logger.Error(err))
		return c.Send(messages["try_later"])
	case !ok:
		return c.Send(messages["not_found"])
	}
	return c.Send(fmt.Sprintf(messages["admin_canceled"], id))
}

func (b *Bot) handleAddInvite(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	if args := c.Args(); len(args) > 0 {
		return b.createInvite(ctx, c, args[0])
	}
	if err := b.saveSession(ctx, c, &Session{State: StateAdminInvite}); err != nil {
		return c.Send(messages["try_later"])
	}
	return c.Send(messages["ask_invite"])
}

// createInvite treats "-" as a request for a generated code.
func (b *Bot) createInvite(ctx context.Context, c tele.Context, code string) error {
	if code == "-" {
		code = ""
	}
	b.clearSession(ctx, c)

	inv, err := b.Svc.Invite().Create(ctx, code)
	switch {
	case errors.Is(err, storage.ErrDuplicateInvite):
		return c.Send(messages["invite_dup"])
	case err != nil:
		b.Log.Error("invite create failed", logger.Error(err))
		return c.Send(messages["try_later"])
	}
	return c.Send(fmt.Sprintf(messages["invite_added"], inv.Code))
}

func (b *Bot) handleCleanup(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	n, err := b.Svc.Booking().CleanupCanceled(ctx)
	if err != nil {
		b.Log.Error("cleanup failed", logger.Error(err))
		return c.Send(messages["try_later"])
	}
	return c.Send(fmt.Sprintf(messages["cleaned"], n))
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
