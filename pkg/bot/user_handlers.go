package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/pkg/schedule"
	"driverbook/service"
	"driverbook/storage"
)

const (
	dayFormat  = "02.01.2006"
	timeFormat = "15:04"
)

func (b *Bot) handleStart(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	user, err := b.Svc.User().Get(ctx, c.Sender().ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := b.saveSession(ctx, c, &Session{State: StateInvite}); err != nil {
			return c.Send(messages["try_later"])
		}
		return c.Send(messages["invite_prompt"], tele.RemoveKeyboard)
	case err != nil:
		b.Log.Error("failed to load user", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
		return c.Send(messages["try_later"])
	case !user.IsActive:
		return c.Send(messages["blocked"])
	}

	b.clearSession(ctx, c)
	return c.Send(messages["welcome"], mainMenu())
}

func (b *Bot) redeemInvite(ctx context.Context, c tele.Context, code string) error {
	sender := c.Sender()
	if !b.invites.allow(sender.ID) {
		return c.Send(messages["invite_throttle"])
	}

	_, ok, err := b.Svc.Invite().Redeem(ctx, code, &models.User{
		TelegramID: sender.ID,
		Name:       fullName(sender),
		Username:   sender.Username,
	})
	switch {
	case err != nil:
		b.Log.Error("invite redeem failed", logger.Int64("telegram_id", sender.ID), logger.Error(err))
		return c.Send(messages["try_later"])
	case !ok:
		return c.Send(messages["invite_bad"])
	}

	b.invites.forget(sender.ID)
	b.clearSession(ctx, c)
	return c.Send(messages["invite_ok"], mainMenu())
}

func (b *Bot) handleCalendarMenu(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()
	if u, err := b.requireUser(ctx, c); u == nil {
		return err
	}
	return c.Send(messages["choose_action"], calendarMenu())
}

func (b *Bot) handleShowCalendar(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()
	if u, err := b.requireUser(ctx, c); u == nil {
		return err
	}
	return c.Send(messages["choose_date"], datesMenu(b.today()))
}

func (b *Bot) chooseDate(ctx context.Context, c tele.Context, text string) error {
	date, ok := parseDateLabel(text, b.now(), b.loc())
	if !ok {
		return c.Send(messages["bad_date"])
	}
	if u, err := b.requireUser(ctx, c); u == nil {
		return err
	}

	driver, err := b.Svc.Slot().PrimaryDriver(ctx)
	if err != nil {
		return b.replySlotError(c, err)
	}
	free, err := b.upcomingSlots(ctx, driver.ID, date)
	if err != nil {
		return b.replySlotError(c, err)
	}
	if len(free) == 0 {
		return c.Send(fmt.Sprintf(messages["no_slots"], date.Format(dayFormat)), datesMenu(b.today()))
	}

	if err := b.saveSession(ctx, c, &Session{State: StateStart, Date: date, DriverID: driver.ID}); err != nil {
		return c.Send(messages["try_later"])
	}
	return c.Send(fmt.Sprintf(messages["date_chosen"], date.Format(dayFormat)), slotsMenu(free))
}

func (b *Bot) chooseStart(ctx context.Context, c tele.Context, s *Session, text string) error {
	start, ok := parseSlotLabel(text, s.Date, b.loc())
	if !ok {
		return c.Send(messages["bad_time"])
	}
	if start.Before(b.now()) {
		return c.Send(messages["past_time"])
	}

	free, err := b.upcomingSlots(ctx, s.DriverID, s.Date)
	if err != nil {
		return b.replySlotError(c, err)
	}
	ends := schedule.EndChoices(free, start)
	if len(ends) == 0 {
		return c.Send(messages["slot_taken"], slotsMenu(free))
	}

	s.Start = start
	s.State = StateEnd
	if err := b.saveSession(ctx, c, s); err != nil {
		return c.Send(messages["try_later"])
	}
	return c.Send(messages["choose_end"], endsMenu(ends))
}

func (b *Bot) chooseEnd(ctx context.Context, c tele.Context, s *Session, text string) error {
	end, ok := parseSlotLabel(text, s.Date, b.loc())
	if !ok {
		return c.Send(messages["bad_time"])
	}
	if !end.After(s.Start) {
		return c.Send(messages["end_before"])
	}

	s.End = end
	s.State = StateNotes
	if err := b.saveSession(ctx, c, s); err != nil {
		return c.Send(messages["try_later"])
	}
	return c.Send(messages["notes_prompt"], backMenu())
}

func (b *Bot) addNotes(ctx context.Context, c tele.Context, s *Session, text string) error {
	if text == "-" {
		text = ""
	}
	s.Notes = text
	s.State = StateConfirm
	if err := b.saveSession(ctx, c, s); err != nil {
		return c.Send(messages["try_later"])
	}

	loc := b.loc()
	return c.Send(fmt.Sprintf(messages["confirm"],
		s.Date.In(loc).Format(dayFormat),
		s.Start.In(loc).Format(timeFormat), s.End.In(loc).Format(timeFormat),
		orNone(s.Notes)), confirmMarkup())
}

func (b *Bot) handleConfirm(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()
	defer c.Respond()

	s, err := b.Sessions.Get(ctx, c.Sender().ID)
	if err != nil || s.State != StateConfirm {
		return c.Edit(messages["stale"])
	}
	user, err := b.requireUser(ctx, c)
	if user == nil {
		return err
	}
	b.clearSession(ctx, c)

	booking, err := b.Svc.Booking().Create(ctx, service.CreateBookingRequest{
		DriverID: s.DriverID,
		UserID:   user.ID,
		Start:    s.Start,
		End:      s.End,
		Notes:    s.Notes,
	})
	switch {
	case errors.Is(err, storage.ErrConflict):
		return c.Edit(messages["conflict"])
	case errors.Is(err, storage.ErrNotFound):
		return c.Edit(messages["driver_gone"])
	case errors.Is(err, service.ErrInvalidRange):
		return c.Edit(messages["invalid_range"])
	case err != nil:
		b.Log.Error("booking create failed", logger.Int64("user_id", user.ID), logger.Error(err))
		return c.Edit(messages["create_failed"])
	}

	loc := b.loc()
	if err := c.Edit(fmt.Sprintf(messages["created"], booking.ID,
		s.Start.In(loc).Format(dayFormat),
		s.Start.In(loc).Format(timeFormat), s.End.In(loc).Format(timeFormat))); err != nil {
		return err
	}
	return c.Send(messages["main_menu"], mainMenu())
}

func (b *Bot) handleAbort(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()
	defer c.Respond()

	b.clearSession(ctx, c)
	if err := c.Edit(messages["aborted"]); err != nil {
		return err
	}
	return c.Send(messages["main_menu"], mainMenu())
}

func (b *Bot) handleMyBookings(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	user, err := b.requireUser(ctx, c)
	if user == nil {
		return err
	}
	bookings, err := b.Svc.Booking().ListForUser(ctx, user.ID)
	if err != nil {
		b.Log.Error("failed to list bookings", logger.Int64("user_id", user.ID), logger.Error(err))
		return c.Send(messages["try_later"])
	}

	var active []*models.Booking
	for _, bk := range bookings {
		if bk.Status == models.BookingActive {
			active = append(active, bk)
		}
	}
	if len(active) == 0 {
		return c.Send(messages["no_bookings"], mainMenu())
	}

	if err := c.Send(messages["my_bookings"], mainMenu()); err != nil {
		return err
	}
	for _, bk := range active {
		if err := c.Send(b.bookingLine(bk), bookingMarkup(bk.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleUserCancel(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	id, err := strconv.ParseInt(c.Callback().Data, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: messages["not_found"]})
	}
	user, err := b.requireUser(ctx, c)
	if user == nil {
		_ = c.Respond()
		return err
	}

	ok, err := b.Svc.Booking().CancelForUser(ctx, user.ID, id)
	switch {
	case errors.Is(err, storage.ErrNotFound) || (err == nil && !ok):
		return c.Respond(&tele.CallbackResponse{Text: messages["not_found"], ShowAlert: true})
	case err != nil:
		b.Log.Error("booking cancel failed", logger.Int64("booking_id", id), logger.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: messages["try_later"], ShowAlert: true})
	}

	_ = c.Respond()
	return c.Edit(fmt.Sprintf(messages["user_canceled"], id))
}

// upcomingSlots is FreeSlots without slots that already started.
func (b *Bot) upcomingSlots(ctx context.Context, driverID int64, date time.Time) ([]models.TimeRange, error) {
	free, err := b.Svc.Slot().FreeSlots(ctx, driverID, date)
	if err != nil {
		return nil, err
	}
	now := b.now()
	out := free[:0]
	for _, s := range free {
		if !s.Start.Before(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *Bot) replySlotError(c tele.Context, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return c.Send(messages["no_drivers"])
	}
	b.Log.Error("failed to load slots", logger.Error(err))
	return c.Send(messages["try_later"])
}

func (b *Bot) bookingLine(bk *models.Booking) string {
	loc := b.loc()
	nominal := bk.Nominal(schedule.Buffer)
	driver := bk.DriverName
	if driver == "" {
		driver = "—"
	}
	return fmt.Sprintf(messages["booking_line"],
		nominal.Start.In(loc).Format(dayFormat+" "+timeFormat),
		nominal.End.In(loc).Format(timeFormat),
		driver, orNoteNone(bk.Notes), bk.ID)
}

func orNone(s string) string {
	if s == "" {
		return messages["no_notes"]
	}
	return s
}

func orNoteNone(s *string) string {
	if s == nil {
		return messages["no_notes"]
	}
	return orNone(*s)
}
