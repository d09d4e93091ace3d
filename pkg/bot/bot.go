// Package bot is the Telegram front end: invite gate, booking dialog and
// admin commands on top of the service layer.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"driverbook/config"
	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/service"
	"driverbook/storage"
)

const handlerTimeout = 15 * time.Second

type Bot struct {
	Bot      *tele.Bot
	Svc      service.IServiceManager
	Log      logger.ILogger
	Cfg      *config.Config
	Sessions SessionStore

	invites *inviteLimiter
	now     func() time.Time
}

// New connects to Telegram. svc may be assigned to Bot.Svc later, before Start.
func New(cfg *config.Config, svc service.IServiceManager, sessions SessionStore, log logger.ILogger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.TelegramBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error("telegram handler failed", logger.Error(err))
		},
	}
	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot := newBot(cfg, svc, sessions, log)
	bot.Bot = tb
	bot.registerHandlers()
	return bot, nil
}

func newBot(cfg *config.Config, svc service.IServiceManager, sessions SessionStore, log logger.ILogger) *Bot {
	if sessions == nil {
		sessions = NewMemorySessions()
	}
	return &Bot{
		Svc:      svc,
		Log:      log,
		Cfg:      cfg,
		Sessions: sessions,
		invites:  newInviteLimiter(cfg.InviteRate),
		now:      time.Now,
	}
}

// Start blocks polling updates until Stop.
func (b *Bot) Start() {
	b.Log.Info("telegram bot started", logger.String("username", b.Bot.Me.Username))
	b.notifyAdmin(messages["bot_started"])
	b.Bot.Start()
}

func (b *Bot) Stop() {
	b.notifyAdmin(messages["bot_stopped"])
	b.Bot.Stop()
	b.Log.Info("telegram bot stopped")
}

// Notifier reports new bookings to the admin chat through this bot.
func (b *Bot) Notifier() *AdminNotifier {
	return NewAdminNotifier(b.Bot, b.Cfg.AdminID, b.Cfg.Location())
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle(btnCalendarMenu, b.handleCalendarMenu)
	b.Bot.Handle(btnShowCalendar, b.handleShowCalendar)
	b.Bot.Handle(btnMyBookings, b.handleMyBookings)
	b.Bot.Handle(btnBack, b.handleBack)

	b.Bot.Handle(&btnConfirm, b.handleConfirm)
	b.Bot.Handle(&btnAbort, b.handleAbort)
	b.Bot.Handle(&btnUserCancel, b.handleUserCancel)

	b.Bot.Handle("/admin", b.handleAdmin, b.adminOnly)
	b.Bot.Handle("/bookings", b.handleAdminBookings, b.adminOnly)
	b.Bot.Handle("/drivers", b.handleAdminDrivers, b.adminOnly)
	b.Bot.Handle("/cancel_booking", b.handleAdminCancel, b.adminOnly)
	b.Bot.Handle("/add_invite", b.handleAddInvite, b.adminOnly)
	b.Bot.Handle("/cleanup", b.handleCleanup, b.adminOnly)

	b.Bot.Handle(tele.OnText, b.handleText)
}

func (b *Bot) handleText(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	s, err := b.Sessions.Get(ctx, c.Sender().ID)
	if err != nil {
		b.Log.Error("failed to load session", logger.Int64("chat_id", c.Sender().ID), logger.Error(err))
		return c.Send(messages["try_later"])
	}
	text := strings.TrimSpace(c.Text())

	switch s.State {
	case StateInvite:
		return b.redeemInvite(ctx, c, text)
	case StateAdminInvite:
		if b.isAdmin(c) {
			return b.createInvite(ctx, c, text)
		}
	case StateAdminCancelID:
		if b.isAdmin(c) {
			return b.adminCancel(ctx, c, text)
		}
	case StateNotes:
		return b.addNotes(ctx, c, s, text)
	}

	if dateRx.MatchString(text) {
		return b.chooseDate(ctx, c, text)
	}

	switch s.State {
	case StateStart:
		return b.chooseStart(ctx, c, s, text)
	case StateEnd:
		return b.chooseEnd(ctx, c, s, text)
	}
	return nil
}

func (b *Bot) handleBack(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()
	b.clearSession(ctx, c)
	return c.Send(messages["main_menu"], mainMenu())
}

// requireUser loads the registered sender. A nil user means a reply has
// already been sent.
func (b *Bot) requireUser(ctx context.Context, c tele.Context) (*models.User, error) {
	user, err := b.Svc.User().Get(ctx, c.Sender().ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, c.Send(messages["no_user"])
	case err != nil:
		b.Log.Error("failed to load user", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
		return nil, c.Send(messages["try_later"])
	case !user.IsActive:
		return nil, c.Send(messages["blocked"])
	}
	return user, nil
}

func (b *Bot) saveSession(ctx context.Context, c tele.Context, s *Session) error {
	if err := b.Sessions.Save(ctx, c.Sender().ID, s); err != nil {
		b.Log.Error("failed to save session", logger.Int64("chat_id", c.Sender().ID), logger.Error(err))
		return err
	}
	return nil
}

func (b *Bot) clearSession(ctx context.Context, c tele.Context) {
	if err := b.Sessions.Delete(ctx, c.Sender().ID); err != nil {
		b.Log.Warning("failed to clear session", logger.Int64("chat_id", c.Sender().ID), logger.Error(err))
	}
}

func (b *Bot) notifyAdmin(text string) {
	if b.Cfg.AdminID == 0 || b.Bot == nil {
		return
	}
	if _, err := b.Bot.Send(tele.ChatID(b.Cfg.AdminID), text); err != nil {
		b.Log.Warning("failed to notify admin", logger.Error(err))
	}
}

func (b *Bot) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

func (b *Bot) loc() *time.Location {
	return b.Svc.Slot().Location()
}

func (b *Bot) today() time.Time {
	now := b.now().In(b.loc())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc())
}

func fullName(u *tele.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
