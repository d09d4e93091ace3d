package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"driverbook/config"
	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/service"
	"driverbook/storage/memory"
)

const adminID = 100

var (
	testLoc = time.FixedZone("MSK", 3*60*60)
	testNow = time.Date(2030, 3, 11, 12, 0, 0, 0, testLoc)
	nextDay = time.Date(2030, 3, 12, 0, 0, 0, 0, testLoc)
)

// fakeContext records replies; methods it does not override panic.
type fakeContext struct {
	tele.Context
	sender *tele.User
	text   string
	data   string
	args   []string

	sent      []string
	edited    []string
	markup    *tele.ReplyMarkup
	responded int
}

func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Text() string       { return f.text }
func (f *fakeContext) Args() []string     { return f.args }

func (f *fakeContext) Callback() *tele.Callback {
	return &tele.Callback{Data: f.data}
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, fmt.Sprint(what))
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			f.markup = m
		}
	}
	return nil
}

func (f *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	f.edited = append(f.edited, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

func (f *fakeContext) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type harness struct {
	bot *Bot
	svc service.IServiceManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	svc := service.New(memory.New(), nil, logger.Nop(), service.Options{
		Location: testLoc,
		Now:      func() time.Time { return testNow },
		Backoff:  time.Millisecond,
	})
	_, err := svc.Slot().EnsureDriver(ctx, "Персональный водитель")
	require.NoError(t, err)
	require.NoError(t, svc.Invite().Ensure(ctx, "default123"))

	b := newBot(&config.Config{AdminID: adminID, InviteRate: 3}, svc, NewMemorySessions(), logger.Nop())
	b.now = func() time.Time { return testNow }
	return &harness{bot: b, svc: svc}
}

func (h *harness) say(t *testing.T, from int64, text string) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: from, FirstName: "Ann", Username: "ann"}, text: text}
	require.NoError(t, h.bot.handleText(c))
	return c
}

func (h *harness) call(t *testing.T, from int64, handler func(tele.Context) error, data string, args ...string) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: from, FirstName: "Ann", Username: "ann"}, data: data, args: args}
	require.NoError(t, handler(c))
	return c
}

func (h *harness) register(t *testing.T, teleID int64, code string) {
	t.Helper()
	h.call(t, teleID, h.bot.handleStart, "")
	c := h.say(t, teleID, code)
	require.Equal(t, messages["invite_ok"], c.last())
}

// draft walks the dialog up to the confirmation step.
func (h *harness) draft(t *testing.T, teleID int64, start, end string) *fakeContext {
	t.Helper()
	c := h.say(t, teleID, dateLabel(nextDay))
	require.Contains(t, c.last(), "12.03.2030")
	c = h.say(t, teleID, slotPrefix+start)
	require.Equal(t, messages["choose_end"], c.last())
	c = h.say(t, teleID, slotPrefix+end)
	require.Equal(t, messages["notes_prompt"], c.last())
	return h.say(t, teleID, "-")
}

func (h *harness) session(t *testing.T, teleID int64) *Session {
	t.Helper()
	s, err := h.bot.Sessions.Get(context.Background(), teleID)
	require.NoError(t, err)
	return s
}

func TestStartGatesOnInvite(t *testing.T) {
	h := newHarness(t)

	c := h.call(t, 1, h.bot.handleStart, "")
	assert.Equal(t, messages["invite_prompt"], c.last())
	assert.Equal(t, StateInvite, h.session(t, 1).State)

	c = h.say(t, 1, "wrong")
	assert.Equal(t, messages["invite_bad"], c.last())

	c = h.say(t, 1, " default123 ")
	assert.Equal(t, messages["invite_ok"], c.last())
	assert.Equal(t, StateIdle, h.session(t, 1).State)

	u, err := h.svc.User().Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann", u.Username)

	c = h.call(t, 1, h.bot.handleStart, "")
	assert.Equal(t, messages["welcome"], c.last())

	// The code is single use.
	h.call(t, 2, h.bot.handleStart, "")
	c = h.say(t, 2, "default123")
	assert.Equal(t, messages["invite_bad"], c.last())
}

func TestInactiveUserIsBlocked(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")
	u, err := h.svc.User().Get(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, h.svc.User().SetActive(context.Background(), u.ID, false))

	assert.Equal(t, messages["blocked"], h.call(t, 1, h.bot.handleStart, "").last())
	assert.Equal(t, messages["blocked"], h.say(t, 1, dateLabel(nextDay)).last())
}

func TestInviteAttemptsThrottled(t *testing.T) {
	h := newHarness(t)
	h.call(t, 1, h.bot.handleStart, "")

	for i := 0; i < 3; i++ {
		assert.Equal(t, messages["invite_bad"], h.say(t, 1, "guess"+strconv.Itoa(i)).last())
	}
	assert.Equal(t, messages["invite_throttle"], h.say(t, 1, "default123").last())
}

func TestUnregisteredUserCannotBook(t *testing.T) {
	h := newHarness(t)

	c := h.say(t, 5, dateLabel(nextDay))
	assert.Equal(t, messages["no_user"], c.last())

	c = h.call(t, 5, h.bot.handleMyBookings, "")
	assert.Equal(t, messages["no_user"], c.last())
}

func TestBookingDialog(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	c := h.draft(t, 1, "10:00", "11:00")
	assert.Contains(t, c.last(), "10:00 - 11:00")
	assert.Contains(t, c.last(), messages["no_notes"])
	require.NotNil(t, c.markup)
	require.Len(t, c.markup.InlineKeyboard, 2)

	c = h.call(t, 1, h.bot.handleConfirm, "")
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "подтверждено")
	assert.Equal(t, messages["main_menu"], c.last())
	assert.Equal(t, 1, c.responded)
	assert.Equal(t, StateIdle, h.session(t, 1).State)

	active, err := h.svc.Booking().ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].StartTime.Equal(time.Date(2030, 3, 12, 9, 30, 0, 0, testLoc)))
	assert.True(t, active[0].EndTime.Equal(time.Date(2030, 3, 12, 11, 30, 0, 0, testLoc)))
	assert.Nil(t, active[0].Notes)

	// The padded interval is gone from the grid.
	c = h.say(t, 1, dateLabel(nextDay))
	var labels []string
	for _, row := range c.markup.ReplyKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
		}
	}
	assert.NotContains(t, labels, slotPrefix+"09:30")
	assert.NotContains(t, labels, slotPrefix+"11:00")
	assert.Contains(t, labels, slotPrefix+"11:30")
}

func TestDialogKeepsNotes(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	h.say(t, 1, dateLabel(nextDay))
	h.say(t, 1, slotPrefix+"15:00")
	h.say(t, 1, slotPrefix+"16:30")
	c := h.say(t, 1, "Терминал D")
	assert.Contains(t, c.last(), "Терминал D")

	h.call(t, 1, h.bot.handleConfirm, "")
	mine, err := h.svc.Booking().ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Notes)
	assert.Equal(t, "Терминал D", *mine[0].Notes)
}

func TestDialogRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	h.say(t, 1, dateLabel(nextDay))
	assert.Equal(t, messages["bad_time"], h.say(t, 1, "noon").last())

	h.say(t, 1, slotPrefix+"10:00")
	assert.Equal(t, messages["end_before"], h.say(t, 1, slotPrefix+"09:00").last())

	assert.Equal(t, messages["bad_date"], h.say(t, 1, "Пн 31.02").last())
}

func TestDialogSkipsPastSlots(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	c := h.say(t, 1, dateLabel(testNow))
	require.NotNil(t, c.markup)
	assert.Equal(t, slotPrefix+"12:00", c.markup.ReplyKeyboard[0][0].Text)

	assert.Equal(t, messages["past_time"], h.say(t, 1, slotPrefix+"09:00").last())
}

func TestConfirmConflict(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")
	require.NoError(t, h.svc.Invite().Ensure(context.Background(), "second"))
	h.register(t, 2, "second")

	h.draft(t, 1, "10:00", "11:00")
	h.draft(t, 2, "10:00", "11:00")

	c := h.call(t, 1, h.bot.handleConfirm, "")
	assert.Contains(t, c.edited[0], "подтверждено")

	c = h.call(t, 2, h.bot.handleConfirm, "")
	assert.Equal(t, []string{messages["conflict"]}, c.edited)

	active, err := h.svc.Booking().ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestConfirmWithoutDraftIsStale(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	c := h.call(t, 1, h.bot.handleConfirm, "")
	assert.Equal(t, []string{messages["stale"]}, c.edited)
}

func TestAbortDropsDraft(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")
	h.draft(t, 1, "10:00", "11:00")

	c := h.call(t, 1, h.bot.handleAbort, "")
	assert.Equal(t, []string{messages["aborted"]}, c.edited)
	assert.Equal(t, StateIdle, h.session(t, 1).State)

	active, err := h.svc.Booking().ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestMyBookingsAndCancel(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	c := h.call(t, 1, h.bot.handleMyBookings, "")
	assert.Equal(t, messages["no_bookings"], c.last())

	h.draft(t, 1, "10:00", "11:00")
	h.call(t, 1, h.bot.handleConfirm, "")

	c = h.call(t, 1, h.bot.handleMyBookings, "")
	require.Len(t, c.sent, 2)
	assert.Contains(t, c.sent[1], "12.03.2030 10:00 - 11:00")
	assert.Contains(t, c.sent[1], "Персональный водитель")

	active, err := h.svc.Booking().ListActive(context.Background())
	require.NoError(t, err)
	id := strconv.FormatInt(active[0].ID, 10)

	// Another user cannot cancel it.
	require.NoError(t, h.svc.Invite().Ensure(context.Background(), "second"))
	h.register(t, 2, "second")
	c = h.call(t, 2, h.bot.handleUserCancel, id)
	assert.Empty(t, c.edited)

	c = h.call(t, 1, h.bot.handleUserCancel, id)
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "отменено")

	c = h.call(t, 1, h.bot.handleMyBookings, "")
	assert.Equal(t, messages["no_bookings"], c.last())
}

func TestAdminOnly(t *testing.T) {
	h := newHarness(t)

	c := h.call(t, 1, h.bot.adminOnly(h.bot.handleAdmin), "")
	assert.Equal(t, messages["denied"], c.last())

	c = h.call(t, adminID, h.bot.adminOnly(h.bot.handleAdmin), "")
	assert.Equal(t, messages["admin_panel"], c.last())
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "default123")

	c := h.call(t, adminID, h.bot.handleAdminBookings, "")
	assert.Equal(t, messages["admin_none"], c.last())

	h.draft(t, 1, "10:00", "11:00")
	h.call(t, 1, h.bot.handleConfirm, "")

	c = h.call(t, adminID, h.bot.handleAdminBookings, "")
	assert.Contains(t, c.last(), "Ann (@ann)")
	assert.Contains(t, c.last(), "12.03.2030 09:30 - 11:30")

	c = h.call(t, adminID, h.bot.handleAdminDrivers, "")
	assert.Contains(t, c.last(), "Персональный водитель")

	c = h.call(t, adminID, h.bot.handleAddInvite, "", "VIP")
	assert.Equal(t, fmt.Sprintf(messages["invite_added"], "VIP"), c.last())
	c = h.call(t, adminID, h.bot.handleAddInvite, "", "VIP")
	assert.Equal(t, messages["invite_dup"], c.last())

	h.call(t, adminID, h.bot.handleAddInvite, "")
	assert.Equal(t, StateAdminInvite, h.session(t, adminID).State)
	c = h.say(t, adminID, "-")
	assert.True(t, strings.HasPrefix(c.last(), "Инвайт-код '"))

	active, err := h.svc.Booking().ListActive(context.Background())
	require.NoError(t, err)
	id := strconv.FormatInt(active[0].ID, 10)

	h.call(t, adminID, h.bot.handleAdminCancel, "")
	assert.Equal(t, messages["bad_id"], h.say(t, adminID, "abc").last())
	assert.Equal(t, fmt.Sprintf(messages["admin_canceled"], active[0].ID), h.say(t, adminID, id).last())

	c = h.call(t, adminID, h.bot.handleAdminCancel, "", id)
	assert.Equal(t, messages["not_found"], c.last())

	c = h.call(t, adminID, h.bot.handleCleanup, "")
	assert.Equal(t, fmt.Sprintf(messages["cleaned"], 1), c.last())
	c = h.call(t, adminID, h.bot.handleCleanup, "")
	assert.Equal(t, fmt.Sprintf(messages["cleaned"], 0), c.last())
}

type stubSender struct {
	to   tele.Recipient
	text string
	err  error
}

func (s *stubSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	s.to, s.text = to, fmt.Sprint(what)
	return &tele.Message{}, s.err
}

func TestAdminNotifier(t *testing.T) {
	notes := "gate 4"
	b := &models.Booking{
		ID: 9, UserName: "Ann", Username: "ann", DriverName: "Driver",
		StartTime: time.Date(2030, 3, 12, 6, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2030, 3, 12, 8, 30, 0, 0, time.UTC),
		Notes:     &notes,
	}

	s := &stubSender{}
	require.NoError(t, NewAdminNotifier(s, adminID, testLoc).BookingCreated(context.Background(), b))
	assert.Equal(t, "100", s.to.Recipient())
	assert.Contains(t, s.text, "#9")
	assert.Contains(t, s.text, "10:00 - 11:00")
	assert.Contains(t, s.text, "gate 4")

	s = &stubSender{err: errors.New("blocked by user")}
	assert.Error(t, NewAdminNotifier(s, adminID, testLoc).BookingCreated(context.Background(), b))

	s = &stubSender{}
	require.NoError(t, NewAdminNotifier(s, 0, testLoc).BookingCreated(context.Background(), b))
	assert.Nil(t, s.to)
}
