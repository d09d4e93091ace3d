package bot

import (
	"regexp"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v3"

	"driverbook/pkg/models"
)

const (
	calendarDays = 60
	perRow       = 4
	slotPrefix   = "🟡 "
)

var (
	inline        = &tele.ReplyMarkup{}
	btnConfirm    = inline.Data("✅ Подтвердить", "confirm_booking")
	btnAbort      = inline.Data("❌ Отменить", "abort_booking")
	btnUserCancel = inline.Data("❌ Отменить бронь", "user_cancel")
)

var (
	dateRx = regexp.MustCompile(`^\p{Cyrillic}{2} (\d{2})\.(\d{2})$`)
	slotRx = regexp.MustCompile(`^🟡 (\d{2}):(\d{2})$`)
)

var weekdays = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func mainMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	m.Reply(m.Row(m.Text(btnCalendarMenu)), m.Row(m.Text(btnMyBookings)))
	return m
}

func calendarMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	m.Reply(m.Row(m.Text(btnShowCalendar)), m.Row(m.Text(btnBack)))
	return m
}

func backMenu() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	m.Reply(m.Row(m.Text(btnBack)))
	return m
}

func gridMenu(labels []string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	var rows []tele.Row
	var row []tele.Btn
	for _, l := range labels {
		row = append(row, m.Text(l))
		if len(row) == perRow {
			rows = append(rows, m.Row(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, m.Row(row...))
	}
	rows = append(rows, m.Row(m.Text(btnBack)))
	m.Reply(rows...)
	return m
}

// datesMenu offers calendarDays consecutive days starting at today.
func datesMenu(today time.Time) *tele.ReplyMarkup {
	labels := make([]string, 0, calendarDays)
	for i := 0; i < calendarDays; i++ {
		labels = append(labels, dateLabel(today.AddDate(0, 0, i)))
	}
	return gridMenu(labels)
}

func slotsMenu(free []models.TimeRange) *tele.ReplyMarkup {
	labels := make([]string, 0, len(free))
	for _, s := range free {
		labels = append(labels, slotLabel(s.Start))
	}
	return gridMenu(labels)
}

func endsMenu(ends []time.Time) *tele.ReplyMarkup {
	labels := make([]string, 0, len(ends))
	for _, e := range ends {
		labels = append(labels, slotLabel(e))
	}
	return gridMenu(labels)
}

func confirmMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(btnConfirm), m.Row(btnAbort))
	return m
}

func bookingMarkup(id int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(btnUserCancel.Text, btnUserCancel.Unique, strconv.FormatInt(id, 10))))
	return m
}

func dateLabel(d time.Time) string {
	return weekdays[d.Weekday()] + " " + d.Format("02.01")
}

func slotLabel(t time.Time) string {
	return slotPrefix + t.Format("15:04")
}

// parseDateLabel resolves "Пн 12.08" to midnight in loc. Days already past
// this year roll over to the next one.
func parseDateLabel(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	m := dateRx.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	now = now.In(loc)
	d := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

// parseSlotLabel returns the wall clock time on date named by a slot button.
func parseSlotLabel(text string, date time.Time, loc *time.Location) (time.Time, bool) {
	m := slotRx.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return time.Time{}, false
	}
	y, mo, d := date.In(loc).Date()
	return time.Date(y, mo, d, h, mm, 0, 0, loc), true
}
