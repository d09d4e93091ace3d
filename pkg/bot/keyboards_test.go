package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverbook/pkg/models"
	"driverbook/pkg/schedule"
)

func TestDatesMenu(t *testing.T) {
	today := time.Date(2030, 3, 11, 0, 0, 0, 0, time.UTC)
	m := datesMenu(today)

	require.Len(t, m.ReplyKeyboard, 16)
	assert.Len(t, m.ReplyKeyboard[0], perRow)
	assert.Equal(t, "Пн 11.03", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "Вт 12.03", m.ReplyKeyboard[0][1].Text)
	assert.Equal(t, btnBack, m.ReplyKeyboard[15][0].Text)
}

func TestSlotsMenu(t *testing.T) {
	day := time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC)
	m := slotsMenu(schedule.Candidates(day, time.UTC)[:5])

	require.Len(t, m.ReplyKeyboard, 3)
	assert.Equal(t, "🟡 08:00", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "🟡 10:00", m.ReplyKeyboard[1][0].Text)
	assert.Equal(t, btnBack, m.ReplyKeyboard[2][0].Text)
}

func TestParseDateLabel(t *testing.T) {
	now := time.Date(2030, 12, 20, 15, 0, 0, 0, time.UTC)

	d, ok := parseDateLabel("Пт 20.12", now, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 12, 20, 0, 0, 0, 0, time.UTC), d)

	d, ok = parseDateLabel("Ср 08.01", now, time.UTC)
	require.True(t, ok)
	assert.Equal(t, 2031, d.Year(), "past days roll over to next year")

	for _, bad := range []string{"20.12", "Fr 20.12", "Пт 31.02", "Пт 20.13", "Пт 2.1"} {
		_, ok = parseDateLabel(bad, now, time.UTC)
		assert.False(t, ok, bad)
	}
}

func TestParseSlotLabel(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	day := time.Date(2030, 3, 12, 0, 0, 0, 0, loc)

	got, ok := parseSlotLabel("🟡 21:30", day, loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 3, 12, 21, 30, 0, 0, loc), got)

	for _, bad := range []string{"21:30", "🟡 25:00", "🟡 10:75", "🟡 9:00"} {
		_, ok = parseSlotLabel(bad, day, loc)
		assert.False(t, ok, bad)
	}
}

func TestEndsMenuFollowsFreeRun(t *testing.T) {
	day := time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC)
	busy := []models.TimeRange{{
		Start: time.Date(2030, 3, 12, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2030, 3, 12, 12, 0, 0, 0, time.UTC),
	}}
	free := schedule.Free(schedule.Candidates(day, time.UTC), busy)
	ends := schedule.EndChoices(free, time.Date(2030, 3, 12, 10, 0, 0, 0, time.UTC))

	m := endsMenu(ends)
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "🟡 10:30", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "🟡 11:00", m.ReplyKeyboard[0][1].Text)
}
