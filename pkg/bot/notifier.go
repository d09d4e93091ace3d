package bot

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"driverbook/pkg/models"
	"driverbook/pkg/schedule"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AdminNotifier posts every new booking to the admin chat.
type AdminNotifier struct {
	api     messageSender
	adminID int64
	loc     *time.Location
}

func NewAdminNotifier(api messageSender, adminID int64, loc *time.Location) *AdminNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminNotifier{api: api, adminID: adminID, loc: loc}
}

func (n *AdminNotifier) BookingCreated(ctx context.Context, b *models.Booking) error {
	if n.adminID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.api.Send(tele.ChatID(n.adminID), n.text(b)); err != nil {
		return fmt.Errorf("notify admin about booking %d: %w", b.ID, err)
	}
	return nil
}

func (n *AdminNotifier) text(b *models.Booking) string {
	nominal := b.Nominal(schedule.Buffer)
	return fmt.Sprintf(messages["notify_new"], b.ID,
		dash(b.UserName), dash(b.Username), dash(b.DriverName),
		nominal.Start.In(n.loc).Format(dayFormat),
		nominal.Start.In(n.loc).Format(timeFormat), nominal.End.In(n.loc).Format(timeFormat),
		orNoteNone(b.Notes))
}
