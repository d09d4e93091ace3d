package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"driverbook/pkg/logger"
	"driverbook/pkg/models"
	"driverbook/pkg/schedule"
)

const DefaultSubject = "booking.created"

type natsPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// BookingEvent is the JSON payload published for every new booking. Start
// and End are the nominal times; StoredStart and StoredEnd carry the buffer.
type BookingEvent struct {
	BookingID   int64     `json:"booking_id"`
	DriverID    int64     `json:"driver_id"`
	UserID      int64     `json:"user_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StoredStart time.Time `json:"stored_start"`
	StoredEnd   time.Time `json:"stored_end"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewBookingEvent(b *models.Booking) BookingEvent {
	nominal := b.Nominal(schedule.Buffer)
	ev := BookingEvent{
		BookingID:   b.ID,
		DriverID:    b.DriverID,
		UserID:      b.UserID,
		Start:       nominal.Start,
		End:         nominal.End,
		StoredStart: b.StartTime,
		StoredEnd:   b.EndTime,
		CreatedAt:   b.CreatedAt,
	}
	if b.Notes != nil {
		ev.Notes = *b.Notes
	}
	return ev
}

type NATSPublisher struct {
	publisher natsPublisher
	subject   string
	log       logger.ILogger
}

// NewNATSPublisher accepts a *nats.Conn or anything with the same PublishMsg.
func NewNATSPublisher(conn natsPublisher, subject string, log logger.ILogger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{publisher: conn, subject: subject, log: log}
}

func (p *NATSPublisher) BookingCreated(ctx context.Context, b *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(NewBookingEvent(b))
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = payload
	msg.Header.Set("Booking-Id", fmt.Sprint(b.ID))
	if err := p.publisher.PublishMsg(msg); err != nil {
		p.log.Warning("booking event publish failed", logger.Int64("booking_id", b.ID), logger.Error(err))
		return fmt.Errorf("publish booking %d: %w", b.ID, err)
	}
	p.log.Debug("booking event published", logger.Int64("booking_id", b.ID), logger.String("subject", p.subject))
	return nil
}
