package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Courier delivers a coaching message to the instructor. Delivery failures
// are returned to the caller; there is no retry here.
type Courier interface {
	Deliver(ctx context.Context, rec *Record) error
}

// AddressBook resolves a teacher id to a display name and email address.
// Backed by the roster store.
type AddressBook interface {
	TeacherContact(ctx context.Context, teacherID string) (name, email string, err error)
}

// LogCourier stands in when no email transport is configured; the reminder
// still lands in the log and on the notification bus.
type LogCourier struct {
	log *slog.Logger
}

func NewLogCourier(logger *slog.Logger) *LogCourier {
	return &LogCourier{log: logger.With("component", "reminder_courier")}
}

func (c *LogCourier) Deliver(_ context.Context, rec *Record) error {
	c.log.Info("reminder delivered",
		"teacher_id", rec.TeacherID, "session_id", rec.SessionID,
		"type", rec.Type, "sent_by", rec.SentBy)
	return nil
}

// SendgridCourier emails the reminder to the instructor.
type SendgridCourier struct {
	client    *sendgrid.Client
	from      *sgmail.Email
	addresses AddressBook
}

func NewSendgridCourier(apiKey, fromName, fromEmail string, addresses AddressBook) *SendgridCourier {
	return &SendgridCourier{
		client:    sendgrid.NewSendClient(apiKey),
		from:      sgmail.NewEmail(fromName, fromEmail),
		addresses: addresses,
	}
}

func (c *SendgridCourier) Deliver(ctx context.Context, rec *Record) error {
	name, email, err := c.addresses.TeacherContact(ctx, rec.TeacherID)
	if err != nil {
		return fmt.Errorf("resolving teacher address: %w", err)
	}

	subject := "[ClassWatch] Coaching reminder"
	to := sgmail.NewEmail(name, email)
	msg := sgmail.NewSingleEmail(c.from, subject, to, rec.Message, "")

	resp, err := c.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending reminder email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected reminder: status %d", resp.StatusCode)
	}
	return nil
}
