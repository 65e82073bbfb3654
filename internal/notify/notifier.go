// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/conversation/handlers"
	"careescapes-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"

	typeBookingRequested = "booking_requested"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type Config struct {
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
	SenderID     string
	// Addresses in this domain were generated for name-only profiles and
	// are never mailed.
	PlaceholderDomain string
}

// BookingNotifier wraps a booking service and confirms each created booking
// to its user. Delivery problems are logged and never fail the booking.
type BookingNotifier struct {
	next   handlers.BookingService
	users  UserLookup
	ses    SESService
	sns    SNSService
	config Config
	logger logger.Logger
}

func NewBookingNotifier(next handlers.BookingService, users UserLookup, sesClient SESService, snsClient SNSService, cfg Config, log logger.Logger) *BookingNotifier {
	return &BookingNotifier{
		next:   next,
		users:  users,
		ses:    sesClient,
		sns:    snsClient,
		config: cfg,
		logger: log.With(map[string]interface{}{"component": "notify"}),
	}
}

func (n *BookingNotifier) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	booking, err := n.next.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}
	n.Confirm(ctx, booking)
	return booking, nil
}

func (n *BookingNotifier) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return n.next.GetUserBookings(ctx, userID)
}

func (n *BookingNotifier) CancelBooking(ctx context.Context, bookingID string) error {
	return n.next.CancelBooking(ctx, bookingID)
}

// Confirm sends the booking confirmation over every enabled channel and
// reports what happened per channel.
func (n *BookingNotifier) Confirm(ctx context.Context, booking *models.Booking) []models.Notification {
	user, err := n.users.GetUser(ctx, booking.UserID)
	if err != nil {
		n.logger.Warn("confirmation skipped, user lookup failed", map[string]interface{}{
			"bookingId": booking.BookingID,
			"userId":    booking.UserID,
			"error":     err,
		})
		return nil
	}

	subject, body := confirmationMessage(user, booking)
	results := []models.Notification{
		n.deliver(ChannelEmail, user, booking, n.emailTarget(user), func(to string) error {
			return n.sendEmail(ctx, to, subject, body)
		}),
		n.deliver(ChannelSMS, user, booking, n.smsTarget(user), func(to string) error {
			return n.sendSMS(ctx, to, body)
		}),
	}
	return results
}

func (n *BookingNotifier) emailTarget(user *models.User) string {
	if !n.config.EmailEnabled || n.ses == nil || user.EmailID == "" {
		return ""
	}
	if n.config.PlaceholderDomain != "" && strings.HasSuffix(strings.ToLower(user.EmailID), "@"+strings.ToLower(n.config.PlaceholderDomain)) {
		return ""
	}
	return user.EmailID
}

func (n *BookingNotifier) smsTarget(user *models.User) string {
	if !n.config.SMSEnabled || n.sns == nil {
		return ""
	}
	return user.Mobile
}

func (n *BookingNotifier) deliver(channel string, user *models.User, booking *models.Booking, to string, send func(string) error) models.Notification {
	note := models.Notification{
		ID:          uuid.New().String(),
		RecipientID: user.UserID,
		Type:        typeBookingRequested,
		Channel:     channel,
		Reference:   booking.BookingID,
	}

	if to == "" {
		note.Status = StatusSkipped
	} else if err := send(to); err != nil {
		note.Status = StatusFailed
		n.logger.Error("booking confirmation failed", map[string]interface{}{
			"bookingId": booking.BookingID,
			"error":     errors.NewNotificationSendFailedError(channel, err),
		})
	} else {
		note.Status = StatusSent
		note.SentAt = time.Now().UTC().Format(time.RFC3339)
	}

	metrics.NotificationsSent.WithLabelValues(channel, note.Status).Inc()
	return note
}

func (n *BookingNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *BookingNotifier) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.config.SenderID)},
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}

func confirmationMessage(user *models.User, booking *models.Booking) (string, string) {
	subject := "Your CareEscapes appointment request"
	body := fmt.Sprintf("Hi %s, we received your appointment request for %s. Booking ID: %s. Status: %s.",
		user.FirstName,
		booking.AppointmentStart.Format("Monday, January 2, 2006 at 15:04"),
		booking.BookingID,
		booking.BookingStatus,
	)
	return subject, body
}
