package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	authrepo "sendahandyman-backend/internal/auth/repository"
	"sendahandyman-backend/pkg/fcm"

	"go.uber.org/zap"
)

// Kind names the message template the downstream sender renders
type Kind string

const (
	SMSBookingConfirmation      Kind = "booking_confirmation"
	SMSJobComplete              Kind = "job_complete"
	SMSAdditionalCharge         Kind = "additional_charge"
	SMSQuoteBookingConfirmation Kind = "quote_booking_confirmation"

	EmailBookingConfirmation Kind = "booking_confirmation"
	EmailTaskCompletion      Kind = "task_completion"
	EmailAdditionalCharge    Kind = "additional_charge"
	EmailQuoteBooking        Kind = "quote_booking"
)

// Channel is the delivery medium of a notification
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Payload is the template data for a notification
type Payload map[string]interface{}

// Envelope is the message body published for the SMS and email senders
type Envelope struct {
	Channel Channel   `json:"channel"`
	Kind    Kind      `json:"kind"`
	Payload Payload   `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Alert is a push notification for admin devices
type Alert struct {
	Title string
	Body  string
	Data  map[string]string
}

// Dispatcher sends customer notifications
type Dispatcher interface {
	NotifySMS(ctx context.Context, kind Kind, payload Payload) error
	NotifyEmail(ctx context.Context, kind Kind, payload Payload) error
}

// AdminAlerter pushes operational alerts to admin devices
type AdminAlerter interface {
	AlertAdmins(ctx context.Context, alert Alert) error
}

// Notifier is everything the payment flows need from this package
type Notifier interface {
	Dispatcher
	AdminAlerter
}

// PushSender is the subset of the FCM client used for admin alerts
type PushSender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
}

// publishTimeout bounds how long a dispatch waits for the broker ack
const publishTimeout = 5 * time.Second

type Service struct {
	publisher  Publisher
	smsTopic   string
	emailTopic string
	fcmRepo    authrepo.FCMTokenRepository
	push       PushSender
	logger     *zap.Logger
}

// NewService wires the notifier. publisher and push may be nil, in which
// case that channel is disabled and dispatches are only logged.
func NewService(publisher Publisher, smsTopic, emailTopic string, fcmRepo authrepo.FCMTokenRepository, push PushSender, logger *zap.Logger) *Service {
	return &Service{
		publisher:  publisher,
		smsTopic:   smsTopic,
		emailTopic: emailTopic,
		fcmRepo:    fcmRepo,
		push:       push,
		logger:     logger.Named("notification"),
	}
}

func (s *Service) NotifySMS(ctx context.Context, kind Kind, payload Payload) error {
	return s.dispatch(ctx, ChannelSMS, s.smsTopic, kind, payload)
}

func (s *Service) NotifyEmail(ctx context.Context, kind Kind, payload Payload) error {
	return s.dispatch(ctx, ChannelEmail, s.emailTopic, kind, payload)
}

func (s *Service) dispatch(ctx context.Context, channel Channel, topic string, kind Kind, payload Payload) error {
	if s.publisher == nil {
		s.logger.Warn("Publisher not configured, notification dropped",
			zap.String("channel", string(channel)),
			zap.String("kind", string(kind)),
		)
		return nil
	}

	data, err := json.Marshal(Envelope{
		Channel: channel,
		Kind:    kind,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", channel, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	attrs := map[string]string{"channel": string(channel), "kind": string(kind)}
	if err := s.publisher.Publish(ctx, topic, data, attrs); err != nil {
		return err
	}
	s.logger.Info("Notification dispatched", zap.String("channel", string(channel)), zap.String("kind", string(kind)))
	return nil
}

// AlertAdmins pushes to every registered admin device and prunes tokens FCM rejects.
func (s *Service) AlertAdmins(ctx context.Context, alert Alert) error {
	if s.push == nil || s.fcmRepo == nil {
		s.logger.Warn("FCM not configured, admin alert only logged",
			zap.String("title", alert.Title),
			zap.String("body", alert.Body),
		)
		return nil
	}

	tokens, err := s.fcmRepo.GetAllTokens(ctx)
	if err != nil {
		return fmt.Errorf("load admin device tokens: %w", err)
	}
	if len(tokens) == 0 {
		s.logger.Warn("No admin devices registered, alert only logged", zap.String("title", alert.Title))
		return nil
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	failed, err := s.push.SendToDevices(ctx, tokenStrings, fcm.NotificationData{
		Title:       alert.Title,
		Body:        alert.Body,
		Data:        alert.Data,
		ClickAction: "/admin/tasks",
	})
	if err != nil {
		return err
	}

	for _, token := range failed {
		if err := s.fcmRepo.DeleteToken(ctx, token); err != nil {
			s.logger.Warn("Failed to prune admin device token", zap.Error(err))
		}
	}
	s.logger.Info("Admin alert sent", zap.Int("devices", len(tokenStrings)-len(failed)))
	return nil
}
