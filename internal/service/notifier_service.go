package service

import (
	"context"
	"strings"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/internal/pkg/logger"
	"ai-storybook-be/internal/pkg/mailer"
	"ai-storybook-be/pkg/events"
	pktNats "ai-storybook-be/pkg/nats"

	"github.com/google/uuid"
)

// ProgressDelivery is how real-time updates reach connected clients.
// Implemented by the websocket Hub.
type ProgressDelivery interface {
	Send(userID uuid.UUID, eventType string, data interface{})
}

// NotifierService drains the durable event stream and turns domain events
// into user-facing pushes: websocket frames for every stage change, plus a
// completion email once a storybook finishes.
type NotifierService struct {
	subscriber *pktNats.Subscriber
	delivery   ProgressDelivery
	mailer     mailer.IEmailService
	logger     logger.ILogger
}

func NewNotifierService(sub *pktNats.Subscriber, delivery ProgressDelivery, mail mailer.IEmailService, log logger.ILogger) *NotifierService {
	return &NotifierService{
		subscriber: sub,
		delivery:   delivery,
		mailer:     mail,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer, so pushes
// survive instance restarts.
func (s *NotifierService) Start() {
	err := s.subscriber.Subscribe("events.>", "storybook-notifier", s.handleEvent)
	if err != nil {
		s.logger.Error("NotifierService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotifierService", "Notifier started, listening to events.>", nil)
}

func (s *NotifierService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	payload := event.Payload()

	userId, ok := parseUUIDField(payload, "user_id")
	if !ok {
		s.logger.Warn("NotifierService", "Event without user_id, skipping", map[string]interface{}{"type": typeCode})
		return nil
	}

	switch typeCode {
	case constant.EventStageStatusChanged:
		s.delivery.Send(userId, "stage_progress", payload)

	case constant.EventSessionFinalized:
		s.delivery.Send(userId, "session_closing", payload)

	case constant.EventStorybookCompleted:
		s.delivery.Send(userId, "storybook_completed", payload)

		email, _ := payload["email"].(string)
		title, _ := payload["title"].(string)
		artifactId, _ := payload["artifact_id"].(string)
		if email != "" && s.mailer != nil {
			if err := s.mailer.SendStorybookReady(email, title, artifactId); err != nil {
				// Mail failures must not requeue the event, delivery over the
				// socket already happened.
				s.logger.Warn("NotifierService", "Completion mail failed", map[string]interface{}{
					"email": email,
					"error": err.Error(),
				})
			}
		}

	default:
		s.logger.Debug("NotifierService", "Unhandled event type", map[string]interface{}{"type": typeCode})
	}

	return nil
}

func parseUUIDField(payload map[string]interface{}, key string) (uuid.UUID, bool) {
	raw, ok := payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
