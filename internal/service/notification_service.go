package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go-telehealth-booking/internal/converter"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	EventAppointmentCreated = "appointment_created"
	EventAppointmentUpdated = "appointment_updated"

	defaultNotificationTimeout = 5 * time.Second
)

// NotificationPort delivers an event to every subscriber of channelKey
type NotificationPort interface {
	Publish(ctx context.Context, channelKey string, event string, payload interface{}) error
}

// UserChannel is the per-user channel both participants of an appointment listen on
func UserChannel(userID uuid.UUID) string {
	return "user_" + userID.String()
}

// Envelope is the message body written to the pub/sub channel
type Envelope struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emitted_at"`
}

type redisNotificationPort struct {
	client *redis.Client
}

func NewRedisNotificationPort(client *redis.Client) NotificationPort {
	return &redisNotificationPort{client: client}
}

func (p *redisNotificationPort) Publish(ctx context.Context, channelKey string, event string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	msg, err := json.Marshal(Envelope{
		Event:     event,
		Payload:   body,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	if err := p.client.Publish(ctx, channelKey, msg).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event, channelKey, err)
	}
	return nil
}

// AppointmentNotifier fans appointment events out to both participants.
// Delivery is asynchronous and never reports failure to the caller.
type AppointmentNotifier interface {
	NotifyParticipants(event string, appointment *entity.Appointment)
	// Wait blocks until every in-flight publish has finished
	Wait()
}

type appointmentNotifier struct {
	port    NotificationPort
	log     *logrus.Logger
	metrics *Metrics
	policy  lifecycle.Policy
	clock   lifecycle.Clock
	timeout time.Duration

	wg sync.WaitGroup
}

func NewAppointmentNotifier(
	port NotificationPort,
	log *logrus.Logger,
	metrics *Metrics,
	policy lifecycle.Policy,
	clock lifecycle.Clock,
	timeout time.Duration,
) AppointmentNotifier {
	if timeout <= 0 {
		timeout = defaultNotificationTimeout
	}
	if clock == nil {
		clock = time.Now
	}
	return &appointmentNotifier{
		port:    port,
		log:     log,
		metrics: metrics,
		policy:  policy,
		clock:   clock,
		timeout: timeout,
	}
}

func (n *appointmentNotifier) NotifyParticipants(event string, appointment *entity.Appointment) {
	if appointment == nil {
		return
	}
	payload := converter.AppointmentToResponse(appointment, n.policy, n.clock())

	for _, userID := range appointment.Participants() {
		n.wg.Add(1)
		go func(userID uuid.UUID) {
			defer n.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
			defer cancel()

			if err := n.port.Publish(ctx, UserChannel(userID), event, payload); err != nil {
				n.log.WithFields(logrus.Fields{
					"event":          event,
					"appointment_id": appointment.ID,
					"user_id":        userID,
				}).Warnf("Failed to publish notification: %+v", err)
				n.metrics.ObserveNotificationFailure(event)
			}
		}(userID)
	}
}

func (n *appointmentNotifier) Wait() {
	n.wg.Wait()
}
