package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func sampleAppointment() *entity.Appointment {
	return &entity.Appointment{
		ID:               uuid.New(),
		PatientID:        uuid.New(),
		DoctorID:         uuid.New(),
		AppointmentDate:  time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:        "09:00:00",
		EndTime:          "09:30:00",
		Status:           entity.AppointmentStatusInProgress,
		VideoChannelName: "appt_test",
	}
}

func TestRedisNotificationPort_Publish(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "user_abc")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	port := NewRedisNotificationPort(client)
	require.NoError(t, port.Publish(ctx, "user_abc", EventAppointmentUpdated, map[string]string{"status": "completed"}))

	select {
	case msg := <-sub.Channel():
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, EventAppointmentUpdated, env.Event)
		assert.JSONEq(t, `{"status":"completed"}`, string(env.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestAppointmentNotifier_NotifiesBothParticipants(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	appt := sampleAppointment()

	sub := client.Subscribe(ctx, UserChannel(appt.PatientID), UserChannel(appt.DoctorID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	now := func() time.Time { return time.Date(2024, 6, 10, 9, 10, 0, 0, time.UTC) }
	notifier := NewAppointmentNotifier(NewRedisNotificationPort(client), log, nil, lifecycle.DefaultPolicy(), now, time.Second)

	notifier.NotifyParticipants(EventAppointmentUpdated, appt)
	notifier.Wait()

	got := map[string]dto.AppointmentResponse{}
	for len(got) < 2 {
		select {
		case msg := <-sub.Channel():
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
			var resp dto.AppointmentResponse
			require.NoError(t, json.Unmarshal(env.Payload, &resp))
			got[msg.Channel] = resp
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of 2 messages", len(got))
		}
	}

	patientMsg := got[UserChannel(appt.PatientID)]
	assert.Equal(t, appt.ID, patientMsg.ID)
	assert.Equal(t, "in_progress", patientMsg.Status)
	assert.Equal(t, "ongoing", patientMsg.Phase)
	assert.True(t, patientMsg.CanJoin)
	assert.Contains(t, got, UserChannel(appt.DoctorID))
}

type failingPort struct{}

func (failingPort) Publish(ctx context.Context, channelKey string, event string, payload interface{}) error {
	return errors.New("redis down")
}

func TestAppointmentNotifier_FailureIsLoggedNotReturned(t *testing.T) {
	log, hook := test.NewNullLogger()
	metrics := NewMetrics(prometheus.NewRegistry())
	notifier := NewAppointmentNotifier(failingPort{}, log, metrics, lifecycle.DefaultPolicy(), nil, 0)

	notifier.NotifyParticipants(EventAppointmentCreated, sampleAppointment())
	notifier.Wait()

	assert.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues(EventAppointmentCreated)))
}

func TestAppointmentNotifier_NilAppointment(t *testing.T) {
	log, hook := test.NewNullLogger()
	notifier := NewAppointmentNotifier(failingPort{}, log, nil, lifecycle.DefaultPolicy(), nil, 0)

	notifier.NotifyParticipants(EventAppointmentUpdated, nil)
	notifier.Wait()

	assert.Empty(t, hook.AllEntries())
}
