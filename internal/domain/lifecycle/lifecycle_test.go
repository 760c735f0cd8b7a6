package lifecycle

import (
	"testing"
	"time"
	_ "time/tzdata"

	"go-telehealth-booking/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []entity.AppointmentStatus{
	entity.AppointmentStatusScheduled,
	entity.AppointmentStatusInProgress,
	entity.AppointmentStatusCompleted,
	entity.AppointmentStatusMissed,
	entity.AppointmentStatusCancelled,
}

var allEvents = []Event{EventEnterSession, EventEndSession, EventCancel, EventSweep}

func TestNext_Table(t *testing.T) {
	tests := []struct {
		name  string
		from  entity.AppointmentStatus
		event Event
		att   Attendance
		want  entity.AppointmentStatus
	}{
		{"enter session", entity.AppointmentStatusScheduled, EventEnterSession, Attendance{}, entity.AppointmentStatusInProgress},
		{"cancel", entity.AppointmentStatusScheduled, EventCancel, Attendance{}, entity.AppointmentStatusCancelled},
		{"end session", entity.AppointmentStatusInProgress, EventEndSession, Attendance{}, entity.AppointmentStatusCompleted},
		{"sweep both attended", entity.AppointmentStatusScheduled, EventSweep, Attendance{Doctor: true, Patient: true}, entity.AppointmentStatusCompleted},
		{"sweep doctor only", entity.AppointmentStatusScheduled, EventSweep, Attendance{Doctor: true}, entity.AppointmentStatusMissed},
		{"sweep patient only", entity.AppointmentStatusScheduled, EventSweep, Attendance{Patient: true}, entity.AppointmentStatusMissed},
		{"sweep nobody", entity.AppointmentStatusScheduled, EventSweep, Attendance{}, entity.AppointmentStatusMissed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.event, tt.att)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_TerminalStatesNeverTransition(t *testing.T) {
	for _, from := range allStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, ev := range allEvents {
			got, err := Next(from, ev, Attendance{Doctor: true, Patient: true})
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, ev)
			assert.Equal(t, from, got)
		}
	}
}

func TestNext_InvalidFromInProgress(t *testing.T) {
	for _, ev := range []Event{EventEnterSession, EventCancel, EventSweep} {
		_, err := Next(entity.AppointmentStatusInProgress, ev, Attendance{})
		assert.ErrorIs(t, err, ErrInvalidTransition, string(ev))
	}
	assert.False(t, Allowed(entity.AppointmentStatusScheduled, EventEndSession))
	assert.True(t, Allowed(entity.AppointmentStatusScheduled, EventCancel))
}

func TestPhaseAt(t *testing.T) {
	policy := DefaultPolicy()
	appt := &entity.Appointment{
		AppointmentDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:00:00",
		EndTime:         "09:30:00",
	}
	at := func(h, m int) time.Time { return time.Date(2024, 6, 10, h, m, 0, 0, time.UTC) }

	tests := []struct {
		now  time.Time
		want Phase
	}{
		{at(8, 40), PhaseUpcoming},
		{at(8, 44), PhaseUpcoming},
		{at(8, 45), PhaseJoinable},
		{at(8, 46), PhaseJoinable},
		{at(9, 0), PhaseOngoing},
		{at(9, 30), PhaseOngoing},
		{at(9, 45), PhaseOngoing},
		{at(9, 46), PhaseExpired},
	}

	for _, tt := range tests {
		t.Run(tt.now.Format("15:04"), func(t *testing.T) {
			got, err := policy.PhaseOf(appt, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhaseCanJoin(t *testing.T) {
	assert.False(t, PhaseUpcoming.CanJoin())
	assert.True(t, PhaseJoinable.CanJoin())
	assert.True(t, PhaseOngoing.CanJoin())
	assert.False(t, PhaseExpired.CanJoin())
}

func TestPolicy_NonUTCLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	policy := Policy{Grace: 15 * time.Minute, SlotGranularity: 30 * time.Minute, Location: jakarta}
	appt := &entity.Appointment{
		AppointmentDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:00",
		EndTime:         "09:30",
	}

	w, err := policy.Window(appt)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC), w.Start.UTC())

	cutoff := policy.SweepCutoff(time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-06-10 09:45:00", cutoff.Format("2006-01-02 15:04:05"))

	t.Run("spring forward day keeps the wall clock", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		policy := Policy{Grace: 15 * time.Minute, SlotGranularity: 30 * time.Minute, Location: ny}

		date, err := policy.ParseDate("2024-03-10")
		require.NoError(t, err)
		appt := &entity.Appointment{AppointmentDate: date, StartTime: "09:00", EndTime: "09:30"}

		w, err := policy.Window(appt)
		require.NoError(t, err)
		assert.Equal(t, "09:00", w.Start.Format("15:04"))
		assert.Equal(t, "09:30", w.End.Format("15:04"))
		assert.Equal(t, time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC), w.Start.UTC())

		// 09:40 EDT falls in the end grace
		phase, err := policy.PhaseOf(appt, time.Date(2024, 3, 10, 13, 40, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, PhaseOngoing, phase)
	})
}
