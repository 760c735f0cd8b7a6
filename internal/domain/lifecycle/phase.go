package lifecycle

import (
	"time"

	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/timeslot"
)

// Phase is the position of "now" relative to an appointment window
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseJoinable Phase = "joinable"
	PhaseOngoing  Phase = "ongoing"
	PhaseExpired  Phase = "expired"
)

// CanJoin reports whether a participant may enter the session in phase p
func (p Phase) CanJoin() bool {
	return p == PhaseJoinable || p == PhaseOngoing
}

// PhaseAt classifies now against w:
//
//	upcoming  now < start-grace
//	joinable  start-grace <= now < start
//	ongoing   start <= now <= end+grace
//	expired   now > end+grace
func PhaseAt(w timeslot.Window, now time.Time, grace time.Duration) Phase {
	switch {
	case now.Before(w.Start.Add(-grace)):
		return PhaseUpcoming
	case now.Before(w.Start):
		return PhaseJoinable
	case !now.After(w.End.Add(grace)):
		return PhaseOngoing
	default:
		return PhaseExpired
	}
}

// Clock returns the current instant
type Clock func() time.Time

const (
	DefaultGrace           = 15 * time.Minute
	DefaultSlotGranularity = 30 * time.Minute
)

// Policy bundles the time parameters shared by booking, session entry and the sweeper
type Policy struct {
	Grace           time.Duration
	SlotGranularity time.Duration
	Location        *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		Grace:           DefaultGrace,
		SlotGranularity: DefaultSlotGranularity,
		Location:        time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Window anchors the appointment's date and clock columns in the policy location
func (p Policy) Window(a *entity.Appointment) (timeslot.Window, error) {
	return timeslot.Build(a.AppointmentDate, a.StartTime, a.EndTime, p.location())
}

// PhaseOf computes the appointment phase at now
func (p Policy) PhaseOf(a *entity.Appointment, now time.Time) (Phase, error) {
	w, err := p.Window(a)
	if err != nil {
		return "", err
	}
	return PhaseAt(w, now, p.Grace), nil
}

// SweepCutoff returns the wall-clock instant in the policy location before
// which an appointment end means the row is overdue.
func (p Policy) SweepCutoff(now time.Time) time.Time {
	return now.In(p.location()).Add(-p.Grace)
}

// ParseDate parses YYYY-MM-DD in the policy location
func (p Policy) ParseDate(s string) (time.Time, error) {
	return timeslot.ParseDate(s, p.location())
}

// Build anchors clock strings onto date in the policy location
func (p Policy) Build(date time.Time, start, end string) (timeslot.Window, error) {
	return timeslot.Build(date, start, end, p.location())
}
