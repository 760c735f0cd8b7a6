package usecase

import (
	"context"
	"testing"
	"time"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type availabilityFixture struct {
	usecase      AvailabilityUsecase
	doctors      *fakeDoctorRepo
	availability *fakeAvailabilityRepo
	appointments *fakeAppointmentRepo
	audit        *fakeAuditService
	doctorID     uuid.UUID
	clock        time.Time
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()

	doctorID, profile := newDoctor(true, true)
	f := &availabilityFixture{
		doctors:      &fakeDoctorRepo{profiles: map[uuid.UUID]*entity.DoctorProfile{doctorID: profile}},
		availability: &fakeAvailabilityRepo{},
		appointments: newFakeAppointmentRepo(),
		audit:        &fakeAuditService{},
		doctorID:     doctorID,
		clock:        time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC),
	}

	log, _ := newTestLogger()
	f.usecase = NewAvailabilityUsecase(
		fakeTransactor{}, log, lifecycle.DefaultPolicy(), func() time.Time { return f.clock },
		f.doctors, f.availability, f.appointments, f.audit,
	)
	return f
}

func (f *availabilityFixture) book(start, end string, status entity.AppointmentStatus) {
	f.appointments.put(entity.Appointment{
		PatientID:       uuid.New(),
		DoctorID:        f.doctorID,
		AppointmentDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       start,
		EndTime:         end,
		Status:          status,
	})
}

func slotStarts(resp *dto.AvailableSlotsResponse) []string {
	starts := make([]string, len(resp.Slots))
	for i, s := range resp.Slots {
		starts[i] = s.StartTime
	}
	return starts
}

func TestGetAvailableSlots_SubtractsBookedTime(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.availability.add(f.doctorID, time.Monday, "09:00:00", "12:00:00")
	f.book("09:15:00", "09:45:00", entity.AppointmentStatusScheduled)
	f.book("10:45:00", "11:15:00", entity.AppointmentStatusCancelled)

	resp, err := f.usecase.GetAvailableSlots(context.Background(), f.doctorID, "2024-06-10")

	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", resp.Date)
	assert.Equal(t, []string{"09:45", "10:15", "10:45", "11:15"}, slotStarts(resp))
	assert.Equal(t, "10:15", resp.Slots[0].EndTime)
	assert.Equal(t, 4, resp.Total)
}

func TestGetAvailableSlots_OmitsStartedSlots(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.availability.add(f.doctorID, time.Monday, "09:00:00", "12:00:00")
	f.clock = time.Date(2024, 6, 10, 10, 20, 0, 0, time.UTC)

	resp, err := f.usecase.GetAvailableSlots(context.Background(), f.doctorID, "2024-06-10")

	require.NoError(t, err)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, slotStarts(resp))
}

func TestGetAvailableSlots_MultipleWindowsAndInactive(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.availability.add(f.doctorID, time.Monday, "14:00:00", "15:00:00")
	f.availability.add(f.doctorID, time.Monday, "09:00:00", "10:00:00")
	f.availability.add(f.doctorID, time.Tuesday, "09:00:00", "10:00:00")
	f.availability.slots = append(f.availability.slots, entity.AvailabilitySlot{
		ID: 99, DoctorID: f.doctorID, DayOfWeek: int(time.Monday), StartTime: "18:00:00", EndTime: "19:00:00",
	})

	resp, err := f.usecase.GetAvailableSlots(context.Background(), f.doctorID, "2024-06-10")

	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "14:00", "14:30"}, slotStarts(resp))
}

func TestGetAvailableSlots_Errors(t *testing.T) {
	f := newAvailabilityFixture(t)

	_, err := f.usecase.GetAvailableSlots(context.Background(), f.doctorID, "10/06/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.usecase.GetAvailableSlots(context.Background(), uuid.New(), "2024-06-10")
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestGetAvailableSlots_UnapprovedDoctorHasNoSlots(t *testing.T) {
	f := newAvailabilityFixture(t)
	id, profile := newDoctor(true, false)
	f.doctors.profiles[id] = profile
	f.availability.add(id, time.Monday, "09:00:00", "12:00:00")

	resp, err := f.usecase.GetAvailableSlots(context.Background(), id, "2024-06-10")

	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Zero(t, resp.Total)
}

func TestUpsertAvailability(t *testing.T) {
	f := newAvailabilityFixture(t)
	caller := entity.Caller{UserID: f.doctorID, RoleID: entity.RoleIDDoctor}

	resp, err := f.usecase.UpsertAvailability(context.Background(), caller, &dto.UpsertAvailabilityRequest{
		Slots: []dto.AvailabilitySlotRequest{
			{DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: intPtr(3), StartTime: "13:00", EndTime: "17:00", IsAvailable: boolPtr(false)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "09:00", resp.Slots[0].StartTime)
	assert.True(t, resp.Slots[0].IsAvailable)
	assert.False(t, resp.Slots[1].IsAvailable)

	// same day and start replaces the end time
	resp, err = f.usecase.UpsertAvailability(context.Background(), caller, &dto.UpsertAvailabilityRequest{
		Slots: []dto.AvailabilitySlotRequest{{DayOfWeek: intPtr(1), StartTime: "09:00", EndTime: "11:00"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "11:00", resp.Slots[0].EndTime)
	assert.Equal(t, 3, f.audit.count(entity.AuditActionAvailabilityUpsert))
}

func TestUpsertAvailability_RejectsBadRanges(t *testing.T) {
	f := newAvailabilityFixture(t)
	caller := entity.Caller{UserID: f.doctorID, RoleID: entity.RoleIDDoctor}

	_, err := f.usecase.UpsertAvailability(context.Background(), caller, &dto.UpsertAvailabilityRequest{
		Slots: []dto.AvailabilitySlotRequest{{DayOfWeek: intPtr(1), StartTime: "12:00", EndTime: "09:00"}},
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = f.usecase.UpsertAvailability(context.Background(), caller, &dto.UpsertAvailabilityRequest{
		Slots: []dto.AvailabilitySlotRequest{{DayOfWeek: intPtr(1), StartTime: "9am", EndTime: "12:00"}},
	})
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	assert.Empty(t, f.availability.slots)
}

func TestUpsertAvailability_RejectsOverlappingWindows(t *testing.T) {
	f := newAvailabilityFixture(t)
	caller := entity.Caller{UserID: f.doctorID, RoleID: entity.RoleIDDoctor}
	before := len(f.availability.slots)

	upsert := func(slots ...dto.AvailabilitySlotRequest) error {
		_, err := f.usecase.UpsertAvailability(context.Background(), caller, &dto.UpsertAvailabilityRequest{Slots: slots})
		return err
	}

	err := upsert(
		dto.AvailabilitySlotRequest{DayOfWeek: intPtr(2), StartTime: "09:00", EndTime: "12:00"},
		dto.AvailabilitySlotRequest{DayOfWeek: intPtr(2), StartTime: "10:00", EndTime: "11:00"},
	)
	assert.ErrorIs(t, err, ErrAvailabilityOverlap)
	assert.Len(t, f.availability.slots, before, "nothing written")

	require.NoError(t, upsert(dto.AvailabilitySlotRequest{DayOfWeek: intPtr(2), StartTime: "09:00", EndTime: "12:00"}))

	err = upsert(dto.AvailabilitySlotRequest{DayOfWeek: intPtr(2), StartTime: "11:30", EndTime: "13:00"})
	assert.ErrorIs(t, err, ErrAvailabilityOverlap)

	// touching windows, other weekdays and reshaping the same window are fine
	require.NoError(t, upsert(dto.AvailabilitySlotRequest{DayOfWeek: intPtr(2), StartTime: "12:00", EndTime: "13:00"}))
	require.NoError(t, upsert(dto.AvailabilitySlotRequest{DayOfWeek: intPtr(4), StartTime: "10:00", EndTime: "11:00"}))
	require.NoError(t, upsert(dto.AvailabilitySlotRequest{DayOfWeek: intPtr(2), StartTime: "09:00", EndTime: "11:00"}))
	assert.Len(t, f.availability.slots, before+3)
}

func TestGetAvailableSlots_OverlappingStoredWindowsYieldDistinctSlots(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.availability.add(f.doctorID, time.Tuesday, "09:00:00", "11:00:00")
	f.availability.add(f.doctorID, time.Tuesday, "10:00:00", "10:30:00")

	resp, err := f.usecase.GetAvailableSlots(context.Background(), f.doctorID, "2024-06-11")

	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slotStarts(resp))
}

func TestSetAvailability(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.availability.add(f.doctorID, time.Monday, "09:00:00", "12:00:00")
	caller := entity.Caller{UserID: f.doctorID, RoleID: entity.RoleIDDoctor}

	resp, err := f.usecase.SetAvailability(context.Background(), caller, 1, &dto.ToggleAvailabilityRequest{IsAvailable: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, 1, f.audit.count(entity.AuditActionAvailabilityToggle))

	slots, err := f.usecase.GetAvailableSlots(context.Background(), f.doctorID, "2024-06-10")
	require.NoError(t, err)
	assert.Empty(t, slots.Slots)

	other := entity.Caller{UserID: uuid.New(), RoleID: entity.RoleIDDoctor}
	_, err = f.usecase.SetAvailability(context.Background(), other, 1, &dto.ToggleAvailabilityRequest{IsAvailable: boolPtr(true)})
	assert.ErrorIs(t, err, ErrAvailabilitySlotNotFound)
}
