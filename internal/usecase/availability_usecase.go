package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-telehealth-booking/internal/converter"
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/domain/timeslot"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound           = errors.New("doctor not found")
	ErrInvalidDate              = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTimeFormat        = errors.New("invalid time, expected HH:MM")
	ErrInvalidTimeRange         = errors.New("end time must be after start time")
	ErrAvailabilitySlotNotFound = errors.New("availability slot not found")
	ErrAvailabilityOverlap      = errors.New("availability windows overlap on the same day")
)

type AvailabilityUsecase interface {
	// GetAvailableSlots lists the bookable fixed-size slots of a doctor on date (YYYY-MM-DD)
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error)
	GetMyAvailability(ctx context.Context, caller entity.Caller) (*dto.AvailabilityListResponse, error)
	UpsertAvailability(ctx context.Context, caller entity.Caller, req *dto.UpsertAvailabilityRequest) (*dto.AvailabilityListResponse, error)
	SetAvailability(ctx context.Context, caller entity.Caller, slotID int, req *dto.ToggleAvailabilityRequest) (*dto.AvailabilitySlotResponse, error)
}

type availabilityUsecase struct {
	tx               repository.Transactor
	log              *logrus.Logger
	policy           lifecycle.Policy
	now              lifecycle.Clock
	doctorRepo       repository.DoctorProfileRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	auditService     service.AuditService
}

func NewAvailabilityUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	policy lifecycle.Policy,
	now lifecycle.Clock,
	doctorRepo repository.DoctorProfileRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		tx:               tx,
		log:              log,
		policy:           policy,
		now:              now,
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		auditService:     auditService,
	}
}

// GetAvailableSlots:
// 1. Take the doctor's active weekly windows for the date's weekday
// 2. Subtract every non-cancelled appointment of that date
// 3. Slice the remainder into fixed slots and drop the ones already started
func (u *availabilityUsecase) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AvailableSlotsResponse, error) {
	day, err := u.policy.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	resp := &dto.AvailableSlotsResponse{
		DoctorID: doctorID,
		Date:     day.Format(timeslot.DateLayout),
		Slots:    []dto.TimeSlotResponse{},
	}

	db := u.tx.DB(ctx)

	profile, err := u.doctorRepo.FindByUserID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}
	if !profile.IsBookable() {
		return resp, nil
	}

	slots, err := u.availabilityRepo.FindActiveByDoctorAndDay(ctx, db, doctorID, int(day.Weekday()))
	if err != nil {
		u.log.Warnf("Failed to find availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if len(slots) == 0 {
		return resp, nil
	}

	free := make([]timeslot.Window, 0, len(slots))
	for _, s := range slots {
		w, err := u.policy.Build(day, s.StartTime, s.EndTime)
		if err != nil || !w.Valid() {
			u.log.Warnf("Skipping malformed availability slot %d: %s-%s", s.ID, s.StartTime, s.EndTime)
			continue
		}
		free = append(free, w)
	}

	appointments, err := u.appointmentRepo.FindActiveByDoctorAndDate(ctx, db, doctorID, day)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s on %s: %+v", doctorID, date, err)
		return nil, err
	}

	busy := make([]timeslot.Window, 0, len(appointments))
	for i := range appointments {
		w, err := u.policy.Window(&appointments[i])
		if err != nil {
			u.log.Warnf("Skipping malformed appointment %s: %+v", appointments[i].ID, err)
			continue
		}
		busy = append(busy, w)
	}

	now := u.now()
	bookable := make([]timeslot.Window, 0)
	for _, w := range timeslot.Slice(timeslot.Subtract(free, busy), u.policy.SlotGranularity) {
		if w.Start.Before(now) {
			continue
		}
		bookable = append(bookable, w)
	}

	resp.Slots = converter.WindowsToTimeSlots(bookable)
	resp.Total = len(resp.Slots)
	return resp, nil
}

func (u *availabilityUsecase) GetMyAvailability(ctx context.Context, caller entity.Caller) (*dto.AvailabilityListResponse, error) {
	slots, err := u.availabilityRepo.FindByDoctor(ctx, u.tx.DB(ctx), caller.UserID)
	if err != nil {
		u.log.Warnf("Failed to find availability for doctor %s: %+v", caller.UserID, err)
		return nil, err
	}

	return &dto.AvailabilityListResponse{
		Slots: converter.AvailabilitySlotsToResponses(slots),
		Total: len(slots),
	}, nil
}

// UpsertAvailability writes every slot keyed by (day, start) in one transaction
func (u *availabilityUsecase) UpsertAvailability(ctx context.Context, caller entity.Caller, req *dto.UpsertAvailabilityRequest) (*dto.AvailabilityListResponse, error) {
	slots := make([]*entity.AvailabilitySlot, 0, len(req.Slots))
	for _, s := range req.Slots {
		slot, err := u.slotFromRequest(caller.UserID, s)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.availabilityRepo.FindByDoctor(ctx, tx, caller.UserID)
		if err != nil {
			return fmt.Errorf("find availability: %w", err)
		}
		if err := checkOverlaps(existing, slots); err != nil {
			return err
		}

		for _, slot := range slots {
			if err := u.availabilityRepo.Upsert(ctx, tx, slot); err != nil {
				return fmt.Errorf("upsert availability slot: %w", err)
			}
			if err := u.auditService.LogCreate(ctx, tx, &caller.UserID, entity.AuditActionAvailabilityUpsert,
				"availability_slot", fmt.Sprint(slot.ID), converter.AvailabilitySlotToResponse(slot)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAvailabilityOverlap) {
			return nil, err
		}
		u.log.Warnf("Failed to upsert availability for doctor %s: %+v", caller.UserID, err)
		return nil, err
	}

	return u.GetMyAvailability(ctx, caller)
}

func (u *availabilityUsecase) SetAvailability(ctx context.Context, caller entity.Caller, slotID int, req *dto.ToggleAvailabilityRequest) (*dto.AvailabilitySlotResponse, error) {
	var updated *entity.AvailabilitySlot

	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		slot, err := u.availabilityRepo.SetAvailable(ctx, tx, caller.UserID, slotID, *req.IsAvailable)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrAvailabilitySlotNotFound
		}
		updated = slot

		return u.auditService.LogUpdate(ctx, tx, &caller.UserID, entity.AuditActionAvailabilityToggle,
			"availability_slot", fmt.Sprint(slot.ID),
			map[string]interface{}{"is_available": !slot.IsAvailable},
			map[string]interface{}{"is_available": slot.IsAvailable})
	})
	if err != nil {
		if errors.Is(err, ErrAvailabilitySlotNotFound) {
			return nil, err
		}
		u.log.Warnf("Failed to toggle availability slot %d: %+v", slotID, err)
		return nil, err
	}

	return converter.AvailabilitySlotToResponse(updated), nil
}

// checkOverlaps rejects a write that would leave two windows of the same
// weekday overlapping. Incoming slots replace existing ones keyed by (day, start).
func checkOverlaps(existing []entity.AvailabilitySlot, incoming []*entity.AvailabilitySlot) error {
	type key struct {
		day   int
		start string
	}
	merged := make(map[key]entity.AvailabilitySlot, len(existing)+len(incoming))
	for _, s := range existing {
		merged[key{s.DayOfWeek, s.StartTime}] = s
	}
	for _, s := range incoming {
		merged[key{s.DayOfWeek, s.StartTime}] = *s
	}

	// any fixed date works, only the clocks are compared
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	byDay := make(map[int][]timeslot.Window)
	for k, s := range merged {
		w, err := timeslot.Build(ref, s.StartTime, s.EndTime, time.UTC)
		if err != nil {
			continue
		}
		byDay[k.day] = append(byDay[k.day], w)
	}

	for _, windows := range byDay {
		sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
		for i := 1; i < len(windows); i++ {
			if windows[i].Overlaps(windows[i-1]) {
				return ErrAvailabilityOverlap
			}
		}
	}
	return nil
}

func (u *availabilityUsecase) slotFromRequest(doctorID uuid.UUID, req dto.AvailabilitySlotRequest) (*entity.AvailabilitySlot, error) {
	start, err := timeslot.ParseClock(req.StartTime)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	end, err := timeslot.ParseClock(req.EndTime)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if end <= start {
		return nil, ErrInvalidTimeRange
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	startStr, _ := timeslot.NormalizeClock(req.StartTime)
	endStr, _ := timeslot.NormalizeClock(req.EndTime)

	return &entity.AvailabilitySlot{
		DoctorID:    doctorID,
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   startStr,
		EndTime:     endStr,
		IsAvailable: available,
	}, nil
}
