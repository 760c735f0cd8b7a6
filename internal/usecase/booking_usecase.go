package usecase

import (
	"context"
	"errors"
	"fmt"
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
	ErrDoctorUnavailable = errors.New("doctor is not available at the requested time")
	ErrSlotConflict      = errors.New("the requested time overlaps an existing appointment")
	ErrPastDateTime      = errors.New("cannot book an appointment in the past")
)

// booking outcome labels for metrics
const (
	bookingCreated           = "created"
	bookingInvalid           = "invalid"
	bookingDoctorUnavailable = "doctor_unavailable"
	bookingSlotConflict      = "slot_conflict"
	bookingPast              = "past"
	bookingError             = "error"
)

type BookingUsecase interface {
	CreateAppointment(ctx context.Context, caller entity.Caller, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
}

type bookingUsecase struct {
	tx               repository.Transactor
	log              *logrus.Logger
	policy           lifecycle.Policy
	now              lifecycle.Clock
	doctorRepo       repository.DoctorProfileRepository
	availabilityRepo repository.AvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	auditService     service.AuditService
	notifier         service.AppointmentNotifier
	metrics          *service.Metrics
}

func NewBookingUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	policy lifecycle.Policy,
	now lifecycle.Clock,
	doctorRepo repository.DoctorProfileRepository,
	availabilityRepo repository.AvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	notifier service.AppointmentNotifier,
	metrics *service.Metrics,
) BookingUsecase {
	return &bookingUsecase{
		tx:               tx,
		log:              log,
		policy:           policy,
		now:              now,
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		auditService:     auditService,
		notifier:         notifier,
		metrics:          metrics,
	}
}

// CreateAppointment books a video appointment for the calling patient.
//
// Checks, in order, short-circuiting on the first failure:
// 0. Request shape: date, clocks, end after start
// 1. Doctor exists, is active and approved
// 2. [start, end) lies inside one active availability window of that weekday
// 3. No non-cancelled appointment of the doctor overlaps
// 4. Start is not in the past
//
// The insert relies on the appointments_no_overlap exclusion constraint; a
// violation raised there is reported as ErrSlotConflict.
func (u *bookingUsecase) CreateAppointment(ctx context.Context, caller entity.Caller, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.validate(ctx, caller, req)
	if err != nil {
		u.metrics.ObserveBooking(bookingOutcome(err))
		return nil, err
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.appointmentRepo.Create(ctx, tx, appointment); err != nil {
			if isOverlapViolation(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("insert appointment: %w", err)
		}

		return u.auditService.LogCreate(ctx, tx, &caller.UserID, entity.AuditActionAppointmentCreate,
			"appointment", appointment.ID.String(), converter.AppointmentToResponse(appointment, u.policy, u.now()))
	})
	if err != nil {
		u.metrics.ObserveBooking(bookingOutcome(err))
		if errors.Is(err, ErrSlotConflict) {
			return nil, err
		}
		u.log.Errorf("Failed to create appointment for patient %s: %+v", caller.UserID, err)
		return nil, err
	}

	u.metrics.ObserveBooking(bookingCreated)

	// reload so the event and the response carry patient and doctor
	if full, err := u.appointmentRepo.FindByID(ctx, u.tx.DB(ctx), appointment.ID); err != nil || full == nil {
		u.log.WithField("appointment_id", appointment.ID).Warnf("Failed to load appointment participants: %+v", err)
	} else {
		appointment = full
	}
	u.notifier.NotifyParticipants(service.EventAppointmentCreated, appointment)

	u.log.Infof("Appointment created: id=%s, doctor=%s, date=%s %s-%s",
		appointment.ID, appointment.DoctorID, req.AppointmentDate, appointment.StartTime, appointment.EndTime)

	return converter.AppointmentToResponse(appointment, u.policy, u.now()), nil
}

func (u *bookingUsecase) validate(ctx context.Context, caller entity.Caller, req *dto.CreateAppointmentRequest) (*entity.Appointment, error) {
	// Step 0: request shape
	date, err := u.policy.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	window, err := u.policy.Build(date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if !window.Valid() {
		return nil, ErrInvalidTimeRange
	}
	startTime, _ := timeslot.NormalizeClock(req.StartTime)
	endTime, _ := timeslot.NormalizeClock(req.EndTime)

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil || doctorID == caller.UserID {
		return nil, ErrDoctorUnavailable
	}

	db := u.tx.DB(ctx)

	// Step 1: doctor exists, active and approved
	profile, err := u.doctorRepo.FindByUserID(ctx, db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil || !profile.IsBookable() {
		return nil, ErrDoctorUnavailable
	}

	// Step 2: inside one active availability window of the weekday
	slots, err := u.availabilityRepo.FindActiveByDoctorAndDay(ctx, db, doctorID, int(date.Weekday()))
	if err != nil {
		u.log.Warnf("Failed to find availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if !u.withinAvailability(date, window, slots) {
		return nil, ErrDoctorUnavailable
	}

	// Step 3: no overlapping non-cancelled appointment
	overlapping, err := u.appointmentRepo.CountOverlapping(ctx, db, doctorID, date, startTime, endTime)
	if err != nil {
		u.log.Warnf("Failed to check overlapping appointments for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrSlotConflict
	}

	// Step 4: not in the past
	if window.Start.Before(u.now()) {
		return nil, ErrPastDateTime
	}

	id := uuid.New()
	return &entity.Appointment{
		ID:               id,
		PatientID:        caller.UserID,
		DoctorID:         doctorID,
		AppointmentDate:  date,
		StartTime:        startTime,
		EndTime:          endTime,
		Status:           entity.AppointmentStatusScheduled,
		Symptoms:         req.Symptoms,
		VideoChannelName: "appt_" + id.String(),
	}, nil
}

func (u *bookingUsecase) withinAvailability(date time.Time, requested timeslot.Window, slots []entity.AvailabilitySlot) bool {
	for _, s := range slots {
		w, err := u.policy.Build(date, s.StartTime, s.EndTime)
		if err != nil {
			continue
		}
		if w.Contains(requested) {
			return true
		}
	}
	return false
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidTimeFormat), errors.Is(err, ErrInvalidTimeRange):
		return bookingInvalid
	case errors.Is(err, ErrDoctorUnavailable):
		return bookingDoctorUnavailable
	case errors.Is(err, ErrSlotConflict):
		return bookingSlotConflict
	case errors.Is(err, ErrPastDateTime):
		return bookingPast
	default:
		return bookingError
	}
}
