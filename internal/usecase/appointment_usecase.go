package usecase

import (
	"context"
	"errors"
	"fmt"

	"go-telehealth-booking/internal/converter"
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrForbidden             = errors.New("you are not a participant of this appointment")
	ErrInvalidTransition     = lifecycle.ErrInvalidTransition
	ErrOutsideWindow         = errors.New("appointment is outside its joinable window")
	ErrInvalidAttendanceRole = errors.New("attendance role must be doctor or patient")
	ErrInvalidStatusFilter   = errors.New("unknown appointment status")
)

type AppointmentUsecase interface {
	GetAppointment(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.AppointmentResponse, error)
	ListMyAppointments(ctx context.Context, caller entity.Caller, statuses []string) (*dto.AppointmentListResponse, error)
	EnterSession(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.EnterSessionResponse, error)
	EndSession(ctx context.Context, caller entity.Caller, id uuid.UUID, req *dto.EndSessionRequest) (*dto.EndSessionResponse, error)
	CancelAppointment(ctx context.Context, caller entity.Caller, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	// MarkAttendance sets the role's attendance flag while scheduled; otherwise it is a no-op
	MarkAttendance(ctx context.Context, id uuid.UUID, role entity.AttendanceRole) (*dto.AppointmentResponse, error)
	MarkAttendanceForCaller(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	transitioner
	policy            lifecycle.Policy
	now               lifecycle.Clock
	medicalRecordRepo repository.MedicalRecordRepository
}

func NewAppointmentUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	policy lifecycle.Policy,
	now lifecycle.Clock,
	appointmentRepo repository.AppointmentRepository,
	medicalRecordRepo repository.MedicalRecordRepository,
	auditService service.AuditService,
	notifier service.AppointmentNotifier,
	metrics *service.Metrics,
) AppointmentUsecase {
	return &appointmentUsecase{
		transitioner: transitioner{
			tx:              tx,
			log:             log,
			appointmentRepo: appointmentRepo,
			auditService:    auditService,
			notifier:        notifier,
			metrics:         metrics,
		},
		policy:            policy,
		now:               now,
		medicalRecordRepo: medicalRecordRepo,
	}
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findForCaller(ctx, caller, id, true)
	if err != nil {
		return nil, err
	}
	return u.project(appointment), nil
}

func (u *appointmentUsecase) ListMyAppointments(ctx context.Context, caller entity.Caller, statuses []string) (*dto.AppointmentListResponse, error) {
	filter := make([]entity.AppointmentStatus, 0, len(statuses))
	for _, s := range statuses {
		status := entity.AppointmentStatus(s)
		switch status {
		case entity.AppointmentStatusScheduled, entity.AppointmentStatusInProgress,
			entity.AppointmentStatusCompleted, entity.AppointmentStatusMissed, entity.AppointmentStatusCancelled:
			filter = append(filter, status)
		default:
			return nil, ErrInvalidStatusFilter
		}
	}

	appointments, err := u.appointmentRepo.FindByParticipant(ctx, u.tx.DB(ctx), caller.UserID, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments for user %s: %+v", caller.UserID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments, u.policy, u.now()),
		Total:        len(appointments),
	}, nil
}

// EnterSession lets a participant join the video session.
//
// A scheduled appointment moves to in_progress; joining an in_progress one only
// records the caller's attendance. Joining is allowed from start-grace until end+grace.
func (u *appointmentUsecase) EnterSession(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.EnterSessionResponse, error) {
	appointment, err := u.findForCaller(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}
	role, _ := appointment.RoleOf(caller.UserID)

	if appointment.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	phase, err := u.policy.PhaseOf(appointment, u.now())
	if err != nil {
		u.log.Warnf("Failed to compute phase of appointment %s: %+v", id, err)
		return nil, err
	}
	if !phase.CanJoin() {
		return nil, ErrOutsideWindow
	}

	if appointment.Status == entity.AppointmentStatusScheduled {
		updated, err := u.apply(ctx, transitionRequest{
			current: appointment,
			event:   lifecycle.EventEnterSession,
			trigger: triggerSession,
			actor:   &caller.UserID,
			fields:  map[string]interface{}{role.Column(): true},
		})
		switch {
		case err == nil:
			appointment = updated
		case errors.Is(err, errStatusChanged):
			// the other participant joined first
			appointment, err = u.reload(ctx, id)
			if err != nil {
				return nil, err
			}
			if appointment.Status != entity.AppointmentStatusInProgress {
				return nil, ErrInvalidTransition
			}
		default:
			u.log.Errorf("Failed to start session of appointment %s: %+v", id, err)
			return nil, err
		}
	}

	if !appointment.HasAttended(role) {
		marked, err := u.recordAttendance(ctx, &caller.UserID, appointment, role,
			entity.AppointmentStatusScheduled, entity.AppointmentStatusInProgress)
		if err != nil {
			return nil, err
		}
		appointment = marked
	}

	return &dto.EnterSessionResponse{
		ChannelName: appointment.VideoChannelName,
		Appointment: u.project(appointment),
	}, nil
}

// EndSession completes an in_progress appointment. A doctor may attach a
// medical record that is stored in the same transaction.
func (u *appointmentUsecase) EndSession(ctx context.Context, caller entity.Caller, id uuid.UUID, req *dto.EndSessionRequest) (*dto.EndSessionResponse, error) {
	appointment, err := u.findForCaller(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}

	var recordReq *dto.CreateMedicalRecordRequest
	if req != nil {
		recordReq = req.MedicalRecord
	}
	if recordReq != nil && appointment.DoctorID != caller.UserID {
		return nil, ErrForbidden
	}

	var record *entity.MedicalRecord
	updated, err := u.apply(ctx, transitionRequest{
		current: appointment,
		event:   lifecycle.EventEndSession,
		trigger: triggerSession,
		actor:   &caller.UserID,
		afterUpdate: func(tx *gorm.DB, updated *entity.Appointment) error {
			if recordReq == nil {
				return nil
			}
			record = converter.MedicalRecordFromRequest(recordReq, updated)
			if err := u.medicalRecordRepo.Create(ctx, tx, record); err != nil {
				return fmt.Errorf("insert medical record: %w", err)
			}
			return u.auditService.LogCreate(ctx, tx, &caller.UserID, entity.AuditActionMedicalRecordCreate,
				"medical_record", record.ID.String(), converter.MedicalRecordToResponse(record))
		},
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, errStatusChanged) {
			return nil, ErrInvalidTransition
		}
		u.log.Errorf("Failed to end session of appointment %s: %+v", id, err)
		return nil, err
	}

	return &dto.EndSessionResponse{
		Appointment:   u.project(updated),
		MedicalRecord: converter.MedicalRecordToResponse(record),
	}, nil
}

// CancelAppointment cancels a scheduled appointment that has not started yet
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, caller entity.Caller, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.findForCaller(ctx, caller, id, true)
	if err != nil {
		return nil, err
	}

	if appointment.Status == entity.AppointmentStatusScheduled {
		window, err := u.policy.Window(appointment)
		if err != nil {
			u.log.Warnf("Failed to compute window of appointment %s: %+v", id, err)
			return nil, err
		}
		if !u.now().Before(window.Start) {
			return nil, ErrInvalidTransition
		}
	}

	reason := ""
	if req != nil {
		reason = req.Reason
	}

	updated, err := u.apply(ctx, transitionRequest{
		current: appointment,
		event:   lifecycle.EventCancel,
		trigger: triggerCancel,
		actor:   &caller.UserID,
		fields:  map[string]interface{}{"cancellation_reason": reason},
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, errStatusChanged) {
			return nil, ErrInvalidTransition
		}
		u.log.Errorf("Failed to cancel appointment %s: %+v", id, err)
		return nil, err
	}

	u.log.Infof("Appointment cancelled: id=%s, by=%s", id, caller.UserID)
	return u.project(updated), nil
}

func (u *appointmentUsecase) MarkAttendance(ctx context.Context, id uuid.UUID, role entity.AttendanceRole) (*dto.AppointmentResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidAttendanceRole
	}

	appointment, err := u.appointmentRepo.FindByID(ctx, u.tx.DB(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if appointment.Status != entity.AppointmentStatusScheduled || appointment.HasAttended(role) {
		return u.project(appointment), nil
	}

	marked, err := u.recordAttendance(ctx, nil, appointment, role, entity.AppointmentStatusScheduled)
	if err != nil {
		return nil, err
	}
	return u.project(marked), nil
}

func (u *appointmentUsecase) MarkAttendanceForCaller(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findForCaller(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}
	role, _ := appointment.RoleOf(caller.UserID)
	return u.MarkAttendance(ctx, id, role)
}

// recordAttendance sets the flag while the row is in one of statuses. When the
// row left those statuses meanwhile, the current row is returned unchanged.
func (u *appointmentUsecase) recordAttendance(
	ctx context.Context,
	actor *uuid.UUID,
	appointment *entity.Appointment,
	role entity.AttendanceRole,
	statuses ...entity.AppointmentStatus,
) (*entity.Appointment, error) {
	var marked *entity.Appointment

	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		row, err := u.appointmentRepo.MarkAttended(ctx, tx, appointment.ID, role, statuses...)
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		marked = row

		return u.auditService.LogUpdate(ctx, tx, actor, entity.AuditActionAppointmentAttendance,
			"appointment", appointment.ID.String(),
			map[string]interface{}{role.Column(): false},
			map[string]interface{}{role.Column(): true})
	})
	if err != nil {
		u.log.Errorf("Failed to mark %s attendance on appointment %s: %+v", role, appointment.ID, err)
		return nil, err
	}

	if marked == nil {
		return u.reload(ctx, appointment.ID)
	}

	marked = u.withParticipants(ctx, marked)
	u.notifier.NotifyParticipants(service.EventAppointmentUpdated, marked)
	return marked, nil
}

// findForCaller loads the appointment and checks the caller takes part in it
func (u *appointmentUsecase) findForCaller(ctx context.Context, caller entity.Caller, id uuid.UUID, allowAdmin bool) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.tx.DB(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if appointment.IsParticipant(caller.UserID) {
		return appointment, nil
	}
	if allowAdmin && caller.IsAdmin() {
		return appointment, nil
	}
	return nil, ErrForbidden
}

func (u *appointmentUsecase) project(appointment *entity.Appointment) *dto.AppointmentResponse {
	return converter.AppointmentToResponse(appointment, u.policy, u.now())
}
