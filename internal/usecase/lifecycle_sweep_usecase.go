package usecase

import (
	"context"
	"errors"
	"time"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	sweepOutcomeOK    = "ok"
	sweepOutcomeError = "error"
)

type LifecycleSweepUsecase interface {
	// RunLifecycleSweep moves every overdue scheduled appointment to completed or missed
	RunLifecycleSweep(ctx context.Context) (*dto.SweepResultResponse, error)
}

type lifecycleSweepUsecase struct {
	transitioner
	policy    lifecycle.Policy
	now       lifecycle.Clock
	batchSize int
}

func NewLifecycleSweepUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	policy lifecycle.Policy,
	now lifecycle.Clock,
	batchSize int,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	notifier service.AppointmentNotifier,
	metrics *service.Metrics,
) LifecycleSweepUsecase {
	return &lifecycleSweepUsecase{
		transitioner: transitioner{
			tx:              tx,
			log:             log,
			appointmentRepo: appointmentRepo,
			auditService:    auditService,
			notifier:        notifier,
			metrics:         metrics,
		},
		policy:    policy,
		now:       now,
		batchSize: batchSize,
	}
}

// RunLifecycleSweep:
// 1. Select scheduled rows whose date+end_time is older than now-grace, one page at a time
// 2. Resolve completed (both attended) or missed for each
// 3. Apply with a compare-and-set on status='scheduled' and the attendance flags read in 1
//
// A row moved or marked by someone else in between is counted as skipped and
// left for the next run. A row that fails is logged and counted; the run
// continues. Rows already attempted in this run are excluded from later pages,
// so rows that keep failing cannot hold back newer overdue rows.
func (u *lifecycleSweepUsecase) RunLifecycleSweep(ctx context.Context) (*dto.SweepResultResponse, error) {
	started := time.Now()
	cutoff := u.policy.SweepCutoff(u.now())
	result := &dto.SweepResultResponse{Transitions: []dto.SweepTransition{}}

	var attempted []uuid.UUID
	for {
		candidates, err := u.appointmentRepo.FindExpiredScheduled(ctx, u.tx.DB(ctx), cutoff, u.batchSize, attempted)
		if err != nil {
			u.metrics.ObserveSweep(sweepOutcomeError, time.Since(started), result.FailedCount)
			u.log.Errorf("Failed to select expired appointments: %+v", err)
			return nil, err
		}

		for i := range candidates {
			if ctx.Err() != nil {
				break
			}
			current := &candidates[i]
			if !u.sweepOne(ctx, current, result) {
				attempted = append(attempted, current.ID)
			}
		}

		if ctx.Err() != nil || u.batchSize <= 0 || len(candidates) < u.batchSize {
			break
		}
	}

	u.metrics.ObserveSweep(sweepOutcomeOK, time.Since(started), result.FailedCount)
	return result, nil
}

// sweepOne resolves a single candidate and records the outcome in result.
// It reports whether the row left the scheduled status.
func (u *lifecycleSweepUsecase) sweepOne(ctx context.Context, current *entity.Appointment, result *dto.SweepResultResponse) bool {
	updated, err := u.apply(ctx, transitionRequest{
		current:       current,
		event:         lifecycle.EventSweep,
		trigger:       triggerSweep,
		pinAttendance: true,
	})
	if err != nil {
		if errors.Is(err, errStatusChanged) || errors.Is(err, ErrInvalidTransition) {
			result.SkippedCount++
			return false
		}
		result.FailedCount++
		u.log.WithFields(logrus.Fields{
			"appointment_id": current.ID,
			"status":         current.Status,
		}).Errorf("Failed to sweep appointment: %+v", err)
		return false
	}

	result.ProcessedCount++
	result.Transitions = append(result.Transitions, dto.SweepTransition{
		ID:   updated.ID,
		From: string(current.Status),
		To:   string(updated.Status),
	})
	return true
}
