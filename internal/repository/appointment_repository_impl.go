package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-telehealth-booking/internal/domain/entity"
	domainRepo "go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/domain/timeslot"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const timestampLayout = "2006-01-02 15:04:05"

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByParticipant(ctx context.Context, db *gorm.DB, userID uuid.UUID, statuses []entity.AppointmentStatus) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	q := db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		Where("patient_id = ? OR doctor_id = ?", userID, userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("appointment_date DESC, start_time DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindActiveByDoctorAndDate(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date = ? AND status <> ?",
			doctorID, date.Format(timeslot.DateLayout), entity.AppointmentStatusCancelled).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) CountOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime, endTime string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND status <> ?",
			doctorID, date.Format(timeslot.DateLayout), entity.AppointmentStatusCancelled).
		Where("start_time < ? AND end_time > ?", endTime, startTime).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepository) FindExpiredScheduled(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int, exclude []uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	q := db.WithContext(ctx).
		Where("status = ?", entity.AppointmentStatusScheduled).
		Where("(appointment_date + end_time) < ?::timestamp", cutoff.Format(timestampLayout))
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	q = q.Order("appointment_date ASC, end_time ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// TransitionStatus is a compare-and-set on status:
// UPDATE appointments SET status = to ... WHERE id = ? AND status = from [AND expect...] RETURNING *
func (r *appointmentRepository) TransitionStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, fields, expect map[string]interface{}) (*entity.Appointment, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	var rows []entity.Appointment
	q := db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, from)
	for _, column := range sortedKeys(expect) {
		q = q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: expect[column]})
	}
	result := q.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 || len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *appointmentRepository) MarkAttended(ctx context.Context, db *gorm.DB, id uuid.UUID, role entity.AttendanceRole, statuses ...entity.AppointmentStatus) (*entity.Appointment, error) {
	var rows []entity.Appointment
	result := db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ? AND status IN ?", id, statuses).
		Update(role.Column(), true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 || len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
