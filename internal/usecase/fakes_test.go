package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/timeslot"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

// fakeTransactor runs fn without a database; fakes ignore the handle
type fakeTransactor struct{}

func (fakeTransactor) DB(ctx context.Context) *gorm.DB { return nil }

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

// fakeAppointmentRepo keeps rows in memory and enforces the no-overlap rule on
// insert the way the exclusion constraint does. FindByID joins participants
// from users like the preload; update results carry only appointment columns.
type fakeAppointmentRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*entity.Appointment
	users map[uuid.UUID]*entity.User

	skipOverlapCount bool
	transitionErr    map[uuid.UUID]error
	createCalls      int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		rows:          map[uuid.UUID]*entity.Appointment{},
		users:         map[uuid.UUID]*entity.User{},
		transitionErr: map[uuid.UUID]error{},
	}
}

func (r *fakeAppointmentRepo) addUser(id uuid.UUID, fullName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = &entity.User{ID: id, FullName: fullName}
}

// returning mimics a RETURNING * row: no relations
func returning(a *entity.Appointment) *entity.Appointment {
	cp := *a
	cp.Patient = nil
	cp.Doctor = nil
	return &cp
}

func (r *fakeAppointmentRepo) put(a entity.Appointment) *entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.VideoChannelName == "" {
		a.VideoChannelName = "appt_" + a.ID.String()
	}
	r.rows[a.ID] = &a
	cp := a
	return &cp
}

func (r *fakeAppointmentRepo) get(id uuid.UUID) *entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

func window(a *entity.Appointment) timeslot.Window {
	w, _ := timeslot.Build(a.AppointmentDate, a.StartTime, a.EndTime, time.UTC)
	return w
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++

	w := window(appointment)
	for _, existing := range r.rows {
		if existing.DoctorID != appointment.DoctorID || existing.Status == entity.AppointmentStatusCancelled {
			continue
		}
		if window(existing).Overlaps(w) {
			return &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"}
		}
	}

	cp := *appointment
	r.rows[appointment.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	a := r.get(id)
	if a == nil {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[a.PatientID]; ok {
		cp := *u
		a.Patient = &cp
	}
	if u, ok := r.users[a.DoctorID]; ok {
		cp := *u
		a.Doctor = &cp
	}
	return a, nil
}

func (r *fakeAppointmentRepo) FindByParticipant(ctx context.Context, db *gorm.DB, userID uuid.UUID, statuses []entity.AppointmentStatus) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.rows {
		if !a.IsParticipant(userID) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, a.Status) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func containsStatus(statuses []entity.AppointmentStatus, s entity.AppointmentStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) FindActiveByDoctorAndDate(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.rows {
		if a.DoctorID == doctorID && a.Status != entity.AppointmentStatusCancelled &&
			a.AppointmentDate.Format(timeslot.DateLayout) == date.Format(timeslot.DateLayout) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) CountOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime, endTime string) (int64, error) {
	if r.skipOverlapCount {
		return 0, nil
	}
	requested, err := timeslot.Build(date, startTime, endTime, time.UTC)
	if err != nil {
		return 0, err
	}
	active, _ := r.FindActiveByDoctorAndDate(ctx, db, doctorID, date)
	var count int64
	for i := range active {
		if window(&active[i]).Overlaps(requested) {
			count++
		}
	}
	return count, nil
}

func (r *fakeAppointmentRepo) FindExpiredScheduled(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int, exclude []uuid.UUID) ([]entity.Appointment, error) {
	wallCutoff, err := time.ParseInLocation("2006-01-02 15:04:05", cutoff.Format("2006-01-02 15:04:05"), time.UTC)
	if err != nil {
		return nil, err
	}
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.rows {
		if a.Status != entity.AppointmentStatusScheduled || skip[a.ID] {
			continue
		}
		if window(a).End.Before(wallCutoff) {
			out = append(out, *returning(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ei, ej := window(&out[i]).End, window(&out[j]).End
		if !ei.Equal(ej) {
			return ei.Before(ej)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAppointmentRepo) TransitionStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, fields, expect map[string]interface{}) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.transitionErr[id]; err != nil {
		return nil, err
	}

	a, ok := r.rows[id]
	if !ok || a.Status != from {
		return nil, nil
	}
	for k, v := range expect {
		switch k {
		case "doctor_attended":
			if a.DoctorAttended != v.(bool) {
				return nil, nil
			}
		case "patient_attended":
			if a.PatientAttended != v.(bool) {
				return nil, nil
			}
		}
	}

	a.Status = to
	for k, v := range fields {
		switch k {
		case "cancellation_reason":
			a.CancellationReason = v.(string)
		case "doctor_attended":
			a.DoctorAttended = v.(bool)
		case "patient_attended":
			a.PatientAttended = v.(bool)
		}
	}
	a.UpdatedAt = time.Now()

	return returning(a), nil
}

func (r *fakeAppointmentRepo) MarkAttended(ctx context.Context, db *gorm.DB, id uuid.UUID, role entity.AttendanceRole, statuses ...entity.AppointmentStatus) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id]
	if !ok || !containsStatus(statuses, a.Status) {
		return nil, nil
	}
	if role == entity.AttendanceRoleDoctor {
		a.DoctorAttended = true
	} else {
		a.PatientAttended = true
	}

	return returning(a), nil
}

type fakeDoctorRepo struct {
	profiles map[uuid.UUID]*entity.DoctorProfile
}

func (r *fakeDoctorRepo) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func newDoctor(active, approved bool) (uuid.UUID, *entity.DoctorProfile) {
	id := uuid.New()
	return id, &entity.DoctorProfile{
		UserID:         id,
		Specialization: "General Practice",
		User: entity.User{
			ID:         id,
			RoleID:     entity.RoleIDDoctor,
			FullName:   "Dr. Test",
			IsActive:   boolPtr(active),
			IsApproved: boolPtr(approved),
		},
	}
}

type fakeAvailabilityRepo struct {
	mu     sync.Mutex
	slots  []entity.AvailabilitySlot
	nextID int
}

func (r *fakeAvailabilityRepo) FindByDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AvailabilitySlot
	for _, s := range r.slots {
		if s.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) FindActiveByDoctorAndDay(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, dayOfWeek int) ([]entity.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AvailabilitySlot
	for _, s := range r.slots {
		if s.DoctorID == doctorID && s.DayOfWeek == dayOfWeek && s.IsAvailable {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeAvailabilityRepo) Upsert(ctx context.Context, db *gorm.DB, slot *entity.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		s := &r.slots[i]
		if s.DoctorID == slot.DoctorID && s.DayOfWeek == slot.DayOfWeek && s.StartTime == slot.StartTime {
			s.EndTime = slot.EndTime
			s.IsAvailable = slot.IsAvailable
			slot.ID = s.ID
			return nil
		}
	}
	r.nextID++
	slot.ID = r.nextID
	r.slots = append(r.slots, *slot)
	return nil
}

func (r *fakeAvailabilityRepo) SetAvailable(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int, available bool) (*entity.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		s := &r.slots[i]
		if s.ID == id && s.DoctorID == doctorID {
			s.IsAvailable = available
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAvailabilityRepo) add(doctorID uuid.UUID, day time.Weekday, start, end string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.slots = append(r.slots, entity.AvailabilitySlot{
		ID:          r.nextID,
		DoctorID:    doctorID,
		DayOfWeek:   int(day),
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	})
}

type fakeMedicalRecordRepo struct {
	mu      sync.Mutex
	records []entity.MedicalRecord
}

func (r *fakeMedicalRecordRepo) Create(ctx context.Context, db *gorm.DB, record *entity.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeMedicalRecordRepo) FindByAppointment(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) ([]entity.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.MedicalRecord
	for _, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type auditEntry struct {
	action  string
	userID  *uuid.UUID
	from    entity.AppointmentStatus
	to      entity.AppointmentStatus
	trigger string
}

type fakeAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (s *fakeAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, auditEntry{action: action, userID: userID})
	return nil
}

func (s *fakeAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, auditEntry{action: action, userID: userID})
	return nil
}

func (s *fakeAuditService) LogTransition(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, appointmentID uuid.UUID, from, to entity.AppointmentStatus, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, auditEntry{
		action:  entity.AuditActionAppointmentTransition,
		userID:  userID,
		from:    from,
		to:      to,
		trigger: trigger,
	})
	return nil
}

func (s *fakeAuditService) count(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.action == action {
			n++
		}
	}
	return n
}

type notification struct {
	event  string
	id     uuid.UUID
	status entity.AppointmentStatus

	patientName string
	doctorName  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyParticipants(event string, appointment *entity.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sent := notification{event: event, id: appointment.ID, status: appointment.Status}
	if appointment.Patient != nil {
		sent.patientName = appointment.Patient.FullName
	}
	if appointment.Doctor != nil {
		sent.doctorName = appointment.Doctor.FullName
	}
	n.sent = append(n.sent, sent)
}

func (n *fakeNotifier) Wait() {}

func (n *fakeNotifier) events() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.sent))
	copy(out, n.sent)
	return out
}

var _ service.AppointmentNotifier = (*fakeNotifier)(nil)
var _ service.AuditService = (*fakeAuditService)(nil)

func newTestLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}
