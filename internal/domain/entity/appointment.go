package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusMissed     AppointmentStatus = "missed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted from s
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusMissed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// AttendanceRole identifies which participant's attendance flag is addressed
type AttendanceRole string

const (
	AttendanceRoleDoctor  AttendanceRole = "doctor"
	AttendanceRolePatient AttendanceRole = "patient"
)

// Column returns the appointments column backing the role's flag
func (r AttendanceRole) Column() string {
	if r == AttendanceRoleDoctor {
		return "doctor_attended"
	}
	return "patient_attended"
}

// Valid reports whether r names a known participant role
func (r AttendanceRole) Valid() bool {
	return r == AttendanceRoleDoctor || r == AttendanceRolePatient
}

// Appointment is one scheduled patient-doctor video encounter. Rows are never deleted.
type Appointment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentDate    time.Time         `gorm:"type:date;not null;index" json:"appointment_date"`
	StartTime          string            `gorm:"type:time;not null" json:"start_time"`
	EndTime            string            `gorm:"type:time;not null" json:"end_time"`
	Status             AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Symptoms           string            `gorm:"type:text" json:"symptoms,omitempty"`
	DoctorAttended     bool              `gorm:"not null;default:false" json:"doctor_attended"`
	PatientAttended    bool              `gorm:"not null;default:false" json:"patient_attended"`
	CancellationReason string            `gorm:"type:text" json:"cancellation_reason,omitempty"`
	VideoChannelName   string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"video_channel_name"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsParticipant checks if the user is the patient or the doctor of this appointment
func (a *Appointment) IsParticipant(userID uuid.UUID) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

// RoleOf returns the participant role held by userID
func (a *Appointment) RoleOf(userID uuid.UUID) (AttendanceRole, bool) {
	switch userID {
	case a.DoctorID:
		return AttendanceRoleDoctor, true
	case a.PatientID:
		return AttendanceRolePatient, true
	}
	return "", false
}

// HasAttended returns the attendance flag of the given role
func (a *Appointment) HasAttended(role AttendanceRole) bool {
	if role == AttendanceRoleDoctor {
		return a.DoctorAttended
	}
	return a.PatientAttended
}

// BothAttended checks if doctor and patient both marked attendance
func (a *Appointment) BothAttended() bool {
	return a.DoctorAttended && a.PatientAttended
}

// Participants returns the user IDs that receive notifications for this appointment
func (a *Appointment) Participants() []uuid.UUID {
	return []uuid.UUID{a.PatientID, a.DoctorID}
}
