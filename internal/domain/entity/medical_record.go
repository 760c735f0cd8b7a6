package entity

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord is an opaque clinical attachment written by the doctor of an appointment
type MedicalRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"appointment_id"`
	PatientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Diagnosis     string    `gorm:"type:text;not null" json:"diagnosis"`
	Symptoms      string    `gorm:"type:text" json:"symptoms,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	VitalSigns    JSON      `gorm:"type:jsonb" json:"vital_signs,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Prescription *Prescription `gorm:"foreignKey:MedicalRecordID" json:"prescription,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}

// Prescription belongs to exactly one medical record
type Prescription struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MedicalRecordID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"medical_record_id"`
	PatientID       uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID `gorm:"type:uuid;not null" json:"doctor_id"`
	Medications     JSONList  `gorm:"type:jsonb;not null" json:"medications"`
	Instructions    string    `gorm:"type:text" json:"instructions,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}
