package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type MedicationRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Dosage    string `json:"dosage" validate:"required,max=100"`
	Frequency string `json:"frequency" validate:"omitempty,max=100"`
	Duration  string `json:"duration" validate:"omitempty,max=100"`
}

type PrescriptionRequest struct {
	Medications  []MedicationRequest `json:"medications" validate:"required,min=1,dive"`
	Instructions string              `json:"instructions" validate:"omitempty,max=2000"`
}

type CreateMedicalRecordRequest struct {
	Diagnosis    string                 `json:"diagnosis" validate:"required,max=2000"`
	Symptoms     string                 `json:"symptoms" validate:"omitempty,max=2000"`
	Notes        string                 `json:"notes" validate:"omitempty,max=5000"`
	VitalSigns   map[string]interface{} `json:"vital_signs"`
	Prescription *PrescriptionRequest   `json:"prescription" validate:"omitempty"`
}

// Response DTOs

type PrescriptionResponse struct {
	ID           uuid.UUID     `json:"id"`
	Medications  []interface{} `json:"medications"`
	Instructions string        `json:"instructions,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type MedicalRecordResponse struct {
	ID            uuid.UUID              `json:"id"`
	AppointmentID uuid.UUID              `json:"appointment_id"`
	PatientID     uuid.UUID              `json:"patient_id"`
	DoctorID      uuid.UUID              `json:"doctor_id"`
	Diagnosis     string                 `json:"diagnosis"`
	Symptoms      string                 `json:"symptoms,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	VitalSigns    map[string]interface{} `json:"vital_signs,omitempty"`
	Prescription  *PrescriptionResponse  `json:"prescription,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type MedicalRecordListResponse struct {
	Records []MedicalRecordResponse `json:"records"`
	Total   int                     `json:"total"`
}
