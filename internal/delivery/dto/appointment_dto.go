package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctor_id" validate:"required,uuid"`
	AppointmentDate string `json:"appointment_date" validate:"required,date"`
	StartTime       string `json:"start_time" validate:"required,clock"`
	EndTime         string `json:"end_time" validate:"required,clock"`
	Symptoms        string `json:"symptoms" validate:"omitempty,max=2000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type EndSessionRequest struct {
	MedicalRecord *CreateMedicalRecordRequest `json:"medical_record" validate:"omitempty"`
}

// Response DTOs

type ParticipantResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name,omitempty"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID            `json:"id"`
	PatientID          uuid.UUID            `json:"patient_id"`
	DoctorID           uuid.UUID            `json:"doctor_id"`
	Patient            *ParticipantResponse `json:"patient,omitempty"`
	Doctor             *ParticipantResponse `json:"doctor,omitempty"`
	AppointmentDate    string               `json:"appointment_date"`
	StartTime          string               `json:"start_time"`
	EndTime            string               `json:"end_time"`
	Status             string               `json:"status"`
	Symptoms           string               `json:"symptoms,omitempty"`
	DoctorAttended     bool                 `json:"doctor_attended"`
	PatientAttended    bool                 `json:"patient_attended"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	VideoChannelName   string               `json:"video_channel_name"`
	Phase              string               `json:"phase,omitempty"`
	CanJoin            bool                 `json:"can_join"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type EnterSessionResponse struct {
	ChannelName string               `json:"channel_name"`
	Appointment *AppointmentResponse `json:"appointment"`
}

type EndSessionResponse struct {
	Appointment   *AppointmentResponse   `json:"appointment"`
	MedicalRecord *MedicalRecordResponse `json:"medical_record,omitempty"`
}
