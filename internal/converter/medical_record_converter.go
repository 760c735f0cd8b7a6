package converter

import (
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"

	"github.com/google/uuid"
)

func MedicalRecordToResponse(record *entity.MedicalRecord) *dto.MedicalRecordResponse {
	if record == nil {
		return nil
	}

	resp := &dto.MedicalRecordResponse{
		ID:            record.ID,
		AppointmentID: record.AppointmentID,
		PatientID:     record.PatientID,
		DoctorID:      record.DoctorID,
		Diagnosis:     record.Diagnosis,
		Symptoms:      record.Symptoms,
		Notes:         record.Notes,
		VitalSigns:    record.VitalSigns,
		CreatedAt:     record.CreatedAt,
	}

	if p := record.Prescription; p != nil {
		resp.Prescription = &dto.PrescriptionResponse{
			ID:           p.ID,
			Medications:  p.Medications,
			Instructions: p.Instructions,
			CreatedAt:    p.CreatedAt,
		}
	}

	return resp
}

func MedicalRecordsToResponses(records []entity.MedicalRecord) []dto.MedicalRecordResponse {
	responses := make([]dto.MedicalRecordResponse, len(records))
	for i := range records {
		responses[i] = *MedicalRecordToResponse(&records[i])
	}
	return responses
}

// MedicalRecordFromRequest builds the entity graph for a new record on appointment
func MedicalRecordFromRequest(req *dto.CreateMedicalRecordRequest, appointment *entity.Appointment) *entity.MedicalRecord {
	record := &entity.MedicalRecord{
		ID:            uuid.New(),
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		DoctorID:      appointment.DoctorID,
		Diagnosis:     req.Diagnosis,
		Symptoms:      req.Symptoms,
		Notes:         req.Notes,
	}
	if len(req.VitalSigns) > 0 {
		record.VitalSigns = entity.JSON(req.VitalSigns)
	}

	if req.Prescription != nil {
		medications := make(entity.JSONList, len(req.Prescription.Medications))
		for i, m := range req.Prescription.Medications {
			medications[i] = map[string]interface{}{
				"name":      m.Name,
				"dosage":    m.Dosage,
				"frequency": m.Frequency,
				"duration":  m.Duration,
			}
		}
		record.Prescription = &entity.Prescription{
			ID:              uuid.New(),
			MedicalRecordID: record.ID,
			PatientID:       appointment.PatientID,
			DoctorID:        appointment.DoctorID,
			Medications:     medications,
			Instructions:    req.Prescription.Instructions,
		}
	}

	return record
}
