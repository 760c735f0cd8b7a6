package handler

import (
	"encoding/json"
	"net/http"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
	"go-telehealth-booking/pkg/validator"
)

type MedicalRecordHandler struct {
	medicalRecordUsecase usecase.MedicalRecordUsecase
	validator            *validator.CustomValidator
}

func NewMedicalRecordHandler(medicalRecordUsecase usecase.MedicalRecordUsecase, validator *validator.CustomValidator) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		medicalRecordUsecase: medicalRecordUsecase,
		validator:            validator,
	}
}

func (h *MedicalRecordHandler) CreateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	appointmentID, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.CreateMedicalRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	record, err := h.medicalRecordUsecase.CreateMedicalRecord(r.Context(), caller, appointmentID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create medical record")
		return
	}

	response.Success(w, http.StatusCreated, "Medical record created successfully", record)
}

func (h *MedicalRecordHandler) GetMedicalRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	appointmentID, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	records, err := h.medicalRecordUsecase.GetMedicalRecords(r.Context(), caller, appointmentID)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get medical records")
		return
	}

	response.Success(w, http.StatusOK, "Medical records retrieved successfully", records)
}
