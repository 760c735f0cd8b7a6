package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
	"go-telehealth-booking/pkg/validator"

	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

// GetAvailableSlots lists bookable slots of a doctor for ?date=YYYY-MM-DD
func (h *AvailabilityHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "Query parameter date is required")
		return
	}

	slots, err := h.availabilityUsecase.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get available slots")
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}

func (h *AvailabilityHandler) GetMyAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	availability, err := h.availabilityUsecase.GetMyAvailability(r.Context(), caller)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *AvailabilityHandler) UpsertAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.UpsertAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.UpsertAvailability(r.Context(), caller, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", availability)
}

func (h *AvailabilityHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	slotID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid availability slot ID")
		return
	}

	var req dto.ToggleAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slot, err := h.availabilityUsecase.SetAvailability(r.Context(), caller, slotID, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to update availability slot")
		return
	}

	response.Success(w, http.StatusOK, "Availability slot updated successfully", slot)
}
