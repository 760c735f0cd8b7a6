package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"
	"go-telehealth-booking/pkg/validator"
)

type AppointmentHandler struct {
	bookingUsecase     usecase.BookingUsecase
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(
	bookingUsecase usecase.BookingUsecase,
	appointmentUsecase usecase.AppointmentUsecase,
	validator *validator.CustomValidator,
) *AppointmentHandler {
	return &AppointmentHandler{
		bookingUsecase:     bookingUsecase,
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.CreateAppointment(r.Context(), caller, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), caller, id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// ListMyAppointments accepts ?status=scheduled,in_progress
func (h *AppointmentHandler) ListMyAppointments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var statuses []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}

	appointments, err := h.appointmentUsecase.ListMyAppointments(r.Context(), caller, statuses)
	if err != nil {
		writeUsecaseError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) EnterSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	session, err := h.appointmentUsecase.EnterSession(r.Context(), caller, id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to enter session")
		return
	}

	response.Success(w, http.StatusOK, "Session entered successfully", session)
}

func (h *AppointmentHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.EndSessionRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	if req.MedicalRecord != nil {
		if err := h.validator.Validate(req.MedicalRecord); err != nil {
			response.ValidationError(w, h.validator.FormatValidationErrors(err))
			return
		}
	}

	result, err := h.appointmentUsecase.EndSession(r.Context(), caller, id, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to end session")
		return
	}

	response.Success(w, http.StatusOK, "Session ended successfully", result)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	var req dto.CancelAppointmentRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CancelAppointment(r.Context(), caller, id, &req)
	if err != nil {
		writeUsecaseError(w, err, "Failed to cancel appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

// MarkAttendance records the caller's own attendance flag
func (h *AppointmentHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.MarkAttendanceForCaller(r.Context(), caller, id)
	if err != nil {
		writeUsecaseError(w, err, "Failed to mark attendance")
		return
	}

	response.Success(w, http.StatusOK, "Attendance recorded successfully", appointment)
}

// decodeOptional decodes a JSON body when one is present
func (h *AppointmentHandler) decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}
