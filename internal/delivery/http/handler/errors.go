package handler

import (
	"errors"
	"net/http"

	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// writeUsecaseError maps usecase sentinels to the response envelope; anything
// unknown becomes a 500 with fallback as message.
func writeUsecaseError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidDate),
		errors.Is(err, usecase.ErrInvalidTimeFormat),
		errors.Is(err, usecase.ErrInvalidTimeRange),
		errors.Is(err, usecase.ErrPastDateTime),
		errors.Is(err, usecase.ErrInvalidAttendanceRole),
		errors.Is(err, usecase.ErrInvalidStatusFilter):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, usecase.ErrAppointmentNotFound),
		errors.Is(err, usecase.ErrDoctorNotFound),
		errors.Is(err, usecase.ErrAvailabilitySlotNotFound),
		errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, usecase.ErrSlotConflict),
		errors.Is(err, usecase.ErrDoctorUnavailable),
		errors.Is(err, usecase.ErrAvailabilityOverlap),
		errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrOutsideWindow),
		errors.Is(err, usecase.ErrMedicalRecordNotAllowed):
		response.Conflict(w, err.Error())
	default:
		response.InternalServerError(w, fallback)
	}
}

func callerFromRequest(w http.ResponseWriter, r *http.Request) (entity.Caller, bool) {
	caller, ok := middleware.GetCallerFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return entity.Caller{}, false
	}
	return caller, true
}

func uuidVar(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}
