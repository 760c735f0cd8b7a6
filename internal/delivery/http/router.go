package http

import (
	"net/http"

	"go-telehealth-booking/internal/delivery/http/handler"
	"go-telehealth-booking/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router               *mux.Router
	appointmentHandler   *handler.AppointmentHandler
	availabilityHandler  *handler.AvailabilityHandler
	medicalRecordHandler *handler.MedicalRecordHandler
	lifecycleHandler     *handler.LifecycleHandler
	auditLogHandler      *handler.AuditLogHandler
	healthHandler        *handler.HealthHandler
	metricsHandler       http.Handler
	authMiddleware       *middleware.AuthMiddleware
	corsMiddleware       *middleware.CORSMiddleware
	metricsMiddleware    *middleware.MetricsMiddleware
}

func NewRouter(
	appointmentHandler *handler.AppointmentHandler,
	availabilityHandler *handler.AvailabilityHandler,
	medicalRecordHandler *handler.MedicalRecordHandler,
	lifecycleHandler *handler.LifecycleHandler,
	auditLogHandler *handler.AuditLogHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
) *Router {
	return &Router{
		router:               mux.NewRouter(),
		appointmentHandler:   appointmentHandler,
		availabilityHandler:  availabilityHandler,
		medicalRecordHandler: medicalRecordHandler,
		lifecycleHandler:     lifecycleHandler,
		auditLogHandler:      auditLogHandler,
		healthHandler:        healthHandler,
		metricsHandler:       metricsHandler,
		authMiddleware:       authMiddleware,
		corsMiddleware:       corsMiddleware,
		metricsMiddleware:    metricsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// Operational endpoints (public)
	r.router.HandleFunc("/health", r.healthHandler.Health).Methods(http.MethodGet)
	r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.Use(r.authMiddleware.Authenticate)

	// Appointments
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Handle("", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.CreateAppointment))).Methods(http.MethodPost)
	appointments.HandleFunc("/me", r.appointmentHandler.ListMyAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/session/enter", r.appointmentHandler.EnterSession).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/session/end", r.appointmentHandler.EndSession).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/attendance", r.appointmentHandler.MarkAttendance).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/medical-records", r.medicalRecordHandler.GetMedicalRecords).Methods(http.MethodGet)
	appointments.Handle("/{id}/medical-records", middleware.RequireDoctor(http.HandlerFunc(r.medicalRecordHandler.CreateMedicalRecord))).Methods(http.MethodPost)

	// Doctor availability (doctor only)
	myAvailability := api.PathPrefix("/doctors/me/availability").Subrouter()
	myAvailability.Use(middleware.RequireDoctor)
	myAvailability.HandleFunc("", r.availabilityHandler.GetMyAvailability).Methods(http.MethodGet)
	myAvailability.HandleFunc("", r.availabilityHandler.UpsertAvailability).Methods(http.MethodPut)
	myAvailability.HandleFunc("/{id:[0-9]+}", r.availabilityHandler.SetAvailability).Methods(http.MethodPatch)

	api.HandleFunc("/doctors/{doctorId}/slots", r.availabilityHandler.GetAvailableSlots).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/lifecycle/sweep", r.lifecycleHandler.RunSweep).Methods(http.MethodPost)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id:[0-9]+}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(r.metricsMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}
