package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"surfside/internal/config"
	"surfside/internal/database"
	"surfside/internal/service"

	"github.com/rs/zerolog"
)

// Resyncer schedules a full rewrite of the booking mirror.
type Resyncer interface {
	EnqueueResync(ctx context.Context) error
}

// Services are the application services the API exposes. Sync may be nil
// when the Sheets mirror is off.
type Services struct {
	Bookings      *service.BookingService
	Instructors   *service.InstructorService
	Forms         *service.FormService
	Audit         *service.AuditService
	Notifications *service.NotificationService
	Sync          Resyncer
}

// HTTPServer serves the customer booking form API and the staff API.
type HTTPServer struct {
	cfg    config.APIConfig
	svc    Services
	auth   *HTTPAuth
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "http").Logger()

	s := &HTTPServer{
		cfg:    cfg,
		svc:    svc,
		auth:   NewHTTPAuth(cfg.Auth),
		logger: &l,
	}

	apiKeyHeader := headerName(cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault)
	handler := loggingMiddleware(s.logger, rateLimitMiddleware(newRateLimiter(cfg.RateLimit), apiKeyHeader, s.routes()))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/activities", s.handleActivities)
	mux.HandleFunc("GET /api/v1/slots", s.handleSlots)
	mux.HandleFunc("GET /api/v1/availability", s.handleAvailability)
	mux.HandleFunc("POST /api/v1/bookings", s.handleSubmitBooking)

	mux.HandleFunc("POST /api/v1/forms", s.handleStartForm)
	mux.HandleFunc("PUT /api/v1/forms/{session}", s.handleStartForm)
	mux.HandleFunc("GET /api/v1/forms/{session}", s.handleGetForm)
	mux.HandleFunc("DELETE /api/v1/forms/{session}", s.handleDiscardForm)
	mux.HandleFunc("POST /api/v1/forms/{session}/customer", s.handleFormCustomer)
	mux.HandleFunc("POST /api/v1/forms/{session}/slot", s.handleFormSlot)
	mux.HandleFunc("POST /api/v1/forms/{session}/submit", s.handleFormSubmit)

	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.auth.Admin(h))
	}
	admin("GET /api/v1/admin/bookings", s.handleListBookings)
	admin("POST /api/v1/admin/bookings", s.handleManualBooking)
	admin("GET /api/v1/admin/bookings/actionable", s.handleActionable)
	admin("GET /api/v1/admin/bookings/{id}", s.handleGetBooking)
	admin("PATCH /api/v1/admin/bookings/{id}", s.handleEditBooking)
	admin("DELETE /api/v1/admin/bookings/{id}", s.handleDeleteBooking)
	admin("PUT /api/v1/admin/bookings/{id}/status", s.handleUpdateStatus)
	admin("PUT /api/v1/admin/bookings/{id}/instructor", s.handleAssignInstructor)
	admin("POST /api/v1/admin/bookings/{id}/whatsapp", s.handleWhatsApp)
	admin("GET /api/v1/admin/instructors/check", s.handleCheckInstructor)
	admin("GET /api/v1/admin/instructors/free", s.handleFreeInstructors)
	admin("GET /api/v1/admin/roster", s.handleGetRoster)
	admin("PUT /api/v1/admin/roster", s.handleSaveRoster)
	admin("GET /api/v1/admin/logs", s.handleLogs)
	admin("GET /api/v1/admin/reports/daily", s.handleDailyReport)
	admin("GET /api/v1/admin/reports/daily.xlsx", s.handleDailyReportXLSX)
	admin("POST /api/v1/admin/sync", s.handleResync)

	return mux
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// writeServiceError maps service and storage errors onto status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var cerr *service.ConflictError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, map[string]any{"error": cerr.Error(), "conflicts": cerr.Conflicts})
	case errors.Is(err, service.ErrSlotNotAvailable), errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrBookingNotFound), errors.Is(err, service.ErrFormNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidRoster), errors.Is(err, service.ErrFormIncomplete),
		errors.Is(err, service.ErrMissingPhone), errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).
			Str("request_id", requestIDFrom(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

// queryInt reads an optional integer parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return v, nil
}

func query(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
