package api

import (
	"bytes"
	"fmt"
	"net/http"

	"surfside/internal/models"
	"surfside/internal/report"
)

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	filter := models.BookingFilter{
		Date:           query(r, "date"),
		Status:         query(r, "status"),
		Activity:       query(r, "activity"),
		InstructorName: query(r, "instructor"),
		Limit:          limit,
	}

	bookings, err := s.svc.Bookings.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleActionable(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.Bookings.ActionableBookings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *HTTPServer) handleManualBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	b := req.booking()
	if err := s.svc.Bookings.CreateManualBooking(r.Context(), b, actorFrom(r.Context())); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

type editRequest struct {
	Version int64 `json:"version"`
	models.BookingPatch
}

func (s *HTTPServer) handleEditBooking(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	b, err := s.svc.Bookings.EditBooking(r.Context(), r.PathValue("id"), req.Version, req.BookingPatch, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Bookings.DeleteBooking(r.Context(), r.PathValue("id"), actorFrom(r.Context())); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	b, err := s.svc.Bookings.UpdateStatus(r.Context(), r.PathValue("id"), req.Version, req.Status, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type assignRequest struct {
	InstructorName string `json:"instructor_name"`
	Version        int64  `json:"version"`
}

func (s *HTTPServer) handleAssignInstructor(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	b, err := s.svc.Bookings.AssignInstructor(r.Context(), r.PathValue("id"), req.Version, req.InstructorName, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *HTTPServer) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.Notifications.ConfirmationLink(r.Context(), r.PathValue("id"), actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

// rangeQuery reads date, time, duration and exclude_id shared by the
// instructor checks.
func rangeQuery(r *http.Request) (date, slot string, duration int, excludeID string, err error) {
	date, slot = query(r, "date"), query(r, "time")
	if date == "" || slot == "" {
		return "", "", 0, "", badRequest("date and time are required")
	}
	duration, err = queryInt(r, "duration", models.MinDuration)
	return date, slot, duration, query(r, "exclude_id"), err
}

func (s *HTTPServer) handleCheckInstructor(w http.ResponseWriter, r *http.Request) {
	name := query(r, "name")
	date, slot, duration, excludeID, err := rangeQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	busy, conflicts, err := s.svc.Bookings.CheckInstructor(r.Context(), name, date, slot, duration, excludeID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if conflicts == nil {
		conflicts = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"instructor": name, "busy": busy, "conflicts": conflicts})
}

func (s *HTTPServer) handleFreeInstructors(w http.ResponseWriter, r *http.Request) {
	date, slot, duration, excludeID, err := rangeQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	names, err := s.svc.Bookings.FreeInstructors(r.Context(), query(r, "activity"), date, slot, duration, excludeID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instructors": names})
}

func (s *HTTPServer) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.svc.Instructors.Roster(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instructors": roster})
}

func (s *HTTPServer) handleSaveRoster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instructors []*models.Instructor `json:"instructors"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	roster, err := s.svc.Instructors.SaveRoster(r.Context(), req.Instructors, actorFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instructors": roster})
}

func (s *HTTPServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", models.MaxLogEntries)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	logs, err := s.svc.Audit.Logs(r.Context(), limit, query(r, "booking_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*models.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *HTTPServer) dailyReport(r *http.Request) (*report.DailyReport, error) {
	date := query(r, "date")
	if date == "" {
		date = s.svc.Bookings.Today()
	}

	bookings, err := s.svc.Bookings.BookingsByDate(r.Context(), date)
	if err != nil {
		return nil, err
	}
	roster, err := s.svc.Instructors.Roster(r.Context())
	if err != nil {
		return nil, err
	}
	return report.BuildDaily(date, bookings, roster), nil
}

func (s *HTTPServer) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.dailyReport(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *HTTPServer) handleDailyReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, err := s.dailyReport(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	// Buffered so a render failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := report.WriteXLSX(rep, &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="gunluk_program_%s.xlsx"`, rep.Date))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleResync(w http.ResponseWriter, r *http.Request) {
	if s.svc.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sheets sync is not configured")
		return
	}
	if err := s.svc.Sync.EnqueueResync(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
