package api

import (
	"net/http"

	"surfside/internal/models"
	"surfside/internal/service"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type activityView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (s *HTTPServer) handleActivities(w http.ResponseWriter, _ *http.Request) {
	activities := make([]activityView, 0, len(models.Activities))
	for _, a := range models.Activities {
		activities = append(activities, activityView{ID: a, Label: models.ActivityLabel(a)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activities": activities,
		"time_slots": models.TimeSlots,
		"durations":  []int{models.MinDuration, models.MaxDuration},
	})
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	activity, date := query(r, "activity"), query(r, "date")
	if activity == "" || date == "" {
		writeError(w, http.StatusBadRequest, "activity and date are required")
		return
	}
	duration, err := queryInt(r, "duration", models.MinDuration)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	slots, err := s.svc.Bookings.SlotGrid(r.Context(), activity, date, duration)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "activity": activity, "slots": slots})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	activity, date, slot := query(r, "activity"), query(r, "date"), query(r, "time")
	duration, err := queryInt(r, "duration", models.MinDuration)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	st, err := s.svc.Bookings.CheckSlot(r.Context(), activity, date, slot, duration)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type bookingRequest struct {
	FullName       string `json:"full_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Activity       string `json:"activity"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration"`
	InstructorName string `json:"instructor_name,omitempty"`
}

func (b bookingRequest) booking() *models.Booking {
	return &models.Booking{
		Customer:       models.Customer{FullName: b.FullName, Phone: b.Phone, Email: b.Email},
		Activity:       b.Activity,
		Date:           b.Date,
		Time:           b.Time,
		Duration:       b.Duration,
		InstructorName: b.InstructorName,
	}
}

func (s *HTTPServer) clientKey(r *http.Request) string {
	return httpClientKey(r, headerName(s.cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault))
}

func (s *HTTPServer) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.InstructorName != "" {
		writeError(w, http.StatusBadRequest, "instructor_name is assigned by staff")
		return
	}

	b := req.booking()
	if err := s.svc.Forms.SubmitBooking(r.Context(), s.clientKey(r), b); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *HTTPServer) handleStartForm(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Forms.Start(r.Context(), r.PathValue("session"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleGetForm(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Forms.Get(r.Context(), r.PathValue("session"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleDiscardForm(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Forms.Discard(r.Context(), r.PathValue("session")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleFormCustomer(w http.ResponseWriter, r *http.Request) {
	var customer models.Customer
	if err := decodeJSON(r, &customer); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	state, err := s.svc.Forms.SaveCustomer(r.Context(), r.PathValue("session"), customer)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleFormSlot(w http.ResponseWriter, r *http.Request) {
	var sel service.SlotSelection
	if err := decodeJSON(r, &sel); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	state, err := s.svc.Forms.SaveSlot(r.Context(), r.PathValue("session"), sel)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Forms.Submit(r.Context(), r.PathValue("session"), s.clientKey(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}
