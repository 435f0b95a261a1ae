package models

// LogEntry is one line of the staff audit trail.
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
	UserName  string `json:"user_name"`
	Details   string `json:"details"`
}
