package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	ActivityKitesurf      = "Kitesurf"
	ActivityWingfoil      = "Wingfoil"
	ActivityCoastalRowing = "CoastalRowing"
)

// Activities lists the bookable activities in display order.
var Activities = []string{ActivityKitesurf, ActivityWingfoil, ActivityCoastalRowing}

var activityLabels = map[string]string{
	ActivityKitesurf:      "Kitesurf",
	ActivityWingfoil:      "Wingfoil",
	ActivityCoastalRowing: "Deniz Küreği",
}

// TimeSlots are the hourly start times offered each day.
var TimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00", "14:00",
	"15:00", "16:00", "17:00", "18:00", "19:00",
}

const (
	FirstSlotHour = 9
	LastSlotHour  = 19
	// DayEndHour is the end of the last slot; no booking may run past it.
	DayEndHour = LastSlotHour + 1

	MinDuration = 1
	MaxDuration = 2
)

const (
	LogCreate           = "create"
	LogStatusUpdate     = "status_update"
	LogInstructorAssign = "instructor_assign"
	LogEdit             = "edit"
	LogDelete           = "delete"
	LogNotificationSent = "notification_sent"
)

const (
	// MaxLogEntries caps the audit log listing.
	MaxLogEntries = 100

	// ManualBookingEmail is stored for walk-in bookings entered by staff.
	ManualBookingEmail = "manuel@kayit.com"

	DateLayout = "2006-01-02"

	// DefaultFormStateTTL keeps an unfinished booking form for a day.
	DefaultFormStateTTL = 24 * 60 * 60

	// RateLimitRequests submissions allowed per client inside RateLimitWindow.
	RateLimitRequests = 10
	RateLimitWindow   = 60

	DefaultMaxBookingDays = 180
)

// DefaultInstructorNames seed the roster when none is stored yet.
var DefaultInstructorNames = []string{"Samican", "Özercan", "Ahmet", "Oğulcan", "Ata"}

// DefaultInstructors returns the seed roster, every instructor qualified for every activity.
func DefaultInstructors() []*Instructor {
	out := make([]*Instructor, 0, len(DefaultInstructorNames))
	for i, name := range DefaultInstructorNames {
		out = append(out, &Instructor{
			Name:        name,
			Specialties: append([]string(nil), Activities...),
			SortOrder:   int64(i),
		})
	}
	return out
}

func IsValidActivity(activity string) bool {
	_, ok := activityLabels[activity]
	return ok
}

// ActivityLabel returns the customer facing name of an activity.
func ActivityLabel(activity string) string {
	if label, ok := activityLabels[activity]; ok {
		return label
	}
	return activity
}

var statusLabels = map[string]string{
	StatusPending:   "Beklemede",
	StatusConfirmed: "Onaylandı",
	StatusCancelled: "İptal Edildi",
}

func IsValidStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

// StatusLabel returns the staff facing name of a status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func IsValidSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}
