// internal/models/intent.go
package models

import "strings"

// Intent is the classified purpose of a single utterance.
type Intent string

const (
	IntentFAQQuery          Intent = "faq_query"
	IntentBookAppointment   Intent = "book_appointment"
	IntentSearchClinics     Intent = "search_clinics"
	IntentViewBookings      Intent = "view_bookings"
	IntentCancelBooking     Intent = "cancel_booking"
	IntentProvideName       Intent = "provide_name"
	IntentNavigationCommand Intent = "navigation_command"
	IntentUnknown           Intent = "unknown"
)

// AllIntents lists every member of the enumeration in declaration order.
var AllIntents = []Intent{
	IntentFAQQuery,
	IntentBookAppointment,
	IntentSearchClinics,
	IntentViewBookings,
	IntentCancelBooking,
	IntentProvideName,
	IntentNavigationCommand,
	IntentUnknown,
}

func (i Intent) String() string {
	return string(i)
}

// IsValid reports whether i is a member of the enumeration.
func (i Intent) IsValid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// ParseIntent normalizes raw model output into an Intent. Anything outside
// the enumeration becomes IntentUnknown.
func ParseIntent(raw string) Intent {
	candidate := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if candidate.IsValid() {
		return candidate
	}
	return IntentUnknown
}
