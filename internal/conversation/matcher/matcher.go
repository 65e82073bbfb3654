// internal/conversation/matcher/matcher.go
package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"careescapes-workers/internal/conversation/extractor"
	"careescapes-workers/internal/models"
)

// Result is the outcome of a heuristic match. Matched is false when no rule
// applied and the model classifier has to decide.
type Result struct {
	Intent   models.Intent
	Entities models.EntityBag
	Matched  bool
}

var (
	searchPhrases = []string{
		"find a clinic", "find clinic", "find a dental clinic", "find a dentist", "find dentist",
		"search clinic", "search for clinic", "search for a clinic", "search for dentist",
		"looking for a clinic", "looking for a dentist", "looking for clinics",
		"show clinics", "show me clinics", "list clinics", "list of clinics",
		"clinics in", "clinic in", "dentist in", "dentists in", "clinics near", "clinics for",
	}

	bookingPhrases = []string{
		"book an appointment", "book appointment", "book a ", "book me",
		"make an appointment", "make appointment",
		"schedule an appointment", "schedule appointment", "schedule a ",
		"set up an appointment", "reserve a", "i want to book", "i'd like to book",
	}

	lookupPhrases = []string{
		"my bookings", "my booking", "my appointments", "my appointment",
		"view booking", "view bookings", "view my", "show bookings", "show my bookings",
		"check booking", "check my booking", "booking status", "upcoming appointment",
	}

	cancelPhrases = []string{
		"cancel booking", "cancel appointment", "cancel my", "cancel the",
		"cancel a booking", "cancel an appointment", "cancel reservation",
	}

	locationAfterIn = regexp.MustCompile(`(?i)\bin\s+([\p{L}][\p{L}'\-]*)`)
)

// Matcher assigns a coarse intent from keyword phrases without calling a model.
type Matcher struct{}

func New() *Matcher {
	return &Matcher{}
}

// Match evaluates the rules in order and returns on the first hit.
// Utterances that ask to cancel are never captured by an earlier rule.
func (m *Matcher) Match(text string) Result {
	lower := strings.ToLower(text)
	cancelling := containsAny(lower, cancelPhrases)

	if !cancelling {
		if names, ok := extractor.MatchIntroduction(text); ok {
			return Result{Intent: models.IntentProvideName, Entities: names, Matched: true}
		}

		if containsAny(lower, searchPhrases) {
			entities := models.EntityBag{}
			if city := locationAfterIn.FindStringSubmatch(text); city != nil {
				entities.Set(models.EntityLocationCity, capitalize(city[1]))
			}
			return Result{Intent: models.IntentSearchClinics, Entities: entities, Matched: true}
		}

		if containsAny(lower, bookingPhrases) {
			return Result{Intent: models.IntentBookAppointment, Entities: models.EntityBag{}, Matched: true}
		}

		if containsAny(lower, lookupPhrases) {
			return Result{Intent: models.IntentViewBookings, Entities: models.EntityBag{}, Matched: true}
		}
	}

	if cancelling {
		return Result{Intent: models.IntentCancelBooking, Entities: models.EntityBag{}, Matched: true}
	}

	return Result{Intent: models.IntentUnknown, Entities: models.EntityBag{}, Matched: false}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
