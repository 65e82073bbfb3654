// internal/conversation/handlers/handlers.go
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/models"
)

type Status string

const (
	StatusOK                Status = "ok"
	StatusInputError        Status = "input_error"
	StatusCollaboratorError Status = "collaborator_error"
	StatusInternalError     Status = "internal_error"
)

const (
	MsgInternalError = "Sorry, something went wrong while handling your request. Please try again."
	MsgNoFAQAnswer   = "I don't have enough information to answer that question."
)

// Input is what every handler receives: the raw utterance and the merged entities.
type Input struct {
	Utterance string
	Entities  models.EntityBag
}

// Result is the reply text for one turn. Learned carries values the caller may
// remember for later turns, such as the user_id of a created profile.
type Result struct {
	Text    string
	Status  Status
	Learned models.EntityBag
}

type HandlerFunc func(ctx context.Context, in Input) Result

type Dependencies struct {
	Clinics  ClinicSearcher
	Bookings BookingService
	Users    UserDirectory
	FAQ      FAQAnswerer
}

// DefaultAppointmentHour is the hour used when a booking has no time of day.
const DefaultAppointmentHour = 10

// Options tunes the handlers. A nil DefaultAppointmentHour means 10:00;
// point it at 0 for midnight.
type Options struct {
	DefaultAppointmentHour *int
	PlaceholderEmailDomain string
	Clock                  Clock
}

type Handlers struct {
	deps            Dependencies
	opts            Options
	appointmentHour int
	logger          logger.Logger
}

func New(deps Dependencies, opts Options, log logger.Logger) *Handlers {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.PlaceholderEmailDomain == "" {
		opts.PlaceholderEmailDomain = "example.com"
	}
	hour := DefaultAppointmentHour
	if opts.DefaultAppointmentHour != nil {
		hour = *opts.DefaultAppointmentHour
	}
	return &Handlers{
		deps:            deps,
		opts:            opts,
		appointmentHour: hour,
		logger:          log.With(map[string]interface{}{"component": "handlers"}),
	}
}

// Table maps every intent to its handler. faq_query and unknown share one.
func (h *Handlers) Table() map[models.Intent]HandlerFunc {
	return map[models.Intent]HandlerFunc{
		models.IntentSearchClinics:     h.searchClinics,
		models.IntentBookAppointment:   h.bookAppointment,
		models.IntentViewBookings:      h.viewBookings,
		models.IntentCancelBooking:     h.cancelBooking,
		models.IntentProvideName:       h.provideName,
		models.IntentNavigationCommand: h.navigate,
		models.IntentFAQQuery:          h.answerFAQ,
		models.IntentUnknown:           h.answerFAQ,
	}
}

// Handle runs the handler for intent. Panics become a generic apology.
func (h *Handlers) Handle(ctx context.Context, intent models.Intent, in Input) (res Result) {
	start := time.Now()
	fn, ok := h.Table()[intent]
	if !ok {
		fn = h.answerFAQ
	}
	if in.Entities == nil {
		in.Entities = models.EntityBag{}
	}

	defer func() {
		if r := recover(); r != nil {
			stdErr := errors.NewHandlerPanicError(intent.String(), r)
			h.logger.Error("handler panicked", map[string]interface{}{
				"intent": intent.String(),
				"error":  stdErr,
			})
			res = Result{Text: MsgInternalError, Status: StatusInternalError}
		}
		if res.Status != StatusOK {
			metrics.HandlerFailures.WithLabelValues(intent.String(), string(res.Status)).Inc()
		}
		metrics.HandlerDuration.WithLabelValues(intent.String()).Observe(time.Since(start).Seconds())
	}()

	return fn(ctx, in)
}

var entityLabels = map[string]string{
	models.EntityUserID:         "user ID",
	models.EntityClinicID:       "clinic ID",
	models.EntityServiceID:      "service ID",
	models.EntityBookingID:      "booking ID",
	models.EntityFirstName:      "first name",
	models.EntityPageToNavigate: "page",
}

func label(key string) string {
	if l, ok := entityLabels[key]; ok {
		return l
	}
	return strings.ReplaceAll(key, "_", " ")
}

// missing returns an input-error result naming every unset required key, or
// nil when all are present.
func missing(bag models.EntityBag, action string, required ...string) *Result {
	keys := bag.Missing(required...)
	if len(keys) == 0 {
		return nil
	}
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = label(k)
	}
	stdErr := errors.NewMissingEntitiesError(labels)
	return &Result{
		Text:   fmt.Sprintf("Missing required information to %s: %s.", action, stdErr.Details),
		Status: StatusInputError,
	}
}

func (h *Handlers) collaboratorFailure(prefix string, err error, fields map[string]interface{}) Result {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["error"] = err
	h.logger.Warn(prefix, fields)
	return Result{
		Text:   fmt.Sprintf("%s: %s", prefix, errors.UserMessage(err)),
		Status: StatusCollaboratorError,
	}
}

func (h *Handlers) navigate(_ context.Context, in Input) Result {
	if r := missing(in.Entities, "navigate", models.EntityPageToNavigate); r != nil {
		return *r
	}
	return Result{
		Text:   fmt.Sprintf("Redirecting you to the %s page.", in.Entities.Get(models.EntityPageToNavigate)),
		Status: StatusOK,
	}
}

func (h *Handlers) answerFAQ(ctx context.Context, in Input) Result {
	if h.deps.FAQ == nil {
		return Result{Text: MsgNoFAQAnswer, Status: StatusOK}
	}
	answer, err := h.deps.FAQ.AnswerFAQ(ctx, in.Utterance)
	if err != nil {
		return h.collaboratorFailure("Failed to answer your question", err, nil)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = MsgNoFAQAnswer
	}
	return Result{Text: answer, Status: StatusOK}
}
