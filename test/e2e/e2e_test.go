// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careescapes-workers/internal/api"
	"careescapes-workers/internal/common/database"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/conversation/assistant"
	"careescapes-workers/internal/conversation/classifier"
	"careescapes-workers/internal/conversation/handlers"
	"careescapes-workers/internal/conversation/matcher"
	"careescapes-workers/internal/conversation/router"
	"careescapes-workers/internal/models"
	"careescapes-workers/internal/session"
)

// ==========================
// In-memory backend
// ==========================

type backend struct {
	mu       sync.Mutex
	users    []models.User
	bookings []models.Booking
	seq      int
}

func (b *backend) next(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func (b *backend) SearchClinics(_ context.Context, filter models.ClinicSearchFilter) ([]models.ClinicSearchResult, error) {
	if filter.LocationCity != "" && filter.LocationCity != "Istanbul" {
		return nil, nil
	}
	return []models.ClinicSearchResult{{
		Clinic: models.Clinic{
			ClinicID:        "clinic-1",
			ClinicName:      "Bosphorus Dental",
			LocationCity:    "Istanbul",
			LocationCountry: "Turkey",
		},
		Service: models.Service{
			ServiceID:   "svc-implant",
			ServiceName: "Dental Implant",
			PriceStart:  850,
			Currency:    "EUR",
		},
	}}, nil
}

func (b *backend) CreateBooking(_ context.Context, req models.BookingRequest) (*models.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk := models.Booking{
		BookingID:        b.next("bk"),
		UserID:           req.UserID,
		ClinicID:         req.ClinicID,
		ServiceID:        req.ServiceID,
		AppointmentStart: req.AppointmentStart,
		AppointmentEnd:   req.AppointmentStart.Add(models.AppointmentDuration),
		BookingStatus:    models.BookingStatusRequested,
	}
	b.bookings = append(b.bookings, bk)
	return &bk, nil
}

func (b *backend) GetUserBookings(_ context.Context, userID string) ([]models.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Booking
	for _, bk := range b.bookings {
		if bk.UserID == userID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (b *backend) CancelBooking(_ context.Context, bookingID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.bookings {
		if b.bookings[i].BookingID == bookingID {
			b.bookings[i].BookingStatus = models.BookingStatusCancelled
			return nil
		}
	}
	return fmt.Errorf("booking %s not found", bookingID)
}

func (b *backend) CreateUser(_ context.Context, u models.NewUser) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	user := models.User{
		UserID:    b.next("user"),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		EmailID:   u.EmailID,
		Mobile:    u.Mobile,
	}
	b.users = append(b.users, user)
	return &user, nil
}

func (b *backend) FindUserByName(_ context.Context, first, last string) ([]models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.User
	for _, u := range b.users {
		if strings.EqualFold(u.FirstName, first) && strings.EqualFold(u.LastName, last) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (b *backend) UpdateUser(_ context.Context, userID string, update models.UserUpdate) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		if b.users[i].UserID == userID {
			if update.EmailID != "" {
				b.users[i].EmailID = update.EmailID
			}
			u := b.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s not found", userID)
}

// scriptedCompleter stands in for the language model. Unscripted utterances
// get a reply with no JSON so the classifier falls back.
type scriptedCompleter map[string]string

func (s scriptedCompleter) ClassifyText(_ context.Context, _, utterance string) (string, error) {
	if reply, ok := s[utterance]; ok {
		return reply, nil
	}
	return "I am not sure.", nil
}

type staticFAQ string

func (f staticFAQ) AnswerFAQ(context.Context, string) (string, error) { return string(f), nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// ==========================
// Harness
// ==========================

type harness struct {
	server  *httptest.Server
	backend *backend
}

func newHarness(t *testing.T, completer scriptedCompleter) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	be := &backend{}

	h := handlers.New(handlers.Dependencies{
		Clinics:  be,
		Bookings: be,
		Users:    be,
		FAQ:      staticFAQ("Appointments can be cancelled free of charge up to 72 hours before the start time."),
	}, handlers.Options{
		Clock:                  fixedClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
	}, log)

	cls := classifier.New(completer, time.Second, log)
	rt := router.New(matcher.New(), cls, h, nil, log)
	svc := assistant.NewService(rt, session.NewMemoryStore(), log)

	srv := httptest.NewServer(api.NewServer(svc, map[string]database.Pinger{}, log).Routes())
	t.Cleanup(srv.Close)

	return &harness{server: srv, backend: be}
}

type chatReply struct {
	Reply    string            `json:"reply"`
	Intent   string            `json:"intent"`
	Source   string            `json:"source"`
	Status   string            `json:"status"`
	Entities map[string]string `json:"entities"`
}

func (h *harness) say(t *testing.T, sessionID, message string) chatReply {
	t.Helper()
	body, err := json.Marshal(map[string]string{"session_id": sessionID, "message": message})
	require.NoError(t, err)

	resp, err := http.Post(h.server.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out chatReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	t.Logf("[%s] %q -> %s/%s: %s", sessionID, message, out.Intent, out.Source, out.Reply)
	return out
}

func (h *harness) sayLegacy(t *testing.T, message string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"user_input": message})
	require.NoError(t, err)

	resp, err := http.Post(h.server.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out["response"]
}

// ==========================
// Scenarios
// ==========================

func TestConversation_ProfileBookViewCancel(t *testing.T) {
	h := newHarness(t, scriptedCompleter{
		"Please reserve clinic-1 for svc-implant on 2026-11-02 10:00": `Sure! {"intent": "book_appointment", "entities": {"clinic_id": "clinic-1", "service_id": "svc-implant", "appointment_date": "2026-11-02 10:00"}}`,
	})
	const sid = "sess-priya"

	intro := h.say(t, sid, "Hi, my name is Priya Sharma")
	assert.Equal(t, "provide_name", intro.Intent)
	assert.Equal(t, "heuristic", intro.Source)
	assert.Equal(t, "ok", intro.Status)
	assert.Contains(t, intro.Reply, "Nice to meet you, Priya")
	require.Len(t, h.backend.users, 1)
	assert.Equal(t, "priya.sharma@example.com", h.backend.users[0].EmailID)

	search := h.say(t, sid, "Find a clinic in istanbul")
	assert.Equal(t, "search_clinics", search.Intent)
	assert.Equal(t, "Istanbul", search.Entities["location_city"])
	assert.Contains(t, search.Reply, "Bosphorus Dental")

	incomplete := h.say(t, sid, "I want to book an appointment")
	assert.Equal(t, "book_appointment", incomplete.Intent)
	assert.Equal(t, "input_error", incomplete.Status)
	assert.Contains(t, incomplete.Reply, "clinic ID")
	assert.NotContains(t, incomplete.Reply, "user ID")

	booked := h.say(t, sid, "Please reserve clinic-1 for svc-implant on 2026-11-02 10:00")
	assert.Equal(t, "book_appointment", booked.Intent)
	assert.Equal(t, "classifier", booked.Source)
	assert.Equal(t, "ok", booked.Status)
	assert.Equal(t, "user-1", booked.Entities["user_id"])
	assert.Contains(t, booked.Reply, "Booking ID: bk-2")
	assert.Contains(t, booked.Reply, "Monday, November 2, 2026 at 10:00")

	view := h.say(t, sid, "Show my bookings")
	assert.Equal(t, "view_bookings", view.Intent)
	assert.Contains(t, view.Reply, "bk-2")
	assert.Contains(t, view.Reply, "Status: requested")

	cancel := h.say(t, sid, "Please cancel my booking")
	assert.Equal(t, "cancel_booking", cancel.Intent)
	assert.Equal(t, "ok", cancel.Status)
	assert.Equal(t, "Booking cancelled successfully.", cancel.Reply)
	assert.Equal(t, models.BookingStatusCancelled, h.backend.bookings[0].BookingStatus)

	resp, err := http.Get(h.server.URL + "/v1/sessions/" + sid + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history api.HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history.History, 12)
	assert.Equal(t, models.RoleUser, history.History[0].Role)
	assert.Equal(t, "Hi, my name is Priya Sharma", history.History[0].Content)
	assert.Equal(t, models.RoleAssistant, history.History[11].Role)
	assert.Equal(t, "Booking cancelled successfully.", history.History[11].Content)
}

func TestConversation_ReturningUserIsRecognised(t *testing.T) {
	h := newHarness(t, scriptedCompleter{})

	first := h.say(t, "sess-a", "I'm Omar Haddad")
	assert.Contains(t, first.Reply, "Nice to meet you")

	again := h.say(t, "sess-b", "I'm Omar Haddad")
	assert.Equal(t, "Welcome back, Omar Haddad! How can I help you today?", again.Reply)
	assert.Len(t, h.backend.users, 1)
}

func TestConversation_SessionsAreIsolated(t *testing.T) {
	h := newHarness(t, scriptedCompleter{})

	h.say(t, "sess-one", "My name is Lena Weber")
	other := h.say(t, "sess-two", "Show my bookings")

	assert.Equal(t, "view_bookings", other.Intent)
	assert.Equal(t, "input_error", other.Status)
	assert.Contains(t, other.Reply, "user ID")
}

func TestConversation_FallbackAndLegacyEndpoint(t *testing.T) {
	h := newHarness(t, scriptedCompleter{
		"what is your refund policy?": `{"intent": "faq_query", "entities": {}}`,
	})

	body := bytes.NewBufferString(`{"user_input": "what is your refund policy?"}`)
	resp, err := http.Post(h.server.URL+"/chat", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var legacy map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&legacy))
	assert.Contains(t, legacy["response"], "72 hours")

	// No JSON in the model reply: the classifier falls back to faq_query.
	fallback := h.say(t, "default_user", "hmm, tell me something")
	assert.Equal(t, "faq_query", fallback.Intent)
	assert.Equal(t, "fallback", fallback.Source)

	hist, err := http.Get(h.server.URL + "/v1/sessions/default_user/history")
	require.NoError(t, err)
	defer hist.Body.Close()

	var history api.HistoryResponse
	require.NoError(t, json.NewDecoder(hist.Body).Decode(&history))
	assert.Len(t, history.History, 4)
}

func TestConversation_UnknownSessionHistory(t *testing.T) {
	h := newHarness(t, scriptedCompleter{})

	resp, err := http.Get(h.server.URL + "/v1/sessions/nobody/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConversation_AnonymousLegacyCallersDoNotShareIdentity(t *testing.T) {
	h := newHarness(t, scriptedCompleter{})

	first := h.sayLegacy(t, "Hi, my name is Priya Sharma")
	assert.Contains(t, first, "Nice to meet you, Priya")
	require.Len(t, h.backend.users, 1)

	second := h.sayLegacy(t, "show my bookings")
	assert.Contains(t, second, "Missing required information to look up your bookings: user ID")

	third := h.sayLegacy(t, "cancel my booking")
	assert.Contains(t, third, "booking ID")
}
