// internal/conversation/handlers/handlers_test.go
package handlers

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

var fixedNow = time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)

type fixture struct {
	clinics  *fakeClinics
	bookings *fakeBookings
	users    *fakeUsers
	faq      *fakeFAQ
	h        *Handlers
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		clinics:  &fakeClinics{},
		bookings: &fakeBookings{},
		users:    &fakeUsers{},
		faq:      &fakeFAQ{},
	}
	f.h = New(Dependencies{
		Clinics:  f.clinics,
		Bookings: f.bookings,
		Users:    f.users,
		FAQ:      f.faq,
	}, Options{
		PlaceholderEmailDomain: "careescapes.test",
		Clock:                  fakeClock{now: fixedNow},
	}, logger.NewTestLogger(t))
	return f
}

func (f *fixture) handle(intent models.Intent, utterance string, bag models.EntityBag) Result {
	return f.h.Handle(context.Background(), intent, Input{Utterance: utterance, Entities: bag})
}

// ==========================
// Dispatch Table
// ==========================

func TestTable_CoversEveryIntent(t *testing.T) {
	table := newFixture(t).h.Table()
	for _, intent := range models.AllIntents {
		assert.NotNil(t, table[intent], "no handler for %s", intent)
	}
	assert.Len(t, table, len(models.AllIntents))
}

func TestHandle_PanicBecomesApology(t *testing.T) {
	h := New(Dependencies{Clinics: panickingClinics{}}, Options{}, logger.NewNoOpLogger())

	res := h.Handle(context.Background(), models.IntentSearchClinics, Input{})

	assert.Equal(t, MsgInternalError, res.Text)
	assert.Equal(t, StatusInternalError, res.Status)
}

func TestHandle_NilDependencyPanicIsContained(t *testing.T) {
	h := New(Dependencies{}, Options{}, logger.NewNoOpLogger())

	res := h.Handle(context.Background(), models.IntentCancelBooking, Input{
		Entities: models.EntityBag{models.EntityBookingID: "b1"},
	})

	assert.Equal(t, StatusInternalError, res.Status)
}

// ==========================
// search_clinics
// ==========================

func TestSearchClinics_EmptyBagSearchesWithoutFilters(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentSearchClinics, "clinics please", models.EntityBag{})

	require.Equal(t, 1, f.clinics.calls)
	assert.True(t, f.clinics.filters[0].IsEmpty())
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, MsgNoClinicsFound, res.Text)
}

func TestSearchClinics_FormatsNumberedListWithPriceSummary(t *testing.T) {
	f := newFixture(t)
	f.clinics.results = []models.ClinicSearchResult{
		{
			Clinic:  models.Clinic{ClinicName: "Smile Cancun", LocationCity: "Cancun", LocationCountry: "Mexico"},
			Service: models.Service{ServiceName: "Dental Implants", PriceStart: 800, Currency: "USD"},
		},
		{
			Clinic:  models.Clinic{ClinicName: "Riviera Dental", LocationCity: "Cancun", LocationCountry: "Mexico"},
			Service: models.Service{ServiceName: "Dental Implants", PriceStart: 1000, Currency: "USD"},
		},
	}

	res := f.handle(models.IntentSearchClinics, "", models.EntityBag{
		models.EntityLocationCity:  "Cancun",
		models.EntityProcedureName: "implants",
		models.EntityBudget:        "$1,200",
	})

	filter := f.clinics.filters[0]
	assert.Equal(t, "Cancun", filter.LocationCity)
	assert.Equal(t, "implants", filter.ProcedureName)
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 1200.0, *filter.MaxPrice)

	assert.Equal(t, "Here are the clinics I found:\n"+
		"1. Smile Cancun (Cancun, Mexico) - Dental Implants from 800.00 USD\n"+
		"2. Riviera Dental (Cancun, Mexico) - Dental Implants from 1000.00 USD\n"+
		"Lowest starting price: 800.00 USD. Average starting price: 900.00 USD.", res.Text)
}

func TestSearchClinics_MaxPriceWinsOverBudget(t *testing.T) {
	f := newFixture(t)
	f.handle(models.IntentSearchClinics, "", models.EntityBag{
		models.EntityMaxPrice: "500",
		models.EntityBudget:   "900",
	})
	require.NotNil(t, f.clinics.filters[0].MaxPrice)
	assert.Equal(t, 500.0, *f.clinics.filters[0].MaxPrice)
}

func TestSearchClinics_UnparseablePriceIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.handle(models.IntentSearchClinics, "", models.EntityBag{models.EntityMaxPrice: "cheap"})
	assert.Nil(t, f.clinics.filters[0].MaxPrice)
}

func TestSearchClinics_CollaboratorError(t *testing.T) {
	f := newFixture(t)
	f.clinics.err = errors.NewCollaboratorError("search backend unavailable")

	res := f.handle(models.IntentSearchClinics, "", nil)

	assert.Equal(t, StatusCollaboratorError, res.Status)
	assert.Equal(t, "Failed to search clinics: search backend unavailable", res.Text)
}

func TestPriceSummary_MixedCurrencies(t *testing.T) {
	results := []models.ClinicSearchResult{
		{Service: models.Service{PriceStart: 100, Currency: "USD"}},
		{Service: models.Service{PriceStart: 90, Currency: "EUR"}},
	}
	assert.Empty(t, priceSummary(results))
}

// ==========================
// book_appointment
// ==========================

func TestBookAppointment_MissingClinicID(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentBookAppointment, "", models.EntityBag{
		models.EntityUserID:    "u1",
		models.EntityServiceID: "s1",
		models.EntityClinicID:  "  ",
	})

	assert.Equal(t, StatusInputError, res.Status)
	assert.Equal(t, "Missing required information to book an appointment: clinic ID.", res.Text)
	assert.Equal(t, 0, f.bookings.createCalls)
}

func TestBookAppointment_AllMissing(t *testing.T) {
	f := newFixture(t)
	res := f.handle(models.IntentBookAppointment, "", models.EntityBag{})
	assert.Equal(t, "Missing required information to book an appointment: user ID, clinic ID, service ID.", res.Text)
	assert.Equal(t, 0, f.bookings.createCalls)
}

func TestBookAppointment_DefaultsToTomorrowAtTen(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentBookAppointment, "", models.EntityBag{
		models.EntityUserID:    "u1",
		models.EntityClinicID:  "c1",
		models.EntityServiceID: "s1",
		models.EntityDoctorID:  "d1",
	})

	require.Equal(t, 1, f.bookings.createCalls)
	want := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(f.bookings.lastRequest.AppointmentStart), f.bookings.lastRequest.AppointmentStart)
	assert.Equal(t, "d1", f.bookings.lastRequest.DoctorID)

	assert.Equal(t, StatusOK, res.Status)
	assert.Contains(t, res.Text, "Booking ID: bk-123")
	assert.Contains(t, res.Text, "Saturday, March 15, 2025 at 10:00")
	assert.Equal(t, "bk-123", res.Learned.Get(models.EntityBookingID))
}

func TestBookAppointment_DefaultRollsOverMonthEnd(t *testing.T) {
	f := newFixture(t)
	f.h.opts.Clock = fakeClock{now: time.Date(2025, time.January, 31, 23, 59, 0, 0, time.UTC)}

	f.handle(models.IntentBookAppointment, "", models.EntityBag{
		models.EntityUserID: "u1", models.EntityClinicID: "c1", models.EntityServiceID: "s1",
	})

	want := time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(f.bookings.lastRequest.AppointmentStart))
}

func TestBookAppointment_ConfiguredHour(t *testing.T) {
	tests := []struct {
		name string
		hour int
		want time.Time
	}{
		{name: "midnight", hour: 0, want: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{name: "morning", hour: 8, want: time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := &fakeBookings{}
			hour := tt.hour
			h := New(Dependencies{Bookings: bookings}, Options{
				DefaultAppointmentHour: &hour,
				Clock:                  fakeClock{now: fixedNow},
			}, logger.NewNoOpLogger())

			res := h.Handle(context.Background(), models.IntentBookAppointment, Input{Entities: models.EntityBag{
				models.EntityUserID: "u1", models.EntityClinicID: "c1", models.EntityServiceID: "s1",
			}})

			require.Equal(t, StatusOK, res.Status)
			assert.True(t, tt.want.Equal(bookings.lastRequest.AppointmentStart), bookings.lastRequest.AppointmentStart)
		})
	}
}

func TestBookAppointment_ParsesAppointmentDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2025-04-02 14:30", time.Date(2025, 4, 2, 14, 30, 0, 0, time.UTC)},
		{"2025-04-02T09:15", time.Date(2025, 4, 2, 9, 15, 0, 0, time.UTC)},
		{"2025-04-02", time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)},
		{"2025-04-02T09:15:00Z", time.Date(2025, 4, 2, 9, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := newFixture(t)
			f.handle(models.IntentBookAppointment, "", models.EntityBag{
				models.EntityUserID: "u1", models.EntityClinicID: "c1", models.EntityServiceID: "s1",
				models.EntityAppointmentDate: tt.raw,
			})
			assert.True(t, tt.want.Equal(f.bookings.lastRequest.AppointmentStart), f.bookings.lastRequest.AppointmentStart)
		})
	}
}

func TestBookAppointment_InvalidDateIsInputError(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentBookAppointment, "", models.EntityBag{
		models.EntityUserID: "u1", models.EntityClinicID: "c1", models.EntityServiceID: "s1",
		models.EntityAppointmentDate: "next tuesday-ish",
	})

	assert.Equal(t, StatusInputError, res.Status)
	assert.Contains(t, res.Text, `"next tuesday-ish"`)
	assert.Equal(t, 0, f.bookings.createCalls)
}

func TestBookAppointment_CollaboratorError(t *testing.T) {
	f := newFixture(t)
	f.bookings.createErr = errors.NewCollaboratorError("Service does not belong to clinic")

	res := f.handle(models.IntentBookAppointment, "", models.EntityBag{
		models.EntityUserID: "u1", models.EntityClinicID: "c1", models.EntityServiceID: "s1",
	})

	assert.Equal(t, StatusCollaboratorError, res.Status)
	assert.Equal(t, "Failed to create booking: Service does not belong to clinic", res.Text)
}

// ==========================
// view_bookings / cancel_booking
// ==========================

func TestViewBookings(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentViewBookings, "", models.EntityBag{})
	assert.Equal(t, "Missing required information to look up your bookings: user ID.", res.Text)

	res = f.handle(models.IntentViewBookings, "", models.EntityBag{models.EntityUserID: "u1"})
	assert.Equal(t, "You don't have any bookings yet.", res.Text)

	f.bookings.bookings = []models.Booking{{
		BookingID:        "b1",
		ClinicID:         "c1",
		ServiceID:        "s1",
		AppointmentStart: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		BookingStatus:    models.BookingStatusRequested,
	}}
	res = f.handle(models.IntentViewBookings, "", models.EntityBag{models.EntityUserID: "u1"})
	assert.Equal(t, "Here are your bookings:\n1. Booking b1 on Thursday, May 1, 2025 at 10:00 (clinic c1, service s1). Status: requested", res.Text)

	f.bookings.listErr = stderrors.New("connection reset")
	res = f.handle(models.IntentViewBookings, "", models.EntityBag{models.EntityUserID: "u1"})
	assert.Equal(t, "Failed to retrieve bookings: connection reset", res.Text)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentCancelBooking, "cancel booking", models.EntityBag{})
	assert.Equal(t, "Missing required information to cancel a booking: booking ID.", res.Text)
	assert.Equal(t, 0, f.bookings.cancelCalls)

	res = f.handle(models.IntentCancelBooking, "", models.EntityBag{models.EntityBookingID: "b1"})
	assert.Equal(t, "Booking cancelled successfully.", res.Text)
	assert.Equal(t, StatusOK, res.Status)

	f.bookings.cancelErr = errors.NewResourceNotFoundError("Booking", "")
	res = f.handle(models.IntentCancelBooking, "", models.EntityBag{models.EntityBookingID: "missing"})
	assert.Equal(t, "Failed to cancel booking: Booking not found", res.Text)
}

// ==========================
// provide_name
// ==========================

func TestProvideName_WelcomeBackIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.users.existing = []models.User{{UserID: "u-42", FirstName: "John", LastName: "Smith", EmailID: "john@example.com"}}

	bag := models.EntityBag{
		models.EntityFirstName: "John",
		models.EntityLastName:  "Smith",
		models.EntityEmail:     "john@example.com",
	}

	first := f.handle(models.IntentProvideName, "", bag.Clone())
	assert.Contains(t, first.Text, "Welcome back, John Smith")
	assert.Equal(t, 0, f.users.createCalls)

	second := f.handle(models.IntentProvideName, "", bag.Clone())
	assert.Contains(t, second.Text, "Welcome back, John Smith")
	assert.Equal(t, 0, f.users.createCalls)
	assert.Equal(t, "u-42", second.Learned.Get(models.EntityUserID))
}

func TestProvideName_CreatesWithPlaceholderEmail(t *testing.T) {
	f := newFixture(t)
	f.users.existing = []models.User{{UserID: "other", FirstName: "Maria", LastName: "Lopez-Garcia"}}

	res := f.handle(models.IntentProvideName, "", models.EntityBag{
		models.EntityFirstName: "Maria",
		models.EntityLastName:  "Lopez",
	})

	require.Equal(t, 1, f.users.createCalls)
	assert.Equal(t, "maria.lopez@careescapes.test", f.users.created[0].EmailID)
	assert.Equal(t, "Nice to meet you, Maria! Your profile has been created.", res.Text)
	assert.Equal(t, "u-new", res.Learned.Get(models.EntityUserID))
}

func TestProvideName_FirstNameOnlySkipsLookup(t *testing.T) {
	f := newFixture(t)
	f.users.existing = []models.User{{UserID: "u-1", FirstName: "Sam"}}

	f.handle(models.IntentProvideName, "", models.EntityBag{models.EntityFirstName: "Sam"})

	require.Equal(t, 1, f.users.createCalls)
	assert.Equal(t, "sam@careescapes.test", f.users.created[0].EmailID)
}

func TestProvideName_UpdatesWhenUserIDPresent(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentProvideName, "", models.EntityBag{
		models.EntityFirstName: "John",
		models.EntityUserID:    "u-7",
		models.EntityMobile:    "+15551234567",
	})

	assert.Equal(t, 1, f.users.updateCalls)
	assert.Equal(t, 0, f.users.createCalls)
	assert.Equal(t, "+15551234567", f.users.lastUpdate.Mobile)
	assert.Empty(t, f.users.lastUpdate.LastName)
	assert.Equal(t, "Thanks, John! Your profile has been updated.", res.Text)
}

func TestProvideName_InputErrors(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentProvideName, "", models.EntityBag{models.EntityLastName: "Smith"})
	assert.Equal(t, "Missing required information to save your details: first name.", res.Text)

	res = f.handle(models.IntentProvideName, "", models.EntityBag{
		models.EntityFirstName: "John",
		models.EntityEmail:     "not-an-email",
	})
	assert.Equal(t, StatusInputError, res.Status)
	assert.Equal(t, 0, f.users.createCalls)
}

func TestProvideName_LookupFailureStillCreates(t *testing.T) {
	f := newFixture(t)
	f.users.findErr = stderrors.New("timeout")

	res := f.handle(models.IntentProvideName, "", models.EntityBag{
		models.EntityFirstName: "Ana", models.EntityLastName: "Costa",
	})

	assert.Equal(t, 1, f.users.createCalls)
	assert.Equal(t, StatusOK, res.Status)
}

func TestProvideName_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.users.createErr = errors.NewDuplicateRecordError("User with this email already exists")

	res := f.handle(models.IntentProvideName, "", models.EntityBag{
		models.EntityFirstName: "Ana", models.EntityLastName: "Costa", models.EntityEmail: "ana@example.com",
	})

	assert.Equal(t, "Failed to create user: User with this email already exists", res.Text)
}

// ==========================
// navigation_command / faq_query / unknown
// ==========================

func TestNavigate(t *testing.T) {
	f := newFixture(t)

	res := f.handle(models.IntentNavigationCommand, "", models.EntityBag{models.EntityPageToNavigate: "bookings"})
	assert.Equal(t, "Redirecting you to the bookings page.", res.Text)

	res = f.handle(models.IntentNavigationCommand, "", models.EntityBag{})
	assert.Equal(t, "Missing required information to navigate: page.", res.Text)
}

func TestAnswerFAQ(t *testing.T) {
	f := newFixture(t)
	f.faq.answer = "  Implants usually take two visits.  "

	res := f.handle(models.IntentFAQQuery, "How long do implants take?", nil)
	assert.Equal(t, "Implants usually take two visits.", res.Text)
	assert.Equal(t, []string{"How long do implants take?"}, f.faq.questions)

	res = f.handle(models.IntentUnknown, "???", nil)
	assert.Equal(t, "Implants usually take two visits.", res.Text)
	assert.Len(t, f.faq.questions, 2)

	f.faq.answer = ""
	res = f.handle(models.IntentFAQQuery, "anything", nil)
	assert.Equal(t, MsgNoFAQAnswer, res.Text)

	f.faq.err = errors.NewGenAITimeoutError()
	res = f.handle(models.IntentFAQQuery, "anything", nil)
	assert.Equal(t, StatusCollaboratorError, res.Status)
	assert.Equal(t, "Failed to answer your question: Text completion timeout", res.Text)
}

func TestParsePrice(t *testing.T) {
	tests := map[string]float64{"1000": 1000, "$1,000": 1000, "1500 USD": 1500, "99.5": 99.5}
	for raw, want := range tests {
		got, ok := parsePrice(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := parsePrice("cheap")
	assert.False(t, ok)
}
