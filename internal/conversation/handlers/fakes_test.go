// internal/conversation/handlers/fakes_test.go
package handlers

import (
	"context"
	"sync"
	"time"

	"careescapes-workers/internal/models"
)

// ==========================
// Fake Collaborators
// ==========================

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeClinics struct {
	mu      sync.Mutex
	results []models.ClinicSearchResult
	err     error
	calls   int
	filters []models.ClinicSearchFilter
}

func (f *fakeClinics) SearchClinics(_ context.Context, filter models.ClinicSearchFilter) ([]models.ClinicSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filters = append(f.filters, filter)
	return f.results, f.err
}

type fakeBookings struct {
	mu          sync.Mutex
	createCalls int
	lastRequest models.BookingRequest
	createErr   error
	bookings    []models.Booking
	listErr     error
	cancelCalls int
	cancelErr   error
}

func (f *fakeBookings) CreateBooking(_ context.Context, req models.BookingRequest) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastRequest = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Booking{
		BookingID:        "bk-123",
		UserID:           req.UserID,
		ClinicID:         req.ClinicID,
		ServiceID:        req.ServiceID,
		AppointmentStart: req.AppointmentStart,
		AppointmentEnd:   req.AppointmentStart.Add(models.AppointmentDuration),
		BookingStatus:    models.BookingStatusRequested,
	}, nil
}

func (f *fakeBookings) GetUserBookings(_ context.Context, _ string) ([]models.Booking, error) {
	return f.bookings, f.listErr
}

func (f *fakeBookings) CancelBooking(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return f.cancelErr
}

type fakeUsers struct {
	mu          sync.Mutex
	existing    []models.User
	findErr     error
	createCalls int
	created     []models.NewUser
	createErr   error
	updateCalls int
	lastUpdate  models.UserUpdate
}

func (f *fakeUsers) CreateUser(_ context.Context, u models.NewUser) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.created = append(f.created, u)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.User{UserID: "u-new", FirstName: u.FirstName, LastName: u.LastName, EmailID: u.EmailID}, nil
}

func (f *fakeUsers) FindUserByName(_ context.Context, _, _ string) ([]models.User, error) {
	return f.existing, f.findErr
}

func (f *fakeUsers) UpdateUser(_ context.Context, userID string, u models.UserUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdate = u
	return &models.User{UserID: userID, FirstName: u.FirstName, LastName: u.LastName}, nil
}

type fakeFAQ struct {
	answer    string
	err       error
	questions []string
}

func (f *fakeFAQ) AnswerFAQ(_ context.Context, q string) (string, error) {
	f.questions = append(f.questions, q)
	return f.answer, f.err
}

type panickingClinics struct{}

func (panickingClinics) SearchClinics(context.Context, models.ClinicSearchFilter) ([]models.ClinicSearchResult, error) {
	panic("nil map write")
}
