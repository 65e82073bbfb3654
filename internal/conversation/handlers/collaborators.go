// internal/conversation/handlers/collaborators.go
package handlers

import (
	"context"
	"time"

	"careescapes-workers/internal/models"
)

// ClinicSearcher finds clinics offering a service. Every filter is optional.
type ClinicSearcher interface {
	SearchClinics(ctx context.Context, filter models.ClinicSearchFilter) ([]models.ClinicSearchResult, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

type UserDirectory interface {
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)
	FindUserByName(ctx context.Context, firstName, lastName string) ([]models.User, error)
	UpdateUser(ctx context.Context, userID string, update models.UserUpdate) (*models.User, error)
}

// FAQAnswerer is the opaque retrieval-and-answer capability.
type FAQAnswerer interface {
	AnswerFAQ(ctx context.Context, question string) (string, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
