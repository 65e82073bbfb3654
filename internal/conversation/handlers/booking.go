// internal/conversation/handlers/booking.go
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/models"
)

const appointmentLayout = "Monday, January 2, 2006 at 15:04"

// Accepted appointment_date layouts, tried in order. Date-only values get the
// default appointment hour.
var appointmentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (h *Handlers) bookAppointment(ctx context.Context, in Input) Result {
	if r := missing(in.Entities, "book an appointment",
		models.EntityUserID, models.EntityClinicID, models.EntityServiceID); r != nil {
		return *r
	}

	start, err := h.appointmentStart(in.Entities.Get(models.EntityAppointmentDate))
	if err != nil {
		return Result{
			Text: fmt.Sprintf("I couldn't understand the appointment date %q. Please use a format like 2025-03-14 10:00.",
				in.Entities.Get(models.EntityAppointmentDate)),
			Status: StatusInputError,
		}
	}

	booking, err := h.deps.Bookings.CreateBooking(ctx, models.BookingRequest{
		UserID:           in.Entities.Get(models.EntityUserID),
		ClinicID:         in.Entities.Get(models.EntityClinicID),
		ServiceID:        in.Entities.Get(models.EntityServiceID),
		DoctorID:         in.Entities.Get(models.EntityDoctorID),
		AppointmentStart: start,
	})
	if err != nil {
		return h.collaboratorFailure("Failed to create booking", err, map[string]interface{}{
			"userId":   in.Entities.Get(models.EntityUserID),
			"clinicId": in.Entities.Get(models.EntityClinicID),
		})
	}

	h.logger.Info("booking created", map[string]interface{}{
		"bookingId": booking.BookingID,
		"userId":    booking.UserID,
	})

	return Result{
		Text: fmt.Sprintf("Your appointment has been requested. Booking ID: %s. Appointment: %s. Status: %s.",
			booking.BookingID, booking.AppointmentStart.Format(appointmentLayout), booking.BookingStatus),
		Status:  StatusOK,
		Learned: models.EntityBag{models.EntityBookingID: booking.BookingID},
	}
}

// appointmentStart parses raw, or defaults to tomorrow at the configured hour
// in the clock's location.
func (h *Handlers) appointmentStart(raw string) (time.Time, error) {
	now := h.opts.Clock.Now()
	loc := now.Location()

	if raw == "" {
		return time.Date(now.Year(), now.Month(), now.Day()+1, h.appointmentHour, 0, 0, 0, loc), nil
	}

	for _, layout := range appointmentDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if d, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), h.appointmentHour, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized appointment date %q", raw)
}

func (h *Handlers) viewBookings(ctx context.Context, in Input) Result {
	if r := missing(in.Entities, "look up your bookings", models.EntityUserID); r != nil {
		return *r
	}

	userID := in.Entities.Get(models.EntityUserID)
	bookings, err := h.deps.Bookings.GetUserBookings(ctx, userID)
	if err != nil {
		return h.collaboratorFailure("Failed to retrieve bookings", err, map[string]interface{}{"userId": userID})
	}

	if len(bookings) == 0 {
		return Result{Text: "You don't have any bookings yet.", Status: StatusOK}
	}

	var b strings.Builder
	b.WriteString("Here are your bookings:")
	for i, bk := range bookings {
		fmt.Fprintf(&b, "\n%d. Booking %s on %s (clinic %s, service %s). Status: %s",
			i+1, bk.BookingID, bk.AppointmentStart.Format(appointmentLayout), bk.ClinicID, bk.ServiceID, bk.BookingStatus)
	}
	return Result{Text: b.String(), Status: StatusOK}
}

func (h *Handlers) cancelBooking(ctx context.Context, in Input) Result {
	if r := missing(in.Entities, "cancel a booking", models.EntityBookingID); r != nil {
		return *r
	}

	bookingID := in.Entities.Get(models.EntityBookingID)
	if err := h.deps.Bookings.CancelBooking(ctx, bookingID); err != nil {
		return h.collaboratorFailure("Failed to cancel booking", err, map[string]interface{}{"bookingId": bookingID})
	}

	h.logger.Info("booking cancelled", map[string]interface{}{"bookingId": bookingID})
	return Result{Text: "Booking cancelled successfully.", Status: StatusOK}
}
