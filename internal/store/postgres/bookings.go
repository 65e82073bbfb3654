// internal/store/postgres/bookings.go
package postgres

import (
	"context"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `booking_id, user_id, clinic_id, service_id, COALESCE(doctor_id::text, ''),
		       appointment_start, appointment_end, booking_status`

func scanBooking(row interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	var b models.Booking
	var status string
	if err := row.Scan(&b.BookingID, &b.UserID, &b.ClinicID, &b.ServiceID, &b.DoctorID,
		&b.AppointmentStart, &b.AppointmentEnd, &status); err != nil {
		return nil, err
	}
	b.BookingStatus = models.BookingStatus(status)
	return &b, nil
}

// CreateBooking stores a requested booking one appointment slot long.
func (s *Store) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	end := req.AppointmentStart.Add(models.AppointmentDuration)
	b, err := scanBooking(s.pg.DB.QueryRowContext(ctx, `
		INSERT INTO bookings (
			booking_id, user_id, clinic_id, service_id, doctor_id,
			appointment_start, appointment_end, booking_status
		) VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8)
		RETURNING `+bookingColumns,
		uuid.New().String(), req.UserID, req.ClinicID, req.ServiceID, req.DoctorID,
		req.AppointmentStart, end, string(models.BookingStatusRequested),
	))
	if err != nil {
		return nil, mapQueryError("booking_create", err)
	}
	return b, nil
}

func (s *Store) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := s.pg.DB.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY appointment_start`, userID)
	if err != nil {
		return nil, mapQueryError("booking_list", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapQueryError("booking_list", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError("booking_list", err)
	}
	return bookings, nil
}

// CancelBooking marks the booking cancelled. The row is kept.
func (s *Store) CancelBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	res, err := s.pg.DB.ExecContext(ctx, `
		UPDATE bookings SET booking_status = $1
		WHERE booking_id = $2`, string(models.BookingStatusCancelled), bookingID)
	if err != nil {
		return mapQueryError("booking_cancel", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapQueryError("booking_cancel", err)
	}
	if n == 0 {
		return errors.NewResourceNotFoundError("Booking", "")
	}
	return nil
}
