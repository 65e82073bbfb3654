// internal/models/booking.go
package models

import "time"

// BookingStatus mirrors the booking_status enum.
type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// AppointmentDuration is the fixed length of a booked slot.
const AppointmentDuration = time.Hour

// Booking is an appointment request.
type Booking struct {
	BookingID        string        `json:"booking_id" db:"booking_id"`
	UserID           string        `json:"user_id" db:"user_id"`
	ClinicID         string        `json:"clinic_id" db:"clinic_id"`
	ServiceID        string        `json:"service_id" db:"service_id"`
	DoctorID         string        `json:"doctor_id,omitempty" db:"doctor_id"`
	AppointmentStart time.Time     `json:"appointment_start" db:"appointment_start"`
	AppointmentEnd   time.Time     `json:"appointment_end" db:"appointment_end"`
	BookingStatus    BookingStatus `json:"booking_status" db:"booking_status"`
}

// BookingRequest carries the fields needed to create a booking.
type BookingRequest struct {
	UserID           string    `json:"user_id"`
	ClinicID         string    `json:"clinic_id"`
	ServiceID        string    `json:"service_id"`
	DoctorID         string    `json:"doctor_id,omitempty"`
	AppointmentStart time.Time `json:"appointment_startdate"`
}
