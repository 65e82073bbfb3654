// internal/models/entities.go
package models

import (
	"sort"
	"strings"
)

// Well-known EntityBag keys.
const (
	EntityFirstName       = "first_name"
	EntityLastName        = "last_name"
	EntityEmail           = "email_id"
	EntityMobile          = "mobile"
	EntityUserID          = "user_id"
	EntityClinicID        = "clinic_id"
	EntityServiceID       = "service_id"
	EntityDoctorID        = "doctor_id"
	EntityBookingID       = "booking_id"
	EntityProcedureName   = "procedure_name"
	EntityLocationCity    = "location_city"
	EntityLocationCountry = "location_country"
	EntityMaxPrice        = "max_price"
	EntityBudget          = "budget"
	EntityAppointmentDate = "appointment_date"
	EntityPageToNavigate  = "page_to_navigate"
)

// KnownEntityKeys is the vocabulary accepted at the classifier boundary.
var KnownEntityKeys = map[string]bool{
	EntityFirstName:       true,
	EntityLastName:        true,
	EntityEmail:           true,
	EntityMobile:          true,
	EntityUserID:          true,
	EntityClinicID:        true,
	EntityServiceID:       true,
	EntityDoctorID:        true,
	EntityBookingID:       true,
	EntityProcedureName:   true,
	EntityLocationCity:    true,
	EntityLocationCountry: true,
	EntityMaxPrice:        true,
	EntityBudget:          true,
	EntityAppointmentDate: true,
	EntityPageToNavigate:  true,
}

// EntityBag maps entity names to values. A missing key and a blank value
// both mean "not provided".
type EntityBag map[string]string

// Get returns the trimmed value for key, or "" when unset.
func (b EntityBag) Get(key string) string {
	if b == nil {
		return ""
	}
	return strings.TrimSpace(b[key])
}

// Has reports whether key carries a non-blank value.
func (b EntityBag) Has(key string) bool {
	return b.Get(key) != ""
}

// Set stores value under key. Blank values remove the key.
func (b EntityBag) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(b, key)
		return
	}
	b[key] = value
}

// Missing returns the keys from required that are unset, in the given order.
func (b EntityBag) Missing(required ...string) []string {
	var missing []string
	for _, key := range required {
		if !b.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// FillMissing copies values from other for keys that are unset in b.
// Values already present in b are never overwritten.
func (b EntityBag) FillMissing(other EntityBag, keys ...string) {
	if len(keys) == 0 {
		for key := range other {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		if !b.Has(key) && other.Has(key) {
			b[key] = other.Get(key)
		}
	}
}

// Overlay copies the set values of the given keys from other into b,
// replacing whatever b held. Unset values in other leave b untouched.
func (b EntityBag) Overlay(other EntityBag, keys ...string) {
	for _, key := range keys {
		if other.Has(key) {
			b[key] = other.Get(key)
		}
	}
}

// Clone returns a copy of b without blank entries.
func (b EntityBag) Clone() EntityBag {
	out := make(EntityBag, len(b))
	for key, value := range b {
		out.Set(key, value)
	}
	return out
}

// IsEmpty reports whether no key carries a value.
func (b EntityBag) IsEmpty() bool {
	for key := range b {
		if b.Has(key) {
			return false
		}
	}
	return true
}

// Keys returns the populated keys in sorted order.
func (b EntityBag) Keys() []string {
	keys := make([]string, 0, len(b))
	for key := range b {
		if b.Has(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
