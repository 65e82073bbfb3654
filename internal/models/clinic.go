// internal/models/clinic.go
package models

// Clinic is a treatment provider.
type Clinic struct {
	ClinicID        string `json:"clinic_id" db:"clinic_id"`
	ClinicName      string `json:"clinic_name" db:"clinic_name"`
	LocationCity    string `json:"location_city" db:"location_city"`
	LocationCountry string `json:"location_country" db:"location_country"`
}

// Service is a priced procedure offered by a clinic.
type Service struct {
	ServiceID   string  `json:"service_id" db:"service_id"`
	ServiceName string  `json:"service_name" db:"service_name"`
	PriceStart  float64 `json:"pricestart" db:"pricestart"`
	PriceEnd    float64 `json:"priceend" db:"priceend"`
	Currency    string  `json:"currency" db:"currency"`
}

// ClinicSearchResult pairs a clinic with one of its matching services.
type ClinicSearchResult struct {
	Clinic  Clinic  `json:"clinic"`
	Service Service `json:"service"`
}

// ClinicSearchFilter holds the optional search filters. Zero values mean
// "no filter".
type ClinicSearchFilter struct {
	LocationCity  string   `json:"location_city,omitempty"`
	ProcedureName string   `json:"procedure_name,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f ClinicSearchFilter) IsEmpty() bool {
	return f.LocationCity == "" && f.ProcedureName == "" && f.MaxPrice == nil
}
