// internal/store/postgres/clinics.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"careescapes-workers/internal/models"
)

// SearchClinics joins clinics with their services and applies each filter
// that is set.
func (s *Store) SearchClinics(ctx context.Context, filter models.ClinicSearchFilter) ([]models.ClinicSearchResult, error) {
	var where []string
	var args []interface{}

	if filter.LocationCity != "" {
		args = append(args, "%"+filter.LocationCity+"%")
		where = append(where, fmt.Sprintf("c.location_city ILIKE $%d", len(args)))
	}
	if filter.ProcedureName != "" {
		args = append(args, "%"+filter.ProcedureName+"%")
		where = append(where, fmt.Sprintf("s.service_name ILIKE $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		where = append(where, fmt.Sprintf("s.pricestart <= $%d", len(args)))
	}

	query := `
		SELECT c.clinic_id, c.clinic_name, c.location_city, c.location_country,
		       s.service_id, s.service_name, s.pricestart, s.priceend, s.currency
		FROM clinics c
		JOIN services s ON s.clinic_id = c.clinic_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, s.searchLimit)
	query += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))

	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := s.pg.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapQueryError("clinic_search", err)
	}
	defer rows.Close()

	var results []models.ClinicSearchResult
	for rows.Next() {
		var r models.ClinicSearchResult
		if err := rows.Scan(
			&r.Clinic.ClinicID, &r.Clinic.ClinicName, &r.Clinic.LocationCity, &r.Clinic.LocationCountry,
			&r.Service.ServiceID, &r.Service.ServiceName, &r.Service.PriceStart, &r.Service.PriceEnd, &r.Service.Currency,
		); err != nil {
			return nil, mapQueryError("clinic_search", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError("clinic_search", err)
	}
	return results, nil
}
