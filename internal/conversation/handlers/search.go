// internal/conversation/handlers/search.go
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"careescapes-workers/internal/models"
)

const MsgNoClinicsFound = "No clinics found matching your criteria. Try a different city, procedure or budget."

func (h *Handlers) searchClinics(ctx context.Context, in Input) Result {
	filter := models.ClinicSearchFilter{
		LocationCity:  in.Entities.Get(models.EntityLocationCity),
		ProcedureName: in.Entities.Get(models.EntityProcedureName),
	}

	rawPrice := in.Entities.Get(models.EntityMaxPrice)
	if rawPrice == "" {
		rawPrice = in.Entities.Get(models.EntityBudget)
	}
	if rawPrice != "" {
		if price, ok := parsePrice(rawPrice); ok {
			filter.MaxPrice = &price
		} else {
			h.logger.Warn("ignoring unparseable price filter", map[string]interface{}{"value": rawPrice})
		}
	}

	results, err := h.deps.Clinics.SearchClinics(ctx, filter)
	if err != nil {
		return h.collaboratorFailure("Failed to search clinics", err, nil)
	}

	if len(results) == 0 {
		return Result{Text: MsgNoClinicsFound, Status: StatusOK}
	}

	var b strings.Builder
	b.WriteString("Here are the clinics I found:")
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s (%s, %s) - %s from %s",
			i+1, r.Clinic.ClinicName, r.Clinic.LocationCity, r.Clinic.LocationCountry,
			r.Service.ServiceName, formatPrice(r.Service.PriceStart, r.Service.Currency))
	}
	if summary := priceSummary(results); summary != "" {
		b.WriteString("\n")
		b.WriteString(summary)
	}
	return Result{Text: b.String(), Status: StatusOK}
}

// parsePrice accepts values such as "1000", "$1,000" or "1500 USD".
func parsePrice(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func formatPrice(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

// priceSummary reports the lowest and average starting price when every
// result shares one currency.
func priceSummary(results []models.ClinicSearchResult) string {
	if len(results) < 2 {
		return ""
	}
	currency := results[0].Service.Currency
	lowest := results[0].Service.PriceStart
	var total float64
	for _, r := range results {
		if r.Service.Currency != currency {
			return ""
		}
		if r.Service.PriceStart < lowest {
			lowest = r.Service.PriceStart
		}
		total += r.Service.PriceStart
	}
	avg := total / float64(len(results))
	return fmt.Sprintf("Lowest starting price: %s. Average starting price: %s.",
		formatPrice(lowest, currency), formatPrice(avg, currency))
}
