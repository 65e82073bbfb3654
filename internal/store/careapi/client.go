// internal/store/careapi/client.go
package careapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	httpclient "careescapes-workers/internal/common/http"
	"careescapes-workers/internal/models"
)

// Client talks to the CareEscapes REST API. It satisfies the same
// collaborator interfaces as the PostgreSQL store.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewClient(timeout),
	}
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// mapError turns transport and status failures into collaborator errors that
// carry the API's own detail text.
func mapError(resource string, err error) error {
	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound {
			return errors.NewResourceNotFoundError(resource, "")
		}
		return errors.NewCollaboratorError(statusErr.Detail())
	}
	return errors.NewCollaboratorError(err.Error())
}

// Ping checks that the API answers at all. Any HTTP status counts as up.
func (c *Client) Ping(ctx context.Context) error {
	err := c.http.DoJSON(ctx, http.MethodGet, c.baseURL+"/", nil, nil)
	var statusErr *httpclient.StatusError
	if err != nil && !stderrors.As(err, &statusErr) {
		return fmt.Errorf("care api unreachable: %w", err)
	}
	return nil
}

func (c *Client) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	var out models.User
	if err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/users/", user, &out); err != nil {
		return nil, mapError("User", err)
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var out models.User
	if err := c.http.DoJSON(ctx, http.MethodGet, c.url("users", userID), nil, &out); err != nil {
		return nil, mapError("User", err)
	}
	return &out, nil
}

func (c *Client) FindUserByName(ctx context.Context, firstName, lastName string) ([]models.User, error) {
	var out []models.User
	if err := c.http.DoJSON(ctx, http.MethodGet, c.url("users", "by-name", firstName, lastName), nil, &out); err != nil {
		return nil, mapError("User", err)
	}
	return out, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, update models.UserUpdate) (*models.User, error) {
	var out models.User
	if err := c.http.DoJSON(ctx, http.MethodPut, c.url("users", userID), update, &out); err != nil {
		return nil, mapError("User", err)
	}
	return &out, nil
}

func (c *Client) SearchClinics(ctx context.Context, filter models.ClinicSearchFilter) ([]models.ClinicSearchResult, error) {
	q := url.Values{}
	if filter.LocationCity != "" {
		q.Set("location_city", filter.LocationCity)
	}
	if filter.ProcedureName != "" {
		q.Set("procedure_name", filter.ProcedureName)
	}
	if filter.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64))
	}
	endpoint := c.baseURL + "/clinics/search"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var out []models.ClinicSearchResult
	if err := c.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, mapError("Clinic", err)
	}
	return out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var out models.Booking
	if err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/bookings/", req, &out); err != nil {
		return nil, mapError("Booking", err)
	}
	return &out, nil
}

func (c *Client) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	var out []models.Booking
	if err := c.http.DoJSON(ctx, http.MethodGet, c.url("bookings", userID), nil, &out); err != nil {
		return nil, mapError("Booking", err)
	}
	return out, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID string) error {
	if err := c.http.DoJSON(ctx, http.MethodDelete, c.url("bookings", bookingID), nil, nil); err != nil {
		return mapError("Booking", err)
	}
	return nil
}
