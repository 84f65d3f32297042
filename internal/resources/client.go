// Package resources holds the per-entity API client modules. Each module
// is a pure routing layer: build a URL and body from the caller's
// arguments, hand the call to the executor, and pass the normalized
// Result back unchanged. No business validation lives here, and no
// executor error escapes as a Go error — callers branch on the Result.
package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/hims/admin/internal/envelope"
	"github.com/hims/admin/internal/transport"
	"github.com/hims/admin/pkg/liststate"
)

// ListQuery carries list-endpoint parameters. Zero values are omitted
// from the query string.
type ListQuery struct {
	Page       int
	Limit      int
	Search     string
	Status     string
	Speciality string
	Country    string
	Category   string
}

// Values renders the query as URL parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	for key, val := range map[string]string{
		"search":     q.Search,
		"status":     q.Status,
		"speciality": q.Speciality,
		"country":    q.Country,
		"category":   q.Category,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// Client is the root handle over all resource modules.
type Client struct {
	exec    *transport.Executor
	baseURL string
	log     zerolog.Logger

	Auth                  *AuthService
	Appointments          *AppointmentsService
	Patients              *PatientsService
	InternationalPatients *InternationalPatientsService
	Doctors               *DoctorsService
	Departments           *DepartmentsService
	HealthCheckups        *HealthCheckupsService
	News                  *NewsService
	Blogs                 *BlogsService
}

// NewClient wires every resource module over one executor and base URL.
func NewClient(exec *transport.Executor, baseURL string, log zerolog.Logger) *Client {
	c := &Client{exec: exec, baseURL: baseURL, log: log}
	c.Auth = &AuthService{c: c}
	c.Appointments = &AppointmentsService{service: service[Appointment]{c: c, path: "/api/appointments"}}
	c.Patients = &PatientsService{service: service[Patient]{c: c, path: "/api/patients"}}
	c.InternationalPatients = &InternationalPatientsService{service: service[InternationalPatient]{
		c: c, path: "/api/international-patients", entityKey: "international_patients",
	}}
	c.Doctors = &DoctorsService{service: service[Doctor]{c: c, path: "/api/doctors"}}
	c.Departments = &DepartmentsService{service: service[Department]{c: c, path: "/api/departments"}}
	c.HealthCheckups = &HealthCheckupsService{service: service[HealthCheckup]{c: c, path: "/api/health-checkups"}}
	c.News = &NewsService{service: service[NewsItem]{c: c, path: "/api/news"}}
	c.Blogs = &BlogsService{service: service[BlogPost]{c: c, path: "/api/blogs"}}
	return c
}

// do executes one call and normalizes the outcome. This is the funnel the
// whole package goes through: nothing below it throws.
func (c *Client) do(ctx context.Context, method, path string, body any, params url.Values) transport.Result {
	resp, err := c.exec.Do(ctx, transport.Request{
		Method: method,
		URL:    c.baseURL + path,
		Body:   body,
		Params: params,
	})
	return transport.Normalize(resp, err)
}

// upload executes one multipart call.
func (c *Client) upload(ctx context.Context, path string, mp *transport.MultipartPayload) transport.Result {
	resp, err := c.exec.Do(ctx, transport.Request{
		Method:    http.MethodPost,
		URL:       c.baseURL + path,
		Multipart: mp,
	})
	return transport.Normalize(resp, err)
}

// ---------------------------------------------------------------------------
// Generic resource module
// ---------------------------------------------------------------------------

// service implements the list/get/add/update/delete contract shared by
// every resource. entityKey names the resource-specific envelope nesting
// key, empty for resources that never use the keyed shape.
type service[T any] struct {
	c         *Client
	path      string
	entityKey string
}

// List fetches one page and flattens whatever envelope came back.
func (s *service[T]) List(ctx context.Context, q ListQuery) ([]T, envelope.Pagination, transport.Result) {
	res := s.c.do(ctx, http.MethodGet, s.path, nil, q.Values())
	if !res.OK() {
		return nil, envelope.Pagination{}, res
	}
	page := envelope.DecodeList(res.Payload(), s.entityKey)
	return envelope.Unmarshal[T](page), page.Pagination, res
}

// Get fetches one record by identifier.
func (s *service[T]) Get(ctx context.Context, id string) (*T, transport.Result) {
	res := s.c.do(ctx, http.MethodGet, s.path+"/"+url.PathEscape(id), nil, nil)
	if !res.OK() {
		return nil, res
	}
	var wrapped struct {
		Data *T `json:"data"`
	}
	if err := res.Decode(&wrapped); err != nil || wrapped.Data == nil {
		// Some endpoints return the record unwrapped.
		var bare T
		if err := res.Decode(&bare); err != nil {
			return nil, transport.Fail(&transport.APIError{
				Kind:    transport.KindShapeMismatch,
				Message: fmt.Sprintf("unrecognized response for %s/%s", s.path, id),
			})
		}
		return &bare, res
	}
	return wrapped.Data, res
}

// Create posts a new record.
func (s *service[T]) Create(ctx context.Context, payload any) transport.Result {
	return s.c.do(ctx, http.MethodPost, s.path, payload, nil)
}

// Update replaces fields of an existing record.
func (s *service[T]) Update(ctx context.Context, id string, payload any) transport.Result {
	return s.c.do(ctx, http.MethodPut, s.path+"/"+url.PathEscape(id), payload, nil)
}

// Delete removes a record.
func (s *service[T]) Delete(ctx context.Context, id string) transport.Result {
	return s.c.do(ctx, http.MethodDelete, s.path+"/"+url.PathEscape(id), nil, nil)
}

// Fetcher adapts the module to the list controller's fetch contract.
func (s *service[T]) Fetcher() liststate.FetchFunc[T] {
	return func(ctx context.Context, page, limit int, f liststate.Filters) (liststate.Page[T], error) {
		items, pg, res := s.List(ctx, ListQuery{
			Page:       page,
			Limit:      limit,
			Search:     f.Search,
			Status:     f.Status,
			Speciality: f.Speciality,
			Country:    f.Country,
			Category:   f.Category,
		})
		if !res.OK() {
			return liststate.Page[T]{}, res.Err()
		}
		return liststate.Page[T]{
			Items:        items,
			TotalKnown:   pg.Known(),
			TotalPages:   pg.TotalPages,
			TotalRecords: pg.TotalRecords,
		}, nil
	}
}
