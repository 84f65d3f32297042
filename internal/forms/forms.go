// Package forms implements the add/edit modal controllers. A form holds a
// draft seeded from an existing record (edit) or empty defaults (create),
// validates required fields, shapes a payload that omits blank optionals
// (so a partial update never blanks server-side fields), and submits
// through the matching resource module. A truthy result closes the form
// and fires the caller's refresh callback; a failure keeps it open.
package forms

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/hims/admin/internal/transport"
)

// Mode distinguishes create from edit semantics; edit additionally
// requires a status value.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// ErrSubmitInProgress is returned when a submit starts while another is
// still running; the duplicate is rejected, not queued.
var ErrSubmitInProgress = errors.New("forms: submit already in progress")

// ResourceWriter is the slice of a resource module a form needs.
type ResourceWriter interface {
	Create(ctx context.Context, payload any) transport.Result
	Update(ctx context.Context, id string, payload any) transport.Result
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError wraps field-level validation failures so callers can
// distinguish them from API failures.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid required fields: " + strings.Join(e.Fields, ", ")
}

func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &ValidationError{Fields: fields}
	}
	return err
}

// submitLatch serializes submits per form instance.
type submitLatch struct {
	busy atomic.Bool
}

func (l *submitLatch) begin() bool { return l.busy.CompareAndSwap(false, true) }
func (l *submitLatch) end()        { l.busy.Store(false) }

// submit runs the shared submit flow for a validated payload.
func submit(ctx context.Context, latch *submitLatch, open *bool, mode Mode, id string, w ResourceWriter, payload any, refresh func()) error {
	if !latch.begin() {
		return ErrSubmitInProgress
	}
	defer latch.end()

	var res transport.Result
	if mode == ModeEdit {
		res = w.Update(ctx, id, payload)
	} else {
		res = w.Create(ctx, payload)
	}
	if !res.OK() {
		// The form stays open; the caller surfaces the classified error.
		return res.Err()
	}
	*open = false
	if refresh != nil {
		refresh()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Appointment form
// ---------------------------------------------------------------------------

// AppointmentForm drives the appointment add/edit modal.
type AppointmentForm struct {
	Mode            Mode
	ID              string
	PatientFullName string
	ContactNumber   string
	AppointmentDate string
	Speciality      string
	Message         string
	Status          string

	open  bool
	latch submitLatch
}

// NewAppointmentForm seeds a form. seed is nil for create.
func NewAppointmentForm(mode Mode, seed *AppointmentSeed) *AppointmentForm {
	f := &AppointmentForm{Mode: mode, open: true}
	if seed != nil {
		f.ID = seed.ID
		f.PatientFullName = seed.PatientFullName
		f.ContactNumber = seed.ContactNumber
		f.AppointmentDate = seed.AppointmentDate
		f.Speciality = seed.Speciality
		f.Message = seed.Message
		f.Status = seed.Status
	}
	return f
}

// AppointmentSeed carries the existing record's fields into an edit form.
type AppointmentSeed struct {
	ID              string
	PatientFullName string
	ContactNumber   string
	AppointmentDate string
	Speciality      string
	Message         string
	Status          string
}

// Open reports whether the modal is still showing.
func (f *AppointmentForm) Open() bool { return f.open }

type appointmentDraft struct {
	Mode            string `validate:"required,oneof=create edit"`
	PatientFullName string `validate:"required"`
	ContactNumber   string `validate:"required"`
	AppointmentDate string `validate:"required"`
	Status          string `validate:"required_if=Mode edit"`
}

// AppointmentPayload is the wire shape; blank optionals are omitted.
type AppointmentPayload struct {
	PatientFullName string `json:"patient_full_name"`
	ContactNumber   string `json:"contact_number"`
	AppointmentDate string `json:"appointment_date"`
	Speciality      string `json:"speciality,omitempty"`
	Message         string `json:"message,omitempty"`
	Status          string `json:"status,omitempty"`
}

func (f *AppointmentForm) trim() {
	f.PatientFullName = strings.TrimSpace(f.PatientFullName)
	f.ContactNumber = strings.TrimSpace(f.ContactNumber)
	f.AppointmentDate = strings.TrimSpace(f.AppointmentDate)
	f.Speciality = strings.TrimSpace(f.Speciality)
	f.Message = strings.TrimSpace(f.Message)
	f.Status = strings.TrimSpace(f.Status)
}

// Validate trims the draft and checks required fields.
func (f *AppointmentForm) Validate() error {
	f.trim()
	return checkStruct(appointmentDraft{
		Mode:            string(f.Mode),
		PatientFullName: f.PatientFullName,
		ContactNumber:   f.ContactNumber,
		AppointmentDate: f.AppointmentDate,
		Status:          f.Status,
	})
}

// Payload shapes the submit body.
func (f *AppointmentForm) Payload() AppointmentPayload {
	return AppointmentPayload{
		PatientFullName: f.PatientFullName,
		ContactNumber:   f.ContactNumber,
		AppointmentDate: f.AppointmentDate,
		Speciality:      f.Speciality,
		Message:         f.Message,
		Status:          f.Status,
	}
}

// Submit validates and sends the draft. On success the form closes and
// refresh fires (creations refetch rather than insert optimistically, so
// server-assigned fields are picked up).
func (f *AppointmentForm) Submit(ctx context.Context, w ResourceWriter, refresh func()) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return submit(ctx, &f.latch, &f.open, f.Mode, f.ID, w, f.Payload(), refresh)
}

// ---------------------------------------------------------------------------
// International patient form
// ---------------------------------------------------------------------------

// InternationalPatientForm drives the international-patient modal.
type InternationalPatientForm struct {
	Mode            Mode
	ID              string
	PatientFullName string
	Age             string
	ContactNumber   string
	Gender          string
	Country         string
	Speciality      string
	PassportNumber  string
	AppointmentDate string
	Status          string

	open  bool
	latch submitLatch
}

func NewInternationalPatientForm(mode Mode) *InternationalPatientForm {
	return &InternationalPatientForm{Mode: mode, open: true}
}

func (f *InternationalPatientForm) Open() bool { return f.open }

type internationalPatientDraft struct {
	Mode            string `validate:"required,oneof=create edit"`
	PatientFullName string `validate:"required"`
	Age             string `validate:"required"`
	ContactNumber   string `validate:"required"`
	Gender          string `validate:"required"`
	Country         string `validate:"required"`
	Speciality      string `validate:"required"`
	PassportNumber  string `validate:"required"`
	AppointmentDate string `validate:"required"`
	Status          string `validate:"required_if=Mode edit"`
}

// InternationalPatientPayload is the wire shape.
type InternationalPatientPayload struct {
	PatientFullName string `json:"patient_full_name"`
	Age             string `json:"age"`
	ContactNumber   string `json:"contact_number"`
	Gender          string `json:"gender"`
	Country         string `json:"country"`
	Speciality      string `json:"speciality"`
	PassportNumber  string `json:"passport_number"`
	AppointmentDate string `json:"appointment_date"`
	Status          string `json:"status,omitempty"`
}

func (f *InternationalPatientForm) trim() {
	for _, p := range []*string{
		&f.PatientFullName, &f.Age, &f.ContactNumber, &f.Gender, &f.Country,
		&f.Speciality, &f.PassportNumber, &f.AppointmentDate, &f.Status,
	} {
		*p = strings.TrimSpace(*p)
	}
}

func (f *InternationalPatientForm) Validate() error {
	f.trim()
	return checkStruct(internationalPatientDraft{
		Mode:            string(f.Mode),
		PatientFullName: f.PatientFullName,
		Age:             f.Age,
		ContactNumber:   f.ContactNumber,
		Gender:          f.Gender,
		Country:         f.Country,
		Speciality:      f.Speciality,
		PassportNumber:  f.PassportNumber,
		AppointmentDate: f.AppointmentDate,
		Status:          f.Status,
	})
}

func (f *InternationalPatientForm) Payload() InternationalPatientPayload {
	return InternationalPatientPayload{
		PatientFullName: f.PatientFullName,
		Age:             f.Age,
		ContactNumber:   f.ContactNumber,
		Gender:          f.Gender,
		Country:         f.Country,
		Speciality:      f.Speciality,
		PassportNumber:  f.PassportNumber,
		AppointmentDate: f.AppointmentDate,
		Status:          f.Status,
	}
}

func (f *InternationalPatientForm) Submit(ctx context.Context, w ResourceWriter, refresh func()) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return submit(ctx, &f.latch, &f.open, f.Mode, f.ID, w, f.Payload(), refresh)
}

// ---------------------------------------------------------------------------
// Health checkup form
// ---------------------------------------------------------------------------

// HealthCheckupForm drives the health-checkup package modal.
type HealthCheckupForm struct {
	Mode          Mode
	ID            string
	CheckupTitle  string
	CheckupName   string
	OriginalPrice string
	DiscountPrice string
	Tests         []string

	open  bool
	latch submitLatch
}

func NewHealthCheckupForm(mode Mode) *HealthCheckupForm {
	return &HealthCheckupForm{Mode: mode, open: true}
}

func (f *HealthCheckupForm) Open() bool { return f.open }

type healthCheckupDraft struct {
	Mode          string   `validate:"required,oneof=create edit"`
	CheckupTitle  string   `validate:"required"`
	CheckupName   string   `validate:"required"`
	OriginalPrice string   `validate:"required"`
	DiscountPrice string   `validate:"required"`
	Tests         []string `validate:"required,min=1,dive,required"`
}

// HealthCheckupPayload is the wire shape.
type HealthCheckupPayload struct {
	CheckupTitle  string             `json:"checkup_title"`
	CheckupName   string             `json:"checkup_name"`
	OriginalPrice string             `json:"original_price"`
	DiscountPrice string             `json:"discount_price"`
	Tests         []checkupTestEntry `json:"tests"`
}

type checkupTestEntry struct {
	TestName string `json:"test_name"`
}

func (f *HealthCheckupForm) trim() {
	f.CheckupTitle = strings.TrimSpace(f.CheckupTitle)
	f.CheckupName = strings.TrimSpace(f.CheckupName)
	f.OriginalPrice = strings.TrimSpace(f.OriginalPrice)
	f.DiscountPrice = strings.TrimSpace(f.DiscountPrice)
	kept := f.Tests[:0]
	for _, t := range f.Tests {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	f.Tests = kept
}

func (f *HealthCheckupForm) Validate() error {
	f.trim()
	return checkStruct(healthCheckupDraft{
		Mode:          string(f.Mode),
		CheckupTitle:  f.CheckupTitle,
		CheckupName:   f.CheckupName,
		OriginalPrice: f.OriginalPrice,
		DiscountPrice: f.DiscountPrice,
		Tests:         f.Tests,
	})
}

func (f *HealthCheckupForm) Payload() HealthCheckupPayload {
	tests := make([]checkupTestEntry, 0, len(f.Tests))
	for _, t := range f.Tests {
		tests = append(tests, checkupTestEntry{TestName: t})
	}
	return HealthCheckupPayload{
		CheckupTitle:  f.CheckupTitle,
		CheckupName:   f.CheckupName,
		OriginalPrice: f.OriginalPrice,
		DiscountPrice: f.DiscountPrice,
		Tests:         tests,
	}
}

func (f *HealthCheckupForm) Submit(ctx context.Context, w ResourceWriter, refresh func()) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return submit(ctx, &f.latch, &f.open, f.Mode, f.ID, w, f.Payload(), refresh)
}
