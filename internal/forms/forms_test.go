package forms

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hims/admin/internal/transport"
)

// fakeWriter records submitted payloads and returns a scripted result.
type fakeWriter struct {
	mu       sync.Mutex
	creates  []json.RawMessage
	updates  map[string]json.RawMessage
	fail     *transport.APIError
	block    chan struct{} // when set, Create/Update waits before returning
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{updates: make(map[string]json.RawMessage)}
}

func (w *fakeWriter) result(payload any) transport.Result {
	if w.block != nil {
		<-w.block
	}
	if w.fail != nil {
		return transport.Fail(w.fail)
	}
	return transport.Ok(json.RawMessage(`{"data":{"id":"new"}}`))
}

func (w *fakeWriter) Create(_ context.Context, payload any) transport.Result {
	data, _ := json.Marshal(payload)
	w.mu.Lock()
	w.creates = append(w.creates, data)
	w.mu.Unlock()
	return w.result(payload)
}

func (w *fakeWriter) Update(_ context.Context, id string, payload any) transport.Result {
	data, _ := json.Marshal(payload)
	w.mu.Lock()
	w.updates[id] = data
	w.mu.Unlock()
	return w.result(payload)
}

func TestAppointmentCreate_OmitsStatusKey(t *testing.T) {
	w := newFakeWriter()
	f := NewAppointmentForm(ModeCreate, nil)
	f.PatientFullName = "  Jane Doe  "
	f.ContactNumber = "9999999999"
	f.AppointmentDate = "01/01/2025"

	refreshed := false
	if err := f.Submit(context.Background(), w, func() { refreshed = true }); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(w.creates) != 1 {
		t.Fatalf("expected one create call, got %d", len(w.creates))
	}
	var sent map[string]any
	if err := json.Unmarshal(w.creates[0], &sent); err != nil {
		t.Fatal(err)
	}
	if _, present := sent["status"]; present {
		t.Error("create payload must not include a status key")
	}
	if sent["patient_full_name"] != "Jane Doe" {
		t.Errorf("expected trimmed name, got %v", sent["patient_full_name"])
	}
	if f.Open() {
		t.Error("form must close on success")
	}
	if !refreshed {
		t.Error("refresh callback must fire on success")
	}
}

func TestAppointmentEdit_RequiresAndSendsStatus(t *testing.T) {
	w := newFakeWriter()
	f := NewAppointmentForm(ModeEdit, &AppointmentSeed{
		ID:              "a1",
		PatientFullName: "Jane Doe",
		ContactNumber:   "9999999999",
		AppointmentDate: "01/01/2025",
	})

	// Edit without status fails validation before any API call.
	err := f.Submit(context.Background(), w, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(w.updates) != 0 {
		t.Error("invalid draft must not reach the API")
	}

	f.Status = "Confirmed"
	if err := f.Submit(context.Background(), w, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var sent map[string]any
	if err := json.Unmarshal(w.updates["a1"], &sent); err != nil {
		t.Fatal(err)
	}
	if sent["status"] != "Confirmed" {
		t.Errorf("expected status Confirmed in payload, got %v", sent["status"])
	}
}

func TestAppointmentCreate_MissingRequiredFields(t *testing.T) {
	f := NewAppointmentForm(ModeCreate, nil)
	f.PatientFullName = "Jane Doe"
	// contact_number and appointment_date missing

	err := f.Submit(context.Background(), newFakeWriter(), nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("expected 2 failing fields, got %v", verr.Fields)
	}
	if !f.Open() {
		t.Error("form must stay open on validation failure")
	}
}

func TestSubmit_APIFailureKeepsFormOpen(t *testing.T) {
	w := newFakeWriter()
	w.fail = &transport.APIError{Kind: transport.KindServerError, Status: 500, Message: "boom"}

	f := NewAppointmentForm(ModeCreate, nil)
	f.PatientFullName = "Jane Doe"
	f.ContactNumber = "9999999999"
	f.AppointmentDate = "01/01/2025"

	refreshed := false
	err := f.Submit(context.Background(), w, func() { refreshed = true })
	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != transport.KindServerError {
		t.Fatalf("expected classified API error, got %v", err)
	}
	if !f.Open() {
		t.Error("form must stay open on API failure")
	}
	if refreshed {
		t.Error("refresh must not fire on failure")
	}
}

func TestSubmit_ConcurrentSubmitRejected(t *testing.T) {
	w := newFakeWriter()
	w.block = make(chan struct{})

	f := NewAppointmentForm(ModeCreate, nil)
	f.PatientFullName = "Jane Doe"
	f.ContactNumber = "9999999999"
	f.AppointmentDate = "01/01/2025"

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.Submit(context.Background(), w, nil) }()

	// Wait until the first submit is inside the writer.
	for {
		w.mu.Lock()
		started := len(w.creates) == 1
		w.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := f.Submit(context.Background(), w, nil); !errors.Is(err, ErrSubmitInProgress) {
		t.Errorf("expected ErrSubmitInProgress, got %v", err)
	}

	close(w.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestInternationalPatientCreate_FullRequiredSet(t *testing.T) {
	f := NewInternationalPatientForm(ModeCreate)
	f.PatientFullName = "Amina Yusuf"
	f.Age = "34"
	f.ContactNumber = "111222333"
	f.Gender = "female"
	f.Country = "Kenya"
	f.Speciality = "cardiology"
	// passport_number and appointment_date missing

	err := f.Submit(context.Background(), newFakeWriter(), nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("expected 2 failing fields, got %v", verr.Fields)
	}

	f.PassportNumber = "K1234567"
	f.AppointmentDate = "02/02/2025"
	w := newFakeWriter()
	if err := f.Submit(context.Background(), w, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var sent map[string]any
	json.Unmarshal(w.creates[0], &sent)
	if _, present := sent["status"]; present {
		t.Error("create payload must omit status")
	}
	if sent["passport_number"] != "K1234567" {
		t.Errorf("passport not sent: %v", sent)
	}
}

func TestHealthCheckup_RequiresAtLeastOneTest(t *testing.T) {
	f := NewHealthCheckupForm(ModeCreate)
	f.CheckupTitle = "Full Body"
	f.CheckupName = "full-body-basic"
	f.OriginalPrice = "4999"
	f.DiscountPrice = "2999"
	f.Tests = []string{"   ", ""}

	err := f.Submit(context.Background(), newFakeWriter(), nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for empty tests, got %v", err)
	}

	f.Tests = []string{" CBC ", "Lipid Profile"}
	w := newFakeWriter()
	if err := f.Submit(context.Background(), w, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var sent HealthCheckupPayload
	json.Unmarshal(w.creates[0], &sent)
	if len(sent.Tests) != 2 || sent.Tests[0].TestName != "CBC" {
		t.Errorf("tests not shaped: %+v", sent.Tests)
	}
}
