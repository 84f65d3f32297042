package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hims/admin/internal/session"
)

func testExecutor(t *testing.T, cred *session.Credential) (*Executor, *http.Request, *httptest.Server) {
	t.Helper()
	captured := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)
	exec := NewExecutor(srv.Client(), &session.Static{Cred: cred}, zerolog.Nop())
	return exec, captured, srv
}

func TestDo_InjectsBearerAndJSONContentType(t *testing.T) {
	cred := &session.Credential{AccessToken: "acc", ActiveSessionRefreshToken: "ref"}
	exec, captured, srv := testExecutor(t, cred)

	_, err := exec.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/api/appointments",
		Body:   map[string]string{"patient_full_name": "Jane Doe"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if got := captured.Header.Get("Authorization"); got != "Bearer acc||ref" {
		t.Errorf("expected joined bearer header, got %q", got)
	}
	if got := captured.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON content type, got %q", got)
	}
}

func TestDo_NoSessionNoAuthHeader(t *testing.T) {
	exec, captured, srv := testExecutor(t, nil)

	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/api/doctors"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := captured.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no auth header, got %q", got)
	}
}

func TestDo_MultipartStripsJSONContentType(t *testing.T) {
	cred := &session.Credential{AccessToken: "acc"}
	exec, captured, srv := testExecutor(t, cred)

	callerHeaders := map[string]string{"Content-Type": "application/json"}
	_, err := exec.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL + "/api/patients/p1/lab-reports",
		Headers: callerHeaders,
		Multipart: &MultipartPayload{
			FieldName: "file",
			FileName:  "cbc.pdf",
			Content:   []byte("%PDF-1.4 fake"),
			Fields:    map[string]string{"report_name": "CBC"},
		},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	ct := captured.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
		t.Errorf("expected multipart content type with boundary, got %q", ct)
	}
	if strings.Contains(ct, "application/json") {
		t.Errorf("JSON content type leaked into multipart request: %q", ct)
	}
	// The caller's header map must not be mutated.
	if callerHeaders["Content-Type"] != "application/json" {
		t.Errorf("caller headers mutated: %v", callerHeaders)
	}
}

func TestDo_MultipartStripsNonCanonicalContentType(t *testing.T) {
	cred := &session.Credential{AccessToken: "acc"}
	exec, captured, srv := testExecutor(t, cred)

	// The header key is spelled in lowercase; it must still be stripped.
	callerHeaders := map[string]string{"content-type": "application/json"}
	_, err := exec.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL + "/api/patients/p1/prescriptions",
		Headers: callerHeaders,
		Multipart: &MultipartPayload{
			FieldName: "file",
			FileName:  "rx.pdf",
			Content:   []byte("%PDF-1.4 fake"),
			Fields:    map[string]string{"title": "Antibiotics"},
		},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	values := captured.Header.Values("Content-Type")
	if len(values) != 1 {
		t.Fatalf("expected exactly one content-type value, got %v", values)
	}
	if !strings.HasPrefix(values[0], "multipart/form-data; boundary=") {
		t.Errorf("expected multipart content type with boundary, got %q", values[0])
	}
	if callerHeaders["content-type"] != "application/json" {
		t.Errorf("caller headers mutated: %v", callerHeaders)
	}
}

func TestDo_ParamsAppended(t *testing.T) {
	exec, captured, srv := testExecutor(t, nil)

	params := url.Values{}
	params.Set("page", "2")
	params.Set("search", "jane")
	_, err := exec.Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    srv.URL + "/api/patients",
		Params: params,
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	q := captured.URL.Query()
	if q.Get("page") != "2" || q.Get("search") != "jane" {
		t.Errorf("query params not forwarded: %v", captured.URL.RawQuery)
	}
}

func TestDo_RejectsUnsupportedMethod(t *testing.T) {
	exec := NewExecutor(nil, nil, zerolog.Nop())
	if _, err := exec.Do(context.Background(), Request{Method: "PATCH", URL: "http://example.invalid"}); err == nil {
		t.Error("expected error for unsupported method")
	}
}

func TestDo_NonOKReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no such appointment"}`))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.Client(), nil, zerolog.Nop())
	resp, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/api/appointments/missing"})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if statusErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", statusErr.Status)
	}
	if resp == nil || resp.Status != http.StatusNotFound {
		t.Errorf("expected raw response alongside error, got %+v", resp)
	}
}
