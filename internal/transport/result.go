package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrorKind classifies an abnormal call outcome.
type ErrorKind string

const (
	KindTransportFailure  ErrorKind = "transport_failure"
	KindBadRequest        ErrorKind = "bad_request"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindNotFound          ErrorKind = "not_found"
	KindServerError       ErrorKind = "server_error"
	KindPartialAcceptance ErrorKind = "partial_acceptance"
	KindShapeMismatch     ErrorKind = "shape_mismatch"
	KindRequestFailed     ErrorKind = "request_failed"
)

// APIError is the single classified error type crossing the resource-client
// boundary. Exactly one is produced per abnormal outcome.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// Result is the outcome of one API call: either a success payload or a
// classified APIError, never both, and never a raw panic or unclassified
// error escaping to callers. Presentation is deliberately not handled
// here; the layer receiving the Result decides what the user sees.
type Result struct {
	payload json.RawMessage
	err     *APIError
}

// Ok wraps a success payload.
func Ok(payload json.RawMessage) Result {
	return Result{payload: payload}
}

// Fail wraps a classified error.
func Fail(err *APIError) Result {
	return Result{err: err}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.err == nil }

// Payload returns the decoded response body. Nil on failure — callers must
// treat a failed Result as carrying no data at all, never partial data.
func (r Result) Payload() json.RawMessage {
	if r.err != nil {
		return nil
	}
	return r.payload
}

// Err returns the classified error, nil on success.
func (r Result) Err() *APIError { return r.err }

// Decode unmarshals the success payload into v. Decoding a failed Result
// is an error.
func (r Result) Decode(v any) error {
	if r.err != nil {
		return fmt.Errorf("decode failed result: %w", r.err)
	}
	if len(r.payload) == 0 {
		return nil
	}
	return json.Unmarshal(r.payload, v)
}

// ---------------------------------------------------------------------------
// Normalizer
// ---------------------------------------------------------------------------

// Normalize converts a raw transport outcome into a Result. The mapping is
// terminal in one step:
//
//	2xx (except 202)  -> Ok(body)
//	202               -> partial acceptance (soft failure)
//	400 / 401 / 404   -> classified client errors
//	5xx               -> server error
//	other status      -> generic request failure
//	no response       -> transport failure
func Normalize(resp *RawResponse, err error) Result {
	if err == nil {
		if resp == nil {
			return Fail(&APIError{Kind: KindTransportFailure, Message: "no response received"})
		}
		// A non-2xx response is classified even when the caller lost its
		// paired error; the pair is not trusted to be consistent.
		if resp.Status < 200 || resp.Status >= 300 {
			return Fail(classify(resp.Status, resp.Body))
		}
		if resp.Status == 202 {
			return Fail(&APIError{
				Kind:    KindPartialAcceptance,
				Status:  202,
				Message: "request was accepted but has not completed",
				Body:    resp.Body,
			})
		}
		return Ok(resp.Body)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return Fail(classify(statusErr.Status, statusErr.Body))
	}

	return Fail(&APIError{
		Kind:    KindTransportFailure,
		Message: "unexpected error, please check your connection",
	})
}

func classify(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}
	switch {
	case status == 202:
		e.Kind = KindPartialAcceptance
		e.Message = "request was accepted but has not completed"
	case status == 400:
		e.Kind = KindBadRequest
		e.Message = serverMessage(body, "invalid request")
	case status == 401:
		e.Kind = KindUnauthorized
		e.Message = "session expired, please log in again"
	case status == 404:
		e.Kind = KindNotFound
		e.Message = serverMessage(body, "requested record was not found")
	case status >= 500:
		e.Kind = KindServerError
		e.Message = "server error, please try again later"
	default:
		e.Kind = KindRequestFailed
		e.Message = serverMessage(body, "request failed")
	}
	return e
}

// serverMessage extracts a human-readable reason from an error body when
// the backend provides one, falling back otherwise.
func serverMessage(body []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return fallback
}
