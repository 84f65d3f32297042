package notify

import (
	"encoding/json"
	"testing"

	"github.com/hims/admin/internal/transport"
)

func TestReport_SuccessEmitsNothing(t *testing.T) {
	sink := &MemorySink{}
	ok := Report(sink, transport.Ok(json.RawMessage(`{"data":[]}`)))
	if !ok {
		t.Error("expected Report to return true for success")
	}
	if len(sink.Notices()) != 0 {
		t.Errorf("success must emit zero notices, got %d", len(sink.Notices()))
	}
}

func TestReport_FailureEmitsExactlyOne(t *testing.T) {
	kinds := []struct {
		kind transport.ErrorKind
		want Severity
	}{
		{transport.KindPartialAcceptance, SeverityWarning},
		{transport.KindShapeMismatch, SeverityWarning},
		{transport.KindUnauthorized, SeverityError},
		{transport.KindBadRequest, SeverityError},
		{transport.KindNotFound, SeverityError},
		{transport.KindServerError, SeverityError},
		{transport.KindTransportFailure, SeverityError},
	}
	for _, tc := range kinds {
		sink := &MemorySink{}
		res := transport.Fail(&transport.APIError{Kind: tc.kind, Message: "m"})
		if Report(sink, res) {
			t.Errorf("%s: expected Report false", tc.kind)
		}
		notices := sink.Notices()
		if len(notices) != 1 {
			t.Fatalf("%s: expected exactly one notice, got %d", tc.kind, len(notices))
		}
		if notices[0].Severity != tc.want {
			t.Errorf("%s: expected severity %s, got %s", tc.kind, tc.want, notices[0].Severity)
		}
	}
}

func TestNilSinkIsSafe(t *testing.T) {
	Error(nil, &transport.APIError{Kind: transport.KindServerError})
	Warn(nil, "ignored")
	Info(nil, "ignored")
}
