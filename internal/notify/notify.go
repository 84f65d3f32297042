// Package notify carries user-facing notifications — the CLI analogue of
// the admin panel's toast messages. The transport layer never talks to a
// sink directly; callers receive a Result and use Report to surface at
// most one classified notice per abnormal outcome.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hims/admin/internal/transport"
)

// Severity classifies a notice for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a single user-facing message.
type Notice struct {
	ID       string
	Severity Severity
	Message  string
	Time     time.Time
}

// Sink receives notices. Implementations must be safe for concurrent use.
type Sink interface {
	Push(n Notice)
}

// ---------------------------------------------------------------------------
// Result reporting
// ---------------------------------------------------------------------------

// Report pushes exactly one notice for a failed Result and none for a
// successful one. Returns true when the result succeeded.
func Report(sink Sink, res transport.Result) bool {
	if res.OK() {
		return true
	}
	Error(sink, res.Err())
	return false
}

// Error pushes a single notice for a classified API error.
func Error(sink Sink, err *transport.APIError) {
	if sink == nil || err == nil {
		return
	}
	sink.Push(Notice{
		ID:       uuid.New().String(),
		Severity: severityFor(err.Kind),
		Message:  err.Message,
		Time:     time.Now().UTC(),
	})
}

// Warn pushes an ad-hoc warning, used for transient conditions like a
// failed load-more that keeps the current list intact.
func Warn(sink Sink, msg string) {
	if sink == nil {
		return
	}
	sink.Push(Notice{ID: uuid.New().String(), Severity: SeverityWarning, Message: msg, Time: time.Now().UTC()})
}

// Info pushes an informational notice.
func Info(sink Sink, msg string) {
	if sink == nil {
		return
	}
	sink.Push(Notice{ID: uuid.New().String(), Severity: SeverityInfo, Message: msg, Time: time.Now().UTC()})
}

func severityFor(kind transport.ErrorKind) Severity {
	switch kind {
	case transport.KindPartialAcceptance, transport.KindShapeMismatch:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// ---------------------------------------------------------------------------
// Sinks
// ---------------------------------------------------------------------------

// LogSink writes notices through zerolog, the terminal stand-in for a
// toast container.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Push(n Notice) {
	var ev *zerolog.Event
	switch n.Severity {
	case SeverityWarning:
		ev = s.Log.Warn()
	case SeverityError:
		ev = s.Log.Error()
	default:
		ev = s.Log.Info()
	}
	ev.Str("notice_id", n.ID).Msg(n.Message)
}

// MemorySink is a test double that records every pushed notice.
type MemorySink struct {
	mu      sync.Mutex
	notices []Notice
}

func (s *MemorySink) Push(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

// Notices returns a copy of recorded notices.
func (s *MemorySink) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// Reset clears recorded notices.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = nil
}
