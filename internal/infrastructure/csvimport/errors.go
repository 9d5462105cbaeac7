package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Source-level failures abort the whole import
var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrMissingColumn   = errors.New("CSV file missing required column")
)

// DefaultMaxReportedErrors bounds the error list returned to callers
const DefaultMaxReportedErrors = 10

// ErrorLog keeps the first few per-product failures of an import run while
// counting all of them.
type ErrorLog struct {
	messages []string
	limit    int
	total    int
}

// NewErrorLog creates an ErrorLog that retains at most limit messages
func NewErrorLog(limit int) *ErrorLog {
	if limit <= 0 {
		limit = DefaultMaxReportedErrors
	}
	return &ErrorLog{limit: limit, messages: make([]string, 0, limit)}
}

// Addf records a formatted failure
func (l *ErrorLog) Addf(format string, args ...any) {
	l.total++
	if len(l.messages) < l.limit {
		l.messages = append(l.messages, fmt.Sprintf(format, args...))
	}
}

// Messages returns the retained messages in insertion order
func (l *ErrorLog) Messages() []string {
	out := make([]string, len(l.messages))
	copy(out, l.messages)
	return out
}

// Total returns the number of failures recorded, retained or not
func (l *ErrorLog) Total() int {
	return l.total
}

// Truncated reports whether some failures were dropped from Messages
func (l *ErrorLog) Truncated() bool {
	return l.total > len(l.messages)
}

// String summarizes the log for diagnostics
func (l *ErrorLog) String() string {
	if l.total == 0 {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s)", l.total)
	if l.Truncated() {
		fmt.Fprintf(&sb, " (showing first %d)", len(l.messages))
	}
	for _, m := range l.messages {
		sb.WriteString("\n  - ")
		sb.WriteString(m)
	}
	return sb.String()
}
