// package shared defines shared helpers
package shared

import (
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

var (
	yearSuffixRe = regexp.MustCompile(`\(\d{4}\)$`)
	nonWordRe    = regexp.MustCompile(`[^\w]`)
)

// NormalizeTitle canonicalizes a media title for loose equality checks.
//
// A trailing parenthesized year ("Dune (2021)") is dropped, everything
// outside [0-9A-Za-z_] is removed, and the result is lowercased. The
// function is total and idempotent.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(yearSuffixRe.ReplaceAllString(strings.TrimSpace(title), ""))
	return strings.ToLower(nonWordRe.ReplaceAllString(title, ""))
}
