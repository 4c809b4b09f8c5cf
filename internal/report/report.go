// Package report forwards fetch errors to an observability sink
package report

import (
	"github.com/rs/zerolog"
)

// Metadata tags a reported error
type Metadata struct {
	Endpoint string
	Feature  string
	Key      string
}

// Reporter receives errors worth alerting on. Report must not block the caller.
type Reporter interface {
	Report(err error, meta Metadata)
}

// LogReporter writes reports to a zerolog logger
type LogReporter struct {
	logger zerolog.Logger
}

// NewLogReporter creates a reporter logging at error level
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger.With().Str("component", "report").Logger()}
}

// Report logs err with its metadata
func (r *LogReporter) Report(err error, meta Metadata) {
	r.logger.Error().
		Err(err).
		Str("endpoint", meta.Endpoint).
		Str("feature", meta.Feature).
		Str("key", meta.Key).
		Msg("fetch error reported")
}

type nop struct{}

func (nop) Report(error, Metadata) {}

// Nop discards every report
var Nop Reporter = nop{}

// Multi fans a report out to every reporter. A panicking reporter does not stop the others.
type Multi []Reporter

// Report forwards err to each reporter
func (m Multi) Report(err error, meta Metadata) {
	for _, r := range m {
		Safe(r, err, meta)
	}
}

// Safe calls r.Report and swallows any panic it raises
func Safe(r Reporter, err error, meta Metadata) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	r.Report(err, meta)
}
