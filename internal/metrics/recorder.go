// Package metrics holds the observability hooks of the generator. Callers
// get a NoopRecorder unless a Prometheus registry is configured.
package metrics

import "time"

// Document outcomes counted by IncDocuments.
const (
	OutcomeWritten  = "written"
	OutcomeReserved = "reserved"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Recorder receives generation metrics. Implementations must be safe for
// concurrent use: environments may be generated in parallel.
type Recorder interface {
	ObserveGeneration(env string, d time.Duration, success bool)
	IncDocuments(env, outcome string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveGeneration(string, time.Duration, bool) {}
func (NoopRecorder) IncDocuments(string, string)                   {}
