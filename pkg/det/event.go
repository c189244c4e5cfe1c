// event.go defines the event handed to sinks for every accepted report.

package det

import "time"

// Event is what a Sink receives after a record has been appended.
type Event struct {
	// TracerID is the UUID of the tracer that accepted the report.
	TracerID string

	// Sequence is a per-tracer counter, starting at 1, across all categories.
	Sequence uint64

	// Timestamp is when the tracer accepted the report.
	Timestamp time.Time

	// Category is the log the record was appended to.
	Category Category

	// Record is the reported tuple, verbatim.
	Record Record

	// Fingerprint groups events with the same category and identifiers.
	Fingerprint string
}
