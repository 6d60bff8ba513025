package domain

import "time"

// DateRange is a calendar date span with no time-of-day component. Start
// and End are stored at UTC midnight.
//
// DurationDays is the exclusive delta End - Start: a same-day range has
// duration 0 and Dec 15 to Dec 20 has duration 5. Every call site counts
// this way; the inclusive night-count the UI may want is DurationDays, the
// inclusive day-count is DurationDays + 1.
type DateRange struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"durationDays"`
}

// NewDateRange builds a range and computes its duration. The caller
// guarantees end >= start; the extractor discards anything else.
func NewDateRange(start, end time.Time) *DateRange {
	return &DateRange{
		Start:        start,
		End:          end,
		DurationDays: int(end.Sub(start).Hours() / 24),
	}
}

// ExtractionKind classifies one extractor call.
type ExtractionKind string

const (
	// ExtractionEmpty: no recognizable date expression.
	ExtractionEmpty ExtractionKind = "empty"
	// ExtractionPartial: a start date was found but no end, so the caller
	// should ask for an end date rather than re-ask for the whole range.
	ExtractionPartial ExtractionKind = "partial"
	// ExtractionRange: a validated start/end pair.
	ExtractionRange ExtractionKind = "range"
)

// DateExtraction is the result of scanning one utterance for dates.
type DateExtraction struct {
	Kind  ExtractionKind `json:"kind"`
	Range *DateRange     `json:"range,omitempty"`
	Start *time.Time     `json:"startOnly,omitempty"`
}

// EmptyExtraction is the canonical no-dates-found result.
func EmptyExtraction() *DateExtraction {
	return &DateExtraction{Kind: ExtractionEmpty}
}
