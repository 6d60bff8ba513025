package domain

// MatchOutcome classifies one resolver call.
type MatchOutcome string

const (
	// MatchNone: nothing in the catalog fits the text.
	MatchNone MatchOutcome = "no_match"
	// MatchSingle: one best entity with a confidence score.
	MatchSingle MatchOutcome = "single"
	// MatchGroup: the text names a group label shared by several entities;
	// the caller must disambiguate, never guess.
	MatchGroup MatchOutcome = "group"
)

// MatchCandidate scores one entity against a text fragment. Resort points
// into the shared catalog and is never owned by the candidate; ResortID is
// what gets serialized so a candidate can be rehydrated from a store.
type MatchCandidate struct {
	ResortID   string  `json:"resortId"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Priority   int     `json:"priority"`

	Resort *ResortEntity `json:"-"`
}

// Resolution is the result of one resolver call. Candidates is populated
// for MatchGroup (every member of the matched group) and for MatchSingle
// (ranked list, best first). Best is nil unless Outcome is MatchSingle.
type Resolution struct {
	Outcome    MatchOutcome      `json:"outcome"`
	Best       *MatchCandidate   `json:"best,omitempty"`
	Candidates []*MatchCandidate `json:"candidates,omitempty"`
	GroupKey   string            `json:"groupKey,omitempty"`
}

// NoMatchResolution is the canonical empty result; malformed input maps
// here instead of erroring.
func NoMatchResolution() *Resolution {
	return &Resolution{Outcome: MatchNone}
}
