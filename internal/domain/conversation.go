package domain

import "time"

// ConversationState is where a trip-creation conversation currently sits.
type ConversationState string

const (
	StateAwaitingBoth    ConversationState = "awaiting_both"
	StateAwaitingResort  ConversationState = "awaiting_resort"
	StateAwaitingDate    ConversationState = "awaiting_date"
	StateAmbiguousResort ConversationState = "ambiguous_resort"
	StateReadyToCreate   ConversationState = "ready_to_create"
	StateTripCreated     ConversationState = "trip_created"
)

// Terminal reports whether the conversation is finished and its context can
// be discarded.
func (s ConversationState) Terminal() bool {
	return s == StateTripCreated
}

// TripSlots holds the accumulated answers a trip needs before it can be
// created. PartialStart carries a start date whose end is still missing; it
// is cleared once a full range lands.
type TripSlots struct {
	Resort       *MatchCandidate `json:"resort,omitempty"`
	Dates        *DateRange      `json:"dates,omitempty"`
	PartialStart *time.Time      `json:"partialStart,omitempty"`
}

// Complete reports whether every required slot is filled.
func (s *TripSlots) Complete() bool {
	return s.Resort != nil && s.Dates != nil
}

// Clone copies the slots so a turn can merge without aliasing the previous
// state. Candidates and ranges are immutable once produced, so a shallow
// copy of the pointers is enough.
func (s *TripSlots) Clone() *TripSlots {
	if s == nil {
		return &TripSlots{}
	}
	clone := *s
	return &clone
}

// ConversationContext is the per-session state the machine carries across
// turns. It is exclusively owned by one session; concurrent sessions never
// share one.
type ConversationContext struct {
	SessionID string            `json:"sessionId"`
	State     ConversationState `json:"state"`
	Slots     *TripSlots        `json:"slots"`
	// History holds the previous turn's slots so the last merge can be
	// undone when the user backs out of a correction.
	History   *TripSlots `json:"history,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewConversationContext starts a fresh session.
func NewConversationContext(sessionID string) *ConversationContext {
	return &ConversationContext{
		SessionID: sessionID,
		State:     StateAwaitingBoth,
		Slots:     &TripSlots{},
	}
}

// DirectiveKind is the response the machine asks the caller to deliver.
type DirectiveKind string

const (
	DirectiveAskResort  DirectiveKind = "ask_resort"
	DirectiveAskDate    DirectiveKind = "ask_date"
	DirectiveConfirm    DirectiveKind = "confirm_summary"
	DirectiveCreateTrip DirectiveKind = "create_trip"
)

// Directive tells the transport what to do next: ask a targeted follow-up,
// present a summary for confirmation, or hand the finished trip to the
// persistence collaborator.
type Directive struct {
	Kind DirectiveKind `json:"kind"`
	// Candidates lists the ambiguous group when Kind is ask_resort after a
	// group match; nil when the resort slot is simply empty.
	Candidates []*MatchCandidate `json:"candidates,omitempty"`
	// NeedEndDate narrows an ask_date to just the missing end date.
	NeedEndDate bool            `json:"needEndDate,omitempty"`
	Resort      *MatchCandidate `json:"resort,omitempty"`
	Dates       *DateRange      `json:"dates,omitempty"`
}
