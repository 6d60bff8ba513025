package conversation

import (
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/metric"
	"github.com/kaede/ski-trip-bot-go/internal/service/dateparse"
	"github.com/kaede/ski-trip-bot-go/internal/service/resolver"
	"github.com/kaede/ski-trip-bot-go/internal/util"
	"go.uber.org/zap"
)

// affirmations advance a ready_to_create conversation to trip creation.
var affirmations = []string{
	"好", "好的", "好啊", "確認", "確定", "沒問題", "可以", "建立",
	"ok", "okay", "yes", "y", "go",
}

// Engine is the conversation state machine. It owns no session storage and
// holds no per-conversation state of its own: each Turn is a pure function
// of (context, utterance), which is what makes retried chat deliveries
// harmless.
type Engine struct {
	resolver  *resolver.Resolver
	extractor *dateparse.Extractor
	metrics   *metric.Metrics
	logger    *zap.Logger
}

func NewEngine(res *resolver.Resolver, extractor *dateparse.Extractor, metrics *metric.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		resolver:  res,
		extractor: extractor,
		metrics:   metrics,
		logger:    logger,
	}
}

// Turn runs one utterance through the resolver and the date extractor,
// merges the results into the accumulated slots, and decides what to ask
// next. The input context is never mutated; the updated copy is returned.
func (e *Engine) Turn(conv *domain.ConversationContext, utterance string) (*domain.ConversationContext, *domain.Directive) {
	started := time.Now()
	if conv == nil {
		conv = domain.NewConversationContext("")
	}

	next := &domain.ConversationContext{
		SessionID: conv.SessionID,
		State:     conv.State,
		Slots:     conv.Slots.Clone(),
		History:   conv.History,
		UpdatedAt: started,
	}

	defer func() {
		e.metrics.ObserveTurn(time.Since(started).Seconds())
	}()

	// A finished conversation stays finished; the caller should have
	// discarded the context already.
	if conv.State.Terminal() {
		return next, e.createDirective(next.Slots)
	}

	if conv.State == domain.StateReadyToCreate && isAffirmation(utterance) {
		next.State = domain.StateTripCreated
		e.metrics.ObserveTripCreated()
		e.logger.Info("Trip confirmed",
			zap.String("session", conv.SessionID),
			zap.String("resort", next.Slots.Resort.ResortID),
		)
		return next, e.createDirective(next.Slots)
	}

	// Resolver and extractor both see the full raw utterance, so a single
	// turn can fill both slots.
	resolution := e.resolver.Resolve(utterance)
	extraction := e.extractor.Extract(utterance)
	e.metrics.ObserveResolve(string(resolution.Outcome))
	e.metrics.ObserveDates(string(extraction.Kind))

	next.History = conv.Slots.Clone()
	merge(next.Slots, resolution, extraction)

	if resolution.Outcome == domain.MatchGroup {
		next.State = domain.StateAmbiguousResort
		return next, &domain.Directive{
			Kind:       domain.DirectiveAskResort,
			Candidates: resolution.Candidates,
		}
	}

	state, directive := evaluate(next.Slots)
	next.State = state
	return next, directive
}

// Undo restores the slots from before the last merge, for "that's not what
// I meant" follow-ups.
func (e *Engine) Undo(conv *domain.ConversationContext) (*domain.ConversationContext, *domain.Directive) {
	if conv == nil {
		conv = domain.NewConversationContext("")
	}
	if conv.History == nil {
		state, directive := evaluate(conv.Slots)
		conv.State = state
		return conv, directive
	}

	next := &domain.ConversationContext{
		SessionID: conv.SessionID,
		Slots:     conv.History.Clone(),
		UpdatedAt: time.Now(),
	}
	state, directive := evaluate(next.Slots)
	next.State = state
	return next, directive
}

// merge folds a fresh extraction into the accumulated slots. A non-empty
// value fills an empty slot; a full range replaces a held partial start; a
// fresh single match replaces a held resort (correction). A partial never
// downgrades a full range. A lone date arriving while a partial start is
// held answers the pending end-date question: the two combine into a range
// when the new date is on or after the held start, otherwise the new date
// becomes the start.
func merge(slots *domain.TripSlots, resolution *domain.Resolution, extraction *domain.DateExtraction) {
	if resolution.Outcome == domain.MatchSingle {
		slots.Resort = resolution.Best
	}

	switch extraction.Kind {
	case domain.ExtractionRange:
		slots.Dates = extraction.Range
		slots.PartialStart = nil
	case domain.ExtractionPartial:
		if slots.Dates != nil {
			break
		}
		if slots.PartialStart != nil && !extraction.Start.Before(*slots.PartialStart) {
			slots.Dates = domain.NewDateRange(*slots.PartialStart, *extraction.Start)
			slots.PartialStart = nil
		} else {
			slots.PartialStart = extraction.Start
		}
	}
}

// evaluate maps accumulated slots to the next state and its follow-up.
func evaluate(slots *domain.TripSlots) (domain.ConversationState, *domain.Directive) {
	switch {
	case slots.Resort == nil && slots.Dates == nil:
		return domain.StateAwaitingBoth, &domain.Directive{Kind: domain.DirectiveAskResort}
	case slots.Resort == nil:
		return domain.StateAwaitingResort, &domain.Directive{Kind: domain.DirectiveAskResort}
	case slots.Dates == nil:
		return domain.StateAwaitingDate, &domain.Directive{
			Kind:        domain.DirectiveAskDate,
			NeedEndDate: slots.PartialStart != nil,
		}
	default:
		return domain.StateReadyToCreate, &domain.Directive{
			Kind:   domain.DirectiveConfirm,
			Resort: slots.Resort,
			Dates:  slots.Dates,
		}
	}
}

func (e *Engine) createDirective(slots *domain.TripSlots) *domain.Directive {
	return &domain.Directive{
		Kind:   domain.DirectiveCreateTrip,
		Resort: slots.Resort,
		Dates:  slots.Dates,
	}
}

func isAffirmation(utterance string) bool {
	normalized := util.NormalizeKey(utterance)
	return util.Contains(affirmations, normalized)
}
