package resolver

import (
	"sort"
	"strings"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/util"
	"go.uber.org/zap"
)

// Config tunes candidate selection. The stop-lists themselves live in the
// alias table's lexicon, not here.
type Config struct {
	// MinConfidence is the floor below which an entity never becomes a
	// candidate.
	MinConfidence float64
	// TiebreakWindow is the confidence delta within which two candidates
	// count as tied and fall back to priority.
	TiebreakWindow float64
}

func DefaultConfig() Config {
	return Config{
		MinConfidence:  0.5,
		TiebreakWindow: 0.01,
	}
}

// Resolver matches free text against the resort catalog plus alias table.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	catalog *domain.Catalog
	aliases *domain.AliasTable
	cfg     Config
	logger  *zap.Logger
}

func New(catalog *domain.Catalog, aliases *domain.AliasTable, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = DefaultConfig().MinConfidence
	}
	if cfg.TiebreakWindow == 0 {
		cfg.TiebreakWindow = DefaultConfig().TiebreakWindow
	}
	return &Resolver{
		catalog: catalog,
		aliases: aliases,
		cfg:     cfg,
		logger:  logger,
	}
}

// Resolve maps one text fragment to a single resort, an ambiguous group, or
// nothing. Malformed or empty input is a normal no-match, never an error.
func (r *Resolver) Resolve(text string) *domain.Resolution {
	textNorm := util.Normalize(text)
	if textNorm == "" {
		return domain.NoMatchResolution()
	}

	scores := make(map[string]float64, len(r.catalog.Resorts))
	candidates := make([]*domain.MatchCandidate, 0, 4)
	for _, resort := range r.catalog.Resorts {
		confidence := r.scoreEntity(textNorm, resort)
		scores[resort.ID] = confidence
		if confidence >= r.cfg.MinConfidence {
			candidates = append(candidates, r.candidate(resort, confidence))
		}
	}
	r.sortCandidates(candidates)

	if group := r.detectGroup(textNorm, scores, candidates); group != nil {
		return group
	}

	if len(candidates) == 0 {
		return domain.NoMatchResolution()
	}

	r.logger.Debug("Resolved resort",
		zap.String("query", textNorm),
		zap.String("resort", candidates[0].ResortID),
		zap.Float64("confidence", candidates[0].Confidence),
	)

	return &domain.Resolution{
		Outcome:    domain.MatchSingle,
		Best:       candidates[0],
		Candidates: candidates,
	}
}

func (r *Resolver) candidate(resort *domain.ResortEntity, confidence float64) *domain.MatchCandidate {
	return &domain.MatchCandidate{
		ResortID:   resort.ID,
		Name:       resort.PrimaryName(),
		Confidence: confidence,
		Priority:   r.aliases.PriorityFor(resort.ID),
		Resort:     resort,
	}
}

// sortCandidates orders by confidence descending; confidences within the
// tie-break window compare by priority instead. The sort is stable so equal
// candidates keep catalog order, which makes tie-breaks reproducible.
func (r *Resolver) sortCandidates(candidates []*domain.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		delta := a.Confidence - b.Confidence
		if delta < r.cfg.TiebreakWindow && delta > -r.cfg.TiebreakWindow {
			return a.Priority > b.Priority
		}
		return a.Confidence > b.Confidence
	})
}

// detectGroup fires when the input equals or contains a configured group
// label shared by more than one entity. The bare label is ambiguous by
// construction, so every member comes back regardless of its individual
// confidence. A longer input that already pins one member with exact-level
// confidence (the full canonical name of one group resort) stays a single
// match.
func (r *Resolver) detectGroup(textNorm string, scores map[string]float64, candidates []*domain.MatchCandidate) *domain.Resolution {
	for _, label := range r.aliases.GroupLabels() {
		labelNorm := util.Normalize(label.Label)
		if labelNorm == "" || util.RuneLen(labelNorm) < 2 {
			continue
		}
		if textNorm != labelNorm && !strings.Contains(textNorm, labelNorm) {
			continue
		}

		members := r.catalog.MembersOfGroup(label.GroupKey)
		if len(members) < 2 {
			continue
		}

		if textNorm != labelNorm && r.hasExactCandidate(candidates) {
			continue
		}

		groupCandidates := make([]*domain.MatchCandidate, 0, len(members))
		for _, member := range members {
			groupCandidates = append(groupCandidates, r.candidate(member, scores[member.ID]))
		}
		r.sortCandidates(groupCandidates)

		r.logger.Debug("Group label matched",
			zap.String("query", textNorm),
			zap.String("label", label.Label),
			zap.Int("members", len(groupCandidates)),
		)

		return &domain.Resolution{
			Outcome:    domain.MatchGroup,
			Candidates: groupCandidates,
			GroupKey:   label.GroupKey,
		}
	}
	return nil
}

func (r *Resolver) hasExactCandidate(candidates []*domain.MatchCandidate) bool {
	for _, c := range candidates {
		if c.Confidence >= 0.98 {
			return true
		}
	}
	return false
}

// scoreEntity computes the best confidence for one entity over all of its
// aliases, evaluating the ranked rule set and keeping the maximum.
func (r *Resolver) scoreEntity(textNorm string, resort *domain.ResortEntity) float64 {
	textLen := util.RuneLen(textNorm)
	best := 0.0

	for idx, alias := range r.aliases.AliasesFor(resort.ID) {
		aliasNorm := util.Normalize(alias)
		aliasLen := util.RuneLen(aliasNorm)
		if aliasLen == 0 {
			continue
		}

		// Rule 1: exact match.
		if textNorm == aliasNorm {
			if idx == 0 {
				return 1.0
			}
			best = max(best, 0.98)
			continue
		}

		// Rule 2: text contains the alias.
		if aliasLen >= 2 && strings.Contains(textNorm, aliasNorm) {
			var confidence float64
			switch {
			case aliasLen >= 4:
				confidence = 0.90
			case aliasLen == 3:
				confidence = 0.87
			default:
				confidence = 0.80
			}
			if idx == 0 {
				confidence = util.Clamp01(confidence + 0.05)
			}
			best = max(best, confidence)
		}

		// Rule 3: alias contains the text. Weaker: the user typed more
		// than the canonical short form.
		if textLen >= 2 && strings.Contains(aliasNorm, textNorm) {
			best = max(best, 0.75)
		}
	}

	best = max(best, r.reverseSequenceScore(textNorm, resort))
	best = max(best, r.tokenScore(textNorm, resort))
	return best
}

// reverseSequenceScore extracts maximal contiguous Han/kana runs from the
// input, strips leading filler words, discards runs that are nothing but a
// generic qualifier, and checks whether what remains sits inside the
// canonical or derived-short name.
func (r *Resolver) reverseSequenceScore(textNorm string, resort *domain.ResortEntity) float64 {
	lexicon := r.aliases.Lexicon
	canonical := util.Normalize(resort.PrimaryName())
	short := util.Normalize(r.aliases.DeriveShortName(resort.PrimaryName()))

	best := 0.0
	for _, run := range scriptRuns(textNorm) {
		if util.RuneLen(run) < 3 {
			continue
		}

		stripped := stripFillerPrefixes(run, lexicon.FillerPrefixes)
		if util.RuneLen(stripped) < 2 {
			continue
		}
		if util.Contains(lexicon.GenericTokens, stripped) {
			continue
		}

		if strings.Contains(canonical, stripped) || strings.Contains(short, stripped) {
			confidence := 0.87
			if overlapsGenericToken(stripped, lexicon.GenericTokens) {
				confidence = 0.75
			}
			best = max(best, confidence)
		}
	}
	return best
}

// tokenScore splits the canonical names into tokens (spaces, ampersands,
// boundaries between Han/kana and Latin segments), drops generic stop
// tokens, and scores tokens found inside the input.
func (r *Resolver) tokenScore(textNorm string, resort *domain.ResortEntity) float64 {
	lexicon := r.aliases.Lexicon

	best := 0.0
	for _, variant := range resort.NameVariants() {
		for _, token := range splitNameTokens(util.Normalize(variant)) {
			if util.Contains(lexicon.GenericTokens, token) || util.Contains(lexicon.SuffixTokens, token) {
				continue
			}

			tokenLen := util.RuneLen(token)
			hanKana := isHanKanaToken(token)
			if hanKana && tokenLen < 2 {
				continue
			}
			if !hanKana && tokenLen < 3 {
				continue
			}

			if strings.Contains(textNorm, token) {
				if hanKana {
					best = max(best, 0.82)
				} else {
					best = max(best, 0.80)
				}
			}
		}
	}
	return best
}

// scriptRuns returns the maximal contiguous Han/kana runs of the input.
func scriptRuns(text string) []string {
	var runs []string
	var current strings.Builder
	for _, r := range text {
		if util.IsHanOrKana(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			runs = append(runs, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		runs = append(runs, current.String())
	}
	return runs
}

// stripFillerPrefixes repeatedly removes leading filler words. Longer
// fillers are tried first so 我要去 wins over 去.
func stripFillerPrefixes(run string, fillers []string) string {
	ordered := make([]string, len(fillers))
	copy(ordered, fillers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return util.RuneLen(ordered[i]) > util.RuneLen(ordered[j])
	})

	for {
		stripped := run
		for _, filler := range ordered {
			if filler == "" {
				continue
			}
			if strings.HasPrefix(stripped, filler) && util.RuneLen(stripped) > util.RuneLen(filler) {
				stripped = strings.TrimPrefix(stripped, filler)
			}
		}
		if stripped == run {
			return run
		}
		run = stripped
	}
}

func overlapsGenericToken(s string, generics []string) bool {
	for _, generic := range generics {
		if generic != "" && strings.Contains(generic, s) {
			return true
		}
	}
	return false
}

func splitNameTokens(name string) []string {
	var tokens []string
	var current strings.Builder
	var currentHanKana bool

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range name {
		switch {
		case r == ' ' || r == '　' || r == '&' || r == '・' || r == '-' || r == '/':
			flush()
		case util.IsHanOrKana(r):
			if current.Len() > 0 && !currentHanKana {
				flush()
			}
			currentHanKana = true
			current.WriteRune(r)
		default:
			if current.Len() > 0 && currentHanKana {
				flush()
			}
			currentHanKana = false
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isHanKanaToken(token string) bool {
	for _, r := range token {
		return util.IsHanOrKana(r)
	}
	return false
}
