package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultAliasPriority is assumed when an alias entry omits its weight.
const DefaultAliasPriority = 5

// AliasEntry is one curated row of the alias table. Alias order matters:
// index 0 is the canonical short form a user is most likely to type and
// earns the exact-match bonus.
type AliasEntry struct {
	ResortID string   `json:"resortId"`
	Aliases  []string `json:"aliases"`
	Priority int      `json:"priority,omitempty"`
}

// GroupLabel marks a string (usually a region name) that legitimately
// refers to every entity sharing the group key at once.
type GroupLabel struct {
	Label    string `json:"label"`
	GroupKey string `json:"groupKey"`
}

// MatcherLexicon carries the language-specific stop-lists the resolver
// needs. These are data, not code: they get tuned whenever new entities
// join the catalog.
type MatcherLexicon struct {
	// FillerPrefixes are action/temporal words stripped from the front of
	// a candidate run before name matching (我要去, 想去, ...).
	FillerPrefixes []string `json:"fillerPrefixes"`
	// GenericTokens alone never identify a resort (滑雪場, 度假村, ...).
	GenericTokens []string `json:"genericTokens"`
	// SuffixTokens are qualifiers stripped off canonical names when
	// deriving short aliases (滑雪場, 溫泉, 高原, ...).
	SuffixTokens []string `json:"suffixTokens"`
}

// AliasTable maps resort ids to their ranked alias lists and carries the
// group-label configuration. Entities without a curated entry fall back to
// aliases derived from their catalog names.
type AliasTable struct {
	Entries []*AliasEntry   `json:"entries"`
	Groups  []*GroupLabel   `json:"groups"`
	Lexicon *MatcherLexicon `json:"lexicon"`

	catalog    *Catalog
	byResortID map[string]*AliasEntry
}

//go:embed data/aliases.json
var aliasesJSON []byte

// LoadAliasTable parses the embedded alias table and validates it against
// the catalog. A dangling resort id or an underpopulated group label is a
// defect and aborts startup.
func LoadAliasTable(catalog *Catalog) (*AliasTable, error) {
	var table AliasTable
	if err := json.Unmarshal(aliasesJSON, &table); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}
	if err := table.bind(catalog); err != nil {
		return nil, err
	}
	return &table, nil
}

// NewAliasTable builds a table from explicit data. Used by tests.
func NewAliasTable(catalog *Catalog, entries []*AliasEntry, groups []*GroupLabel, lexicon *MatcherLexicon) (*AliasTable, error) {
	table := &AliasTable{Entries: entries, Groups: groups, Lexicon: lexicon}
	if err := table.bind(catalog); err != nil {
		return nil, err
	}
	return table, nil
}

func (t *AliasTable) bind(catalog *Catalog) error {
	if catalog == nil {
		return fmt.Errorf("alias table requires a catalog")
	}
	t.catalog = catalog
	if t.Lexicon == nil {
		t.Lexicon = &MatcherLexicon{}
	}

	t.byResortID = make(map[string]*AliasEntry, len(t.Entries))
	for _, entry := range t.Entries {
		if catalog.FindByID(entry.ResortID) == nil {
			return fmt.Errorf("alias entry references unknown resort id: %s", entry.ResortID)
		}
		if len(entry.Aliases) == 0 {
			return fmt.Errorf("alias entry for %s has no aliases", entry.ResortID)
		}
		if entry.Priority == 0 {
			entry.Priority = DefaultAliasPriority
		}
		t.byResortID[entry.ResortID] = entry
	}

	for _, group := range t.Groups {
		if group.Label == "" || group.GroupKey == "" {
			return fmt.Errorf("group label entries need both label and groupKey")
		}
		if members := catalog.MembersOfGroup(group.GroupKey); len(members) < 2 {
			return fmt.Errorf("group label %q has fewer than two members", group.Label)
		}
	}

	return nil
}

// AliasesFor returns the ranked alias list for a resort, never empty.
// Curated aliases come first (index 0 keeps its exact-match bonus), then
// the catalog name variants so every entity stays matchable by its full
// canonical name. Without a curated entry the canonical name leads and a
// suffix-stripped short form follows when it is meaningful on its own.
func (t *AliasTable) AliasesFor(resortID string) []string {
	resort := t.catalog.FindByID(resortID)
	if resort == nil {
		return nil
	}

	var aliases []string
	seen := make(map[string]struct{})
	add := func(alias string) {
		key := strings.ToLower(strings.TrimSpace(alias))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		aliases = append(aliases, alias)
	}

	if entry := t.byResortID[resortID]; entry != nil {
		for _, alias := range entry.Aliases {
			add(alias)
		}
	} else {
		canonical := resort.PrimaryName()
		add(canonical)
		if short := t.DeriveShortName(canonical); short != canonical && utf8.RuneCountInString(short) >= 2 {
			add(short)
		}
	}

	for _, variant := range resort.NameVariants() {
		add(variant)
		if short := t.DeriveShortName(variant); short != variant && utf8.RuneCountInString(short) >= 2 {
			add(short)
		}
	}

	return aliases
}

// PriorityFor returns the tie-break weight for a resort.
func (t *AliasTable) PriorityFor(resortID string) int {
	if entry := t.byResortID[resortID]; entry != nil {
		return entry.Priority
	}
	return DefaultAliasPriority
}

// DeriveShortName strips generic suffix qualifiers (repeatedly, so
// 白馬八方尾根滑雪場 loses only the qualifier while 志賀高原滑雪場 can lose
// both 滑雪場 and 高原) and trims whitespace.
func (t *AliasTable) DeriveShortName(name string) string {
	short := strings.TrimSpace(name)
	for {
		stripped := short
		for _, suffix := range t.Lexicon.SuffixTokens {
			if suffix == "" {
				continue
			}
			trimmed := strings.TrimSuffix(stripped, suffix)
			if trimmed != stripped && utf8.RuneCountInString(trimmed) >= 2 {
				stripped = strings.TrimSpace(trimmed)
			}
		}
		if stripped == short {
			return short
		}
		short = stripped
	}
}

// GroupLabels returns the configured group labels.
func (t *AliasTable) GroupLabels() []*GroupLabel {
	return t.Groups
}
