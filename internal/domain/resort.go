package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// ResortEntity is one catalog item: a single ski area with a stable id and
// one display name per language tag. The zh name is the primary script.
type ResortEntity struct {
	ID       string            `json:"id"`
	Names    map[string]string `json:"names"`
	GroupKey string            `json:"groupKey,omitempty"`
}

// PrimaryName returns the zh display name, falling back to ja then en.
func (r *ResortEntity) PrimaryName() string {
	for _, lang := range []string{"zh", "ja", "en"} {
		if name := r.Names[lang]; name != "" {
			return name
		}
	}
	return r.ID
}

// NameVariants returns every non-empty display name in a stable order.
func (r *ResortEntity) NameVariants() []string {
	variants := make([]string, 0, len(r.Names))
	for _, lang := range []string{"zh", "ja", "en"} {
		if name := r.Names[lang]; name != "" {
			variants = append(variants, name)
		}
	}
	return variants
}

// Catalog holds the ordered resort entities. It is loaded once at startup
// and treated as immutable afterwards; replacing it means swapping the
// whole pointer, never mutating entities in place.
type Catalog struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
	Resorts     []*ResortEntity `json:"resorts"`

	byID map[string]*ResortEntity
}

//go:embed data/resorts.json
var resortsJSON []byte

// LoadCatalog parses the embedded catalog and builds lookup indexes.
// An empty catalog is a defect and fails here, before any conversation runs.
func LoadCatalog() (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(resortsJSON, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse resort catalog: %w", err)
	}
	if err := catalog.buildIndex(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// NewCatalog builds a catalog from an explicit entity list. Used by tests
// and by the import tool; production code loads the embedded data.
func NewCatalog(resorts []*ResortEntity) (*Catalog, error) {
	catalog := &Catalog{Resorts: resorts}
	if err := catalog.buildIndex(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (c *Catalog) buildIndex() error {
	if len(c.Resorts) == 0 {
		return fmt.Errorf("resort catalog has no entities")
	}

	c.byID = make(map[string]*ResortEntity, len(c.Resorts))
	for _, resort := range c.Resorts {
		if resort.ID == "" {
			return fmt.Errorf("resort entity with empty id")
		}
		if resort.PrimaryName() == resort.ID && len(resort.Names) == 0 {
			return fmt.Errorf("resort %s has no names", resort.ID)
		}
		if _, exists := c.byID[resort.ID]; exists {
			return fmt.Errorf("duplicate resort id: %s", resort.ID)
		}
		c.byID[resort.ID] = resort
	}
	return nil
}

func (c *Catalog) FindByID(id string) *ResortEntity {
	return c.byID[id]
}

// MembersOfGroup returns all entities sharing the group key, in catalog order.
func (c *Catalog) MembersOfGroup(groupKey string) []*ResortEntity {
	if groupKey == "" {
		return nil
	}
	members := make([]*ResortEntity, 0, 4)
	for _, resort := range c.Resorts {
		if resort.GroupKey == groupKey {
			members = append(members, resort)
		}
	}
	return members
}
