package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, catalog.Resorts)

	niseko := catalog.FindByID("niseko-united")
	require.NotNil(t, niseko)
	require.Equal(t, "二世谷滑雪場", niseko.PrimaryName())
	require.Len(t, niseko.NameVariants(), 3)

	require.Nil(t, catalog.FindByID("nope"))
}

func TestNewCatalogRejectsDefects(t *testing.T) {
	_, err := NewCatalog(nil)
	require.Error(t, err)

	_, err = NewCatalog([]*ResortEntity{
		{ID: "a", Names: map[string]string{"zh": "甲"}},
		{ID: "a", Names: map[string]string{"zh": "乙"}},
	})
	require.Error(t, err)

	_, err = NewCatalog([]*ResortEntity{
		{ID: "", Names: map[string]string{"zh": "甲"}},
	})
	require.Error(t, err)
}

func TestMembersOfGroup(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	members := catalog.MembersOfGroup("hakuba")
	require.Len(t, members, 3)
	require.Empty(t, catalog.MembersOfGroup(""))
	require.Empty(t, catalog.MembersOfGroup("alps"))
}

func TestAliasTableValidation(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	_, err = NewAliasTable(catalog, []*AliasEntry{
		{ResortID: "ghost", Aliases: []string{"x"}},
	}, nil, nil)
	require.Error(t, err)

	_, err = NewAliasTable(catalog, nil, []*GroupLabel{
		{Label: "孤島", GroupKey: "lonely"},
	}, nil)
	require.Error(t, err)
}

func TestAliasesForFallsBackToNames(t *testing.T) {
	catalog, err := NewCatalog([]*ResortEntity{
		{ID: "plain", Names: map[string]string{"zh": "雪原滑雪場", "en": "Yukihara"}},
	})
	require.NoError(t, err)

	table, err := NewAliasTable(catalog, nil, nil, &MatcherLexicon{
		SuffixTokens: []string{"滑雪場"},
	})
	require.NoError(t, err)

	aliases := table.AliasesFor("plain")
	require.NotEmpty(t, aliases)
	require.Equal(t, "雪原滑雪場", aliases[0])
	require.Contains(t, aliases, "雪原")
	require.Contains(t, aliases, "Yukihara")

	require.Equal(t, DefaultAliasPriority, table.PriorityFor("plain"))
	require.Nil(t, table.AliasesFor("ghost"))
}

func TestTripSlotsCloneAndComplete(t *testing.T) {
	var nilSlots *TripSlots
	clone := nilSlots.Clone()
	require.NotNil(t, clone)
	require.False(t, clone.Complete())

	slots := &TripSlots{
		Resort: &MatchCandidate{ResortID: "naeba"},
	}
	require.False(t, slots.Complete())

	clone = slots.Clone()
	clone.Resort = nil
	require.NotNil(t, slots.Resort)
}

func TestConversationStateTerminal(t *testing.T) {
	require.True(t, StateTripCreated.Terminal())
	for _, s := range []ConversationState{
		StateAwaitingBoth, StateAwaitingResort, StateAwaitingDate,
		StateAmbiguousResort, StateReadyToCreate,
	} {
		require.False(t, s.Terminal())
	}
}
