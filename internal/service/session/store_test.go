package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog, err := domain.LoadCatalog()
	require.NoError(t, err)

	return NewStoreWithClient(client, catalog, time.Minute, zap.NewNop()), mr
}

func sampleContext(catalog *domain.Catalog) *domain.ConversationContext {
	resort := catalog.FindByID("niseko-united")
	conv := domain.NewConversationContext("room1:alice")
	conv.State = domain.StateAwaitingDate
	conv.Slots.Resort = &domain.MatchCandidate{
		ResortID:   resort.ID,
		Name:       resort.PrimaryName(),
		Confidence: 1.0,
		Priority:   8,
		Resort:     resort,
	}
	return conv
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	conv := sampleContext(store.catalog)
	require.NoError(t, store.Save(ctx, conv))

	loaded, err := store.Get(ctx, "room1:alice")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, domain.StateAwaitingDate, loaded.State)
	require.Equal(t, "niseko-united", loaded.Slots.Resort.ResortID)

	// The entity pointer is not serialized; it comes back rehydrated from
	// the catalog.
	require.NotNil(t, loaded.Slots.Resort.Resort)
	require.Equal(t, "niseko-united", loaded.Slots.Resort.Resort.ID)
}

func TestStoreGetUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	conv := sampleContext(store.catalog)
	require.NoError(t, store.Save(ctx, conv))
	require.NoError(t, store.Delete(ctx, conv.SessionID))

	loaded, err := store.Get(ctx, conv.SessionID)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestStoreTTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	conv := sampleContext(store.catalog)
	require.NoError(t, store.Save(ctx, conv))

	mr.FastForward(2 * time.Minute)

	loaded, err := store.Get(ctx, conv.SessionID)
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestStoreClearsUnknownResort(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	// Simulate a session written against an older catalog.
	require.NoError(t, mr.Set(sessionKey("stale"), `{"sessionId":"stale","state":"awaiting_date","slots":{"resort":{"resortId":"gone-resort","name":"Gone","confidence":1,"priority":5}}}`))

	loaded, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Nil(t, loaded.Slots.Resort)
}

func TestStoreDatesSurviveSerialization(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	conv := sampleContext(store.catalog)
	conv.Slots.Dates = domain.NewDateRange(
		time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, store.Save(ctx, conv))

	loaded, err := store.Get(ctx, conv.SessionID)
	require.NoError(t, err)
	require.Equal(t, 5, loaded.Slots.Dates.DurationDays)
	require.True(t, loaded.Slots.Dates.Start.Equal(conv.Slots.Dates.Start))
}
