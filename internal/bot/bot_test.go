package bot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kaede/ski-trip-bot-go/internal/adapter"
	"github.com/kaede/ski-trip-bot-go/internal/bridge"
	"github.com/kaede/ski-trip-bot-go/internal/config"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/metric"
	"github.com/kaede/ski-trip-bot-go/internal/service/conversation"
	"github.com/kaede/ski-trip-bot-go/internal/service/dateparse"
	"github.com/kaede/ski-trip-bot-go/internal/service/resolver"
	"github.com/kaede/ski-trip-bot-go/internal/service/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTripStore struct {
	trips []*domain.Trip
	err   error
}

func (f *fakeTripStore) Create(_ context.Context, t *domain.Trip) error {
	if f.err != nil {
		return f.err
	}
	f.trips = append(f.trips, t)
	return nil
}

func newTestBot(t *testing.T) (*Bot, *fakeTripStore, *session.Store) {
	t.Helper()

	catalog, err := domain.LoadCatalog()
	require.NoError(t, err)
	aliases, err := domain.LoadAliasTable(catalog)
	require.NoError(t, err)

	logger := zap.NewNop()
	res := resolver.New(catalog, aliases, resolver.DefaultConfig(), logger)
	extractor := dateparse.NewWithClock(logger, func() time.Time {
		return time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	})
	engine := conversation.NewEngine(res, extractor, metric.New(), logger)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := session.NewStoreWithClient(client, catalog, time.Minute, logger)

	trips := &fakeTripStore{}

	cfg := &config.Config{Bot: config.BotConfig{Prefix: "!"}}
	b, err := NewBot(&Dependencies{
		Config:         cfg,
		Logger:         logger,
		BridgeClient:   bridge.NewClient("http://localhost:0", logger),
		BridgeWS:       bridge.NewWebSocket("ws://localhost:0/ws", 1, time.Millisecond, logger),
		MessageAdapter: adapter.NewMessageAdapter("!"),
		Formatter:      adapter.NewResponseFormatter(),
		Engine:         engine,
		Sessions:       sessions,
		Trips:          trips,
	})
	require.NoError(t, err)
	return b, trips, sessions
}

func TestProcessTurnPersistsSession(t *testing.T) {
	b, trips, sessions := newTestBot(t)
	ctx := context.Background()

	conv, directive, err := b.ProcessTurn(ctx, "room1:alice", "想去二世谷")
	require.NoError(t, err)
	require.Equal(t, domain.StateAwaitingDate, conv.State)
	require.Equal(t, domain.DirectiveAskDate, directive.Kind)
	require.Empty(t, trips.trips)

	stored, err := sessions.Get(ctx, "room1:alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "niseko-united", stored.Slots.Resort.ResortID)
}

func TestProcessTurnAcrossStoredSessions(t *testing.T) {
	b, trips, _ := newTestBot(t)
	ctx := context.Background()

	_, _, err := b.ProcessTurn(ctx, "room1:alice", "想去留壽都")
	require.NoError(t, err)

	conv, directive, err := b.ProcessTurn(ctx, "room1:alice", "12月10日到14日")
	require.NoError(t, err)
	require.Equal(t, domain.StateReadyToCreate, conv.State)
	require.Equal(t, domain.DirectiveConfirm, directive.Kind)
	require.Empty(t, trips.trips)
}

func TestProcessTurnCreatesTripAndDropsSession(t *testing.T) {
	b, trips, sessions := newTestBot(t)
	ctx := context.Background()

	_, _, err := b.ProcessTurn(ctx, "room1:alice", "二世谷 12月15日到20日")
	require.NoError(t, err)

	conv, directive, err := b.ProcessTurn(ctx, "room1:alice", "確認")
	require.NoError(t, err)
	require.Equal(t, domain.StateTripCreated, conv.State)
	require.Equal(t, domain.DirectiveCreateTrip, directive.Kind)

	require.Len(t, trips.trips, 1)
	created := trips.trips[0]
	require.Equal(t, "room1:alice", created.SessionID)
	require.Equal(t, "niseko-united", created.ResortID)
	require.Equal(t, time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC), created.StartDate)

	stored, err := sessions.Get(ctx, "room1:alice")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestProcessTurnRetriedConfirmationInsertsOnce(t *testing.T) {
	b, trips, sessions := newTestBot(t)
	ctx := context.Background()

	catalog, err := domain.LoadCatalog()
	require.NoError(t, err)
	resort := catalog.FindByID("niseko-united")

	// A finished session left behind, as after a failed post-create
	// cleanup. The redelivered confirmation must not write a second row.
	conv := domain.NewConversationContext("room1:alice")
	conv.State = domain.StateTripCreated
	conv.Slots.Resort = &domain.MatchCandidate{
		ResortID:   resort.ID,
		Name:       resort.PrimaryName(),
		Confidence: 1.0,
		Resort:     resort,
	}
	conv.Slots.Dates = domain.NewDateRange(
		time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, sessions.Save(ctx, conv))

	next, directive, err := b.ProcessTurn(ctx, "room1:alice", "確認")
	require.NoError(t, err)
	require.Equal(t, domain.StateTripCreated, next.State)
	require.Equal(t, domain.DirectiveCreateTrip, directive.Kind)
	require.Empty(t, trips.trips)

	stored, err := sessions.Get(ctx, "room1:alice")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestProcessTurnSessionsAreIsolated(t *testing.T) {
	b, _, _ := newTestBot(t)
	ctx := context.Background()

	convA, _, err := b.ProcessTurn(ctx, "room1:alice", "想去苗場")
	require.NoError(t, err)
	convB, _, err := b.ProcessTurn(ctx, "room1:bob", "想去藏王")
	require.NoError(t, err)

	require.Equal(t, "naeba", convA.Slots.Resort.ResortID)
	require.Equal(t, "zao", convB.Slots.Resort.ResortID)
}

func TestNewBotRejectsMissingDeps(t *testing.T) {
	_, err := NewBot(nil)
	require.Error(t, err)

	_, err = NewBot(&Dependencies{})
	require.Error(t, err)
}
