package app

import (
	"context"
	"fmt"

	"github.com/kaede/ski-trip-bot-go/internal/adapter"
	"github.com/kaede/ski-trip-bot-go/internal/bot"
	"github.com/kaede/ski-trip-bot-go/internal/bridge"
	"github.com/kaede/ski-trip-bot-go/internal/config"
	"github.com/kaede/ski-trip-bot-go/internal/constants"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/metric"
	"github.com/kaede/ski-trip-bot-go/internal/server"
	"github.com/kaede/ski-trip-bot-go/internal/service/conversation"
	"github.com/kaede/ski-trip-bot-go/internal/service/dateparse"
	"github.com/kaede/ski-trip-bot-go/internal/service/resolver"
	"github.com/kaede/ski-trip-bot-go/internal/service/session"
	"github.com/kaede/ski-trip-bot-go/internal/service/trip"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing runtime components.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metric.Metrics

	catalog   *domain.Catalog
	resolver  *resolver.Resolver
	extractor *dateparse.Extractor
	botDeps   *bot.Dependencies
	closers   []func()
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*bot.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return bot.NewBot(c.botDeps)
}

// NewServer builds the HTTP surface around an assembled bot.
func (c *Container) NewServer(turns server.TurnRunner) *server.Server {
	return server.New(turns, c.resolver, c.extractor, c.catalog, c.Metrics, c.Logger)
}

// Close tears down held connections, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles all infrastructure services and returns a container
// capable of creating fully-wired bots. Heavy-weight initialization
// (Redis, Postgres) happens here so bot.NewBot stays focused on
// orchestration logic.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Domain data
	catalog, err := domain.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load resort catalog: %w", err)
	}
	aliases, err := domain.LoadAliasTable(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias table: %w", err)
	}
	logger.Info("Resort catalog loaded",
		zap.Int("resorts", len(catalog.Resorts)),
		zap.String("version", catalog.Version),
	)

	metrics := metric.New()

	// Core services
	resolverSvc := resolver.New(catalog, aliases, resolver.DefaultConfig(), logger)
	extractor := dateparse.New(logger)
	engine := conversation.NewEngine(resolverSvc, extractor, metrics, logger)

	// Messaging primitives
	bridgeClient := bridge.NewClient(cfg.Bridge.BaseURL, logger)
	bridgeWS := bridge.NewWebSocket(
		cfg.Bridge.WSURL,
		constants.WebSocketConfig.MaxReconnectAttempts,
		constants.WebSocketConfig.ReconnectDelay,
		logger,
	)
	messageAdapter := adapter.NewMessageAdapter(cfg.Bot.Prefix)
	formatter := adapter.NewResponseFormatter()

	// Stores
	sessions, err := session.NewStore(session.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.SessionTTL,
	}, catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	closers = append(closers, func() {
		_ = sessions.Close()
	})

	trips, err := trip.NewPostgresStore(trip.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip store: %w", err)
	}
	closers = append(closers, func() {
		_ = trips.Close()
	})

	deps := &bot.Dependencies{
		Config:         cfg,
		Logger:         logger,
		BridgeClient:   bridgeClient,
		BridgeWS:       bridgeWS,
		MessageAdapter: messageAdapter,
		Formatter:      formatter,
		Engine:         engine,
		Sessions:       sessions,
		Trips:          trips,
	}

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		catalog:   catalog,
		resolver:  resolverSvc,
		extractor: extractor,
		botDeps:   deps,
		closers:   closers,
	}, nil
}
