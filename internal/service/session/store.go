package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "trip:session:"

// Config mirrors the Redis connection settings.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// Store persists ConversationContexts in Redis, one key per session, with
// a sliding TTL. Stored candidates carry only the resort id; the entity
// pointer is rehydrated from the catalog on load, so a catalog swap never
// leaves sessions pointing at stale entities.
type Store struct {
	client  *redis.Client
	catalog *domain.Catalog
	ttl     time.Duration
	logger  *zap.Logger
}

func NewStore(cfg Config, catalog *domain.Catalog, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewStoreError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Session store connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return NewStoreWithClient(client, catalog, cfg.TTL, logger), nil
}

// NewStoreWithClient wraps an existing client. Tests hand in a miniredis
// connection here.
func NewStoreWithClient(client *redis.Client, catalog *domain.Catalog, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		client:  client,
		catalog: catalog,
		ttl:     ttl,
		logger:  logger,
	}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Get loads a session context, or nil when the session is unknown or
// expired (a fresh conversation, not an error).
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.ConversationContext, error) {
	value, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Session load failed", zap.String("session", sessionID), zap.Error(err))
		return nil, errors.NewStoreError("get failed", "get", sessionID, err)
	}

	var conv domain.ConversationContext
	if err := json.Unmarshal([]byte(value), &conv); err != nil {
		s.logger.Error("Session unmarshal failed", zap.String("session", sessionID), zap.Error(err))
		return nil, errors.NewStoreError("unmarshal failed", "get", sessionID, err)
	}

	s.rehydrate(&conv)
	return &conv, nil
}

// Save writes the context back with a fresh TTL.
func (s *Store) Save(ctx context.Context, conv *domain.ConversationContext) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return errors.NewStoreError("marshal failed", "save", conv.SessionID, err)
	}

	if err := s.client.Set(ctx, sessionKey(conv.SessionID), data, s.ttl).Err(); err != nil {
		s.logger.Error("Session save failed", zap.String("session", conv.SessionID), zap.Error(err))
		return errors.NewStoreError("set failed", "save", conv.SessionID, err)
	}
	return nil
}

// Delete drops a session, typically once it reaches a terminal state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		s.logger.Error("Session delete failed", zap.String("session", sessionID), zap.Error(err))
		return errors.NewStoreError("delete failed", "delete", sessionID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// rehydrate re-attaches catalog entity pointers to stored candidates. A
// candidate whose resort id no longer exists is dropped so the machine
// re-asks instead of creating a trip against a ghost entity.
func (s *Store) rehydrate(conv *domain.ConversationContext) {
	if conv.Slots == nil {
		conv.Slots = &domain.TripSlots{}
	}
	s.rehydrateSlots(conv.Slots)
	if conv.History != nil {
		s.rehydrateSlots(conv.History)
	}
}

func (s *Store) rehydrateSlots(slots *domain.TripSlots) {
	if slots.Resort == nil {
		return
	}
	resort := s.catalog.FindByID(slots.Resort.ResortID)
	if resort == nil {
		s.logger.Warn("Stored session references unknown resort, clearing slot",
			zap.String("resort_id", slots.Resort.ResortID),
		)
		slots.Resort = nil
		return
	}
	slots.Resort.Resort = resort
}
