package trip

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Store is the external trip-persistence collaborator. The conversation
// core emits one CreateTrip per confirmed conversation and does not retry
// or track the call's outcome.
type Store interface {
	Create(ctx context.Context, t *domain.Trip) error
}

// New builds the trip record handed to persistence.
func New(sessionID, resortID string, dates *domain.DateRange) *domain.Trip {
	return &domain.Trip{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		ResortID:  resortID,
		StartDate: dates.Start,
		EndDate:   dates.End,
		CreatedAt: time.Now().UTC(),
	}
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// PostgresStore persists trips in Postgres.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewStoreError("failed to open postgres", "open", cfg.Database, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStoreError("failed to ping postgres", "ping", cfg.Database, err)
	}

	store := &PostgresStore{db: db, logger: logger}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Trip store connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return store, nil
}

// NewPostgresStoreWithDB wraps an existing handle. Tests hand in sqlmock.
func NewPostgresStoreWithDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS trips (
			id          UUID PRIMARY KEY,
			session_id  TEXT NOT NULL,
			resort_id   TEXT NOT NULL,
			start_date  DATE NOT NULL,
			end_date    DATE NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.NewStoreError("failed to ensure trips schema", "migrate", "trips", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, t *domain.Trip) error {
	const query = `
		INSERT INTO trips (id, session_id, resort_id, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.ExecContext(ctx, query,
		t.ID, t.SessionID, t.ResortID, t.StartDate, t.EndDate, t.CreatedAt,
	); err != nil {
		s.logger.Error("Trip insert failed",
			zap.String("trip_id", t.ID),
			zap.String("resort_id", t.ResortID),
			zap.Error(err),
		)
		return errors.NewStoreError("insert failed", "create", t.ID, err)
	}

	s.logger.Info("Trip created",
		zap.String("trip_id", t.ID),
		zap.String("resort_id", t.ResortID),
		zap.Time("start", t.StartDate),
		zap.Time("end", t.EndDate),
	)
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
