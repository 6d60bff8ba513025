package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/adapter"
	"github.com/kaede/ski-trip-bot-go/internal/bridge"
	"github.com/kaede/ski-trip-bot-go/internal/config"
	"github.com/kaede/ski-trip-bot-go/internal/constants"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/service/conversation"
	"github.com/kaede/ski-trip-bot-go/internal/service/session"
	"github.com/kaede/ski-trip-bot-go/internal/service/trip"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Dependencies is the pre-built graph the bot orchestrates. Construction of
// the heavy pieces happens in app.Build; NewBot only checks completeness.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	BridgeClient   *bridge.Client
	BridgeWS       *bridge.WebSocket
	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	Engine         *conversation.Engine
	Sessions       *session.Store
	Trips          trip.Store
}

// Bot connects the chat bridge to the conversation machine. Events fan out
// onto a bounded worker pool; turns within one session are serialized so a
// user typing quickly cannot interleave their own conversation.
type Bot struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *bridge.Client
	ws        *bridge.WebSocket
	adapter   *adapter.MessageAdapter
	formatter *adapter.ResponseFormatter
	engine    *conversation.Engine
	sessions  *session.Store
	trips     trip.Store

	rooms        map[string]struct{}
	workers      *pool.Pool
	sessionLocks sync.Map
	unsubscribe  func()
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil {
		return nil, fmt.Errorf("dependencies must not be nil")
	}
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("config must not be nil")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger must not be nil")
	case deps.BridgeClient == nil || deps.BridgeWS == nil:
		return nil, fmt.Errorf("bridge client and websocket must not be nil")
	case deps.Engine == nil:
		return nil, fmt.Errorf("conversation engine must not be nil")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session store must not be nil")
	case deps.Trips == nil:
		return nil, fmt.Errorf("trip store must not be nil")
	}

	rooms := make(map[string]struct{}, len(deps.Config.Chat.Rooms))
	for _, room := range deps.Config.Chat.Rooms {
		rooms[room] = struct{}{}
	}

	return &Bot{
		cfg:       deps.Config,
		logger:    deps.Logger,
		client:    deps.BridgeClient,
		ws:        deps.BridgeWS,
		adapter:   deps.MessageAdapter,
		formatter: deps.Formatter,
		engine:    deps.Engine,
		sessions:  deps.Sessions,
		trips:     deps.Trips,
		rooms:     rooms,
		workers:   pool.New().WithMaxGoroutines(constants.WorkerConfig.MaxConcurrentTurns),
	}, nil
}

// Start subscribes to bridge events and connects the websocket. It returns
// once connected; event handling runs on the worker pool until Shutdown.
func (b *Bot) Start(ctx context.Context) error {
	b.unsubscribe = b.ws.OnEvent(func(event *bridge.Event) {
		b.workers.Go(func() {
			b.handleEvent(ctx, event)
		})
	})

	if err := b.ws.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to bridge: %w", err)
	}

	b.logger.Info("Bot started",
		zap.Int("rooms", len(b.rooms)),
		zap.String("prefix", b.cfg.Bot.Prefix),
	)
	return nil
}

// Shutdown stops event delivery and waits for in-flight turns to drain.
func (b *Bot) Shutdown() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	_ = b.ws.Disconnect()
	b.workers.Wait()
	b.logger.Info("Bot stopped")
}

func (b *Bot) handleEvent(ctx context.Context, event *bridge.Event) {
	chat := b.adapter.ParseEvent(event)
	if chat == nil {
		return
	}

	if len(b.rooms) > 0 {
		if _, ok := b.rooms[chat.Room]; !ok {
			if _, ok := b.rooms[chat.RoomName]; !ok {
				return
			}
		}
	}

	turnCtx, cancel := context.WithTimeout(ctx, constants.WorkerConfig.TurnTimeout)
	defer cancel()

	_, directive, err := b.ProcessTurn(turnCtx, chat.SessionKey(), chat.Message)

	var reply string
	if err != nil {
		b.logger.Error("Turn failed",
			zap.String("session", chat.SessionKey()),
			zap.Error(err),
		)
		reply = b.formatter.FormatError()
	} else {
		reply = b.formatter.FormatDirective(directive)
	}

	if sendErr := b.client.SendMessage(turnCtx, chat.Room, reply); sendErr != nil {
		b.logger.Error("Reply delivery failed",
			zap.String("room", chat.Room),
			zap.Error(sendErr),
		)
	}
}

// ProcessTurn runs one utterance through the conversation machine against
// the stored session, persisting the outcome. A create_trip directive is
// executed here: the trip is written and the session discarded.
func (b *Bot) ProcessTurn(ctx context.Context, sessionID, utterance string) (*domain.ConversationContext, *domain.Directive, error) {
	unlock := b.lockSession(sessionID)
	defer unlock()

	conv, err := b.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		conv = domain.NewConversationContext(sessionID)
	}

	next, directive := b.engine.Turn(conv, utterance)

	if directive.Kind == domain.DirectiveCreateTrip {
		// A stored terminal session means the trip row was already written
		// on a previous delivery; only a fresh confirmation inserts.
		if !conv.State.Terminal() {
			record := trip.New(sessionID, directive.Resort.ResortID, directive.Dates)
			if err := b.trips.Create(ctx, record); err != nil {
				return nil, nil, err
			}
		}
		if err := b.sessions.Delete(ctx, sessionID); err != nil {
			b.logger.Warn("Failed to drop finished session",
				zap.String("session", sessionID),
				zap.Error(err),
			)
			// Keep the finished state on record so a redelivered
			// confirmation cannot insert a second trip.
			if saveErr := b.sessions.Save(ctx, next); saveErr != nil {
				b.logger.Warn("Failed to persist finished session",
					zap.String("session", sessionID),
					zap.Error(saveErr),
				)
			}
		}
		return next, directive, nil
	}

	if err := b.sessions.Save(ctx, next); err != nil {
		return nil, nil, err
	}
	return next, directive, nil
}

func (b *Bot) lockSession(sessionID string) func() {
	muIface, _ := b.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Ping verifies the reply path to the bridge is up.
func (b *Bot) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return b.client.Ping(pingCtx)
}
