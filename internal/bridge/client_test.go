package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendMessage(t *testing.T) {
	var received ReplyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reply", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	require.NoError(t, c.SendMessage(context.Background(), "room1", "⛷️ 行程已建立"))

	require.Equal(t, "text", received.Type)
	require.Equal(t, "room1", received.Room)
	require.Equal(t, "⛷️ 行程已建立", received.Data)
}

func TestSendMessageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.SendMessage(context.Background(), "room1", "hi")
	require.Error(t, err)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, c.SendMessage(ctx, "room1", "hi"))
	}

	// Breaker is open now; the send is shed without reaching the server.
	require.False(t, c.breaker.CanExecute())
	require.Error(t, c.SendMessage(ctx, "room1", "hi"))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	require.True(t, c.Ping(context.Background()))

	srv.Close()
	require.False(t, c.Ping(context.Background()))
}
