package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/kaede/ski-trip-bot-go/internal/metric"
	"github.com/kaede/ski-trip-bot-go/internal/service/dateparse"
	"github.com/kaede/ski-trip-bot-go/internal/service/resolver"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTurnRunner struct {
	conv      *domain.ConversationContext
	directive *domain.Directive
	err       error
	sessions  []string
}

func (s *stubTurnRunner) ProcessTurn(_ context.Context, sessionID, _ string) (*domain.ConversationContext, *domain.Directive, error) {
	s.sessions = append(s.sessions, sessionID)
	return s.conv, s.directive, s.err
}

func newTestServer(t *testing.T, turns TurnRunner) *Server {
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
	return New(turns, res, extractor, catalog, metric.New(), logger)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubTurnRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubTurnRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTurnEndpoint(t *testing.T) {
	stub := &stubTurnRunner{
		conv: &domain.ConversationContext{SessionID: "api:s1", State: domain.StateAwaitingDate},
		directive: &domain.Directive{
			Kind: domain.DirectiveAskDate,
		},
	}
	srv := newTestServer(t, stub)

	body := strings.NewReader(`{"sessionId":"api:s1","message":"想去二世谷"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/turn", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"api:s1"}, stub.sessions)

	var resp turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, domain.StateAwaitingDate, resp.State)
	require.Equal(t, domain.DirectiveAskDate, resp.Directive.Kind)
}

func TestTurnEndpointValidation(t *testing.T) {
	srv := newTestServer(t, &stubTurnRunner{})

	for _, body := range []string{`{}`, `{"sessionId":"x"}`, `not json`} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/turn", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestResolveEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubTurnRunner{})

	body := strings.NewReader(`{"text":"我要去二世谷滑雪"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/resolve", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, domain.MatchSingle, res.Outcome)
	require.Equal(t, "niseko-united", res.Best.ResortID)
}

func TestDatesEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubTurnRunner{})

	body := strings.NewReader(`{"text":"12月15日到20日"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dates", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.DateExtraction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, domain.ExtractionRange, res.Kind)
	require.Equal(t, 5, res.Range.DurationDays)
}

func TestResortsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubTurnRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/resorts", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resorts []*domain.ResortEntity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resorts))
	require.NotEmpty(t, resorts)
}
