package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/bridge"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func mustDate(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseEventPrefixedMessage(t *testing.T) {
	ma := NewMessageAdapter("!")

	chat := ma.ParseEvent(&bridge.Event{
		Msg:    "!我要去二世谷 12月15日到20日",
		Room:   "room1",
		Sender: strPtr("alice"),
	})

	require.NotNil(t, chat)
	require.Equal(t, "room1", chat.Room)
	require.Equal(t, "alice", chat.Sender)
	require.Equal(t, "我要去二世谷 12月15日到20日", chat.Message)
	require.Equal(t, "room1:alice", chat.SessionKey())
}

func TestParseEventIgnoresUnprefixed(t *testing.T) {
	ma := NewMessageAdapter("!")

	require.Nil(t, ma.ParseEvent(&bridge.Event{
		Msg:    "早安",
		Room:   "room1",
		Sender: strPtr("alice"),
	}))
}

func TestParseEventIgnoresIncomplete(t *testing.T) {
	ma := NewMessageAdapter("!")

	require.Nil(t, ma.ParseEvent(nil))
	require.Nil(t, ma.ParseEvent(&bridge.Event{Msg: "!hi", Room: "room1"}))
	require.Nil(t, ma.ParseEvent(&bridge.Event{Msg: "!", Room: "room1", Sender: strPtr("alice")}))
}

func TestParseEventPrefersExtendedPayload(t *testing.T) {
	ma := NewMessageAdapter("!")

	chat := ma.ParseEvent(&bridge.Event{
		Msg:    "!old text",
		Room:   "fallback-room",
		Sender: strPtr("fallback-sender"),
		JSON: &bridge.EventJSON{
			UserID:      "alice",
			Message:     "!想去留壽都",
			ChatID:      "chat42",
			RoomName:    "滑雪團",
			IsGroupChat: true,
		},
	})

	require.NotNil(t, chat)
	require.Equal(t, "chat42", chat.Room)
	require.Equal(t, "滑雪團", chat.RoomName)
	require.Equal(t, "alice", chat.Sender)
	require.True(t, chat.IsGroupChat)
	require.Equal(t, "想去留壽都", chat.Message)
}

func TestParseEventSanitizesInput(t *testing.T) {
	ma := NewMessageAdapter("!")

	chat := ma.ParseEvent(&bridge.Event{
		Msg:    "!\x01二世谷\x02",
		Room:   "room1",
		Sender: strPtr("alice"),
	})
	require.NotNil(t, chat)
	require.Equal(t, "二世谷", chat.Message)

	long := "!" + strings.Repeat("雪", 600)
	chat = ma.ParseEvent(&bridge.Event{Msg: long, Room: "room1", Sender: strPtr("alice")})
	require.NotNil(t, chat)
	require.Equal(t, 500, len([]rune(chat.Message)))
}

func TestFormatDirectives(t *testing.T) {
	f := NewResponseFormatter()

	ask := f.FormatDirective(&domain.Directive{Kind: domain.DirectiveAskResort})
	require.Contains(t, ask, "哪個雪場")

	askList := f.FormatDirective(&domain.Directive{
		Kind: domain.DirectiveAskResort,
		Candidates: []*domain.MatchCandidate{
			{ResortID: "hakuba-happo", Name: "白馬八方尾根滑雪場"},
			{ResortID: "hakuba-goryu", Name: "白馬五龍滑雪場"},
		},
	})
	require.Contains(t, askList, "1. 白馬八方尾根滑雪場")
	require.Contains(t, askList, "2. 白馬五龍滑雪場")

	askDate := f.FormatDirective(&domain.Directive{Kind: domain.DirectiveAskDate})
	require.Contains(t, askDate, "什麼時候出發")

	askEnd := f.FormatDirective(&domain.Directive{Kind: domain.DirectiveAskDate, NeedEndDate: true})
	require.Contains(t, askEnd, "哪一天回來")
}

func TestFormatConfirmSummary(t *testing.T) {
	f := NewResponseFormatter()

	msg := f.FormatDirective(&domain.Directive{
		Kind:   domain.DirectiveConfirm,
		Resort: &domain.MatchCandidate{ResortID: "niseko-united", Name: "二世谷滑雪場"},
		Dates: domain.NewDateRange(
			mustDate(2026, 12, 15),
			mustDate(2026, 12, 20),
		),
	})

	require.Contains(t, msg, "二世谷滑雪場")
	require.Contains(t, msg, "2026/12/15")
	require.Contains(t, msg, "2026/12/20")
	require.Contains(t, msg, "5 天")
	require.Contains(t, msg, "確認")
}

func TestFormatNilDirective(t *testing.T) {
	f := NewResponseFormatter()
	require.Equal(t, f.FormatError(), f.FormatDirective(nil))
}
