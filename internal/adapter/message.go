package adapter

import (
	"regexp"
	"strings"

	"github.com/kaede/ski-trip-bot-go/internal/bridge"
	"github.com/kaede/ski-trip-bot-go/internal/constants"
	"github.com/kaede/ski-trip-bot-go/internal/domain"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// MessageAdapter turns raw bridge events into chat contexts the bot can
// hand to the conversation machine. Messages must carry the configured
// prefix; everything else in the room is ignored.
type MessageAdapter struct {
	prefix string
}

// NewMessageAdapter creates a new MessageAdapter
func NewMessageAdapter(prefix string) *MessageAdapter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	return &MessageAdapter{prefix: prefix}
}

// ParseEvent extracts the chat context from a bridge event, or nil when
// the event is not addressed to the bot.
func (ma *MessageAdapter) ParseEvent(event *bridge.Event) *domain.ChatContext {
	if event == nil {
		return nil
	}

	text := strings.TrimSpace(event.Msg)
	room := event.Room
	roomName := room
	sender := ""
	isGroup := false

	if event.Sender != nil {
		sender = *event.Sender
	}
	if event.JSON != nil {
		if event.JSON.Message != "" {
			text = strings.TrimSpace(event.JSON.Message)
		}
		if event.JSON.ChatID != "" {
			room = event.JSON.ChatID
		}
		if event.JSON.RoomName != "" {
			roomName = event.JSON.RoomName
		}
		if event.JSON.UserID != "" {
			sender = event.JSON.UserID
		}
		isGroup = event.JSON.IsGroupChat
	}

	if text == "" || room == "" || sender == "" {
		return nil
	}

	if !strings.HasPrefix(text, ma.prefix) {
		return nil
	}

	utterance := sanitize(strings.TrimSpace(text[len(ma.prefix):]))
	if utterance == "" {
		return nil
	}

	return domain.NewChatContext(room, roomName, sender, utterance, isGroup)
}

// sanitize strips control characters and caps the utterance length before
// it reaches the matcher.
func sanitize(text string) string {
	text = controlCharsPattern.ReplaceAllString(text, "")
	runes := []rune(text)
	if len(runes) > constants.InputLimits.MaxUtteranceRunes {
		runes = runes[:constants.InputLimits.MaxUtteranceRunes]
	}
	return strings.TrimSpace(string(runes))
}
