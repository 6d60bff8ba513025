package domain

import "time"

// ChatContext describes one inbound chat message as seen by the bot.
type ChatContext struct {
	Room        string
	RoomName    string
	Sender      string
	IsGroupChat bool
	Message     string
	Timestamp   time.Time
}

func NewChatContext(room, roomName, sender, message string, isGroupChat bool) *ChatContext {
	return &ChatContext{
		Room:        room,
		RoomName:    roomName,
		Sender:      sender,
		IsGroupChat: isGroupChat,
		Message:     message,
		Timestamp:   time.Now(),
	}
}

// SessionKey identifies the conversation a message belongs to. One session
// per room+sender pair keeps group chats from sharing accumulated slots.
func (c *ChatContext) SessionKey() string {
	return c.Room + ":" + c.Sender
}
