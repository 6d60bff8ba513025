package bridge

// Event is one inbound chat message pushed by the bridge.
type Event struct {
	Msg    string     `json:"msg"`
	Room   string     `json:"room"`
	Sender *string    `json:"sender,omitempty"`
	JSON   *EventJSON `json:"json,omitempty"`
}

// EventJSON carries the bridge's extended payload when present.
type EventJSON struct {
	UserID      string `json:"user_id,omitempty"`
	Message     string `json:"message,omitempty"`
	ChatID      string `json:"chat_id,omitempty"`
	RoomName    string `json:"room_name,omitempty"`
	IsGroupChat bool   `json:"is_group_chat,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ReplyRequest is the outbound message payload.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// WebSocketState tracks the push connection lifecycle.
type WebSocketState string

const (
	WSStateConnecting   WebSocketState = "CONNECTING"
	WSStateConnected    WebSocketState = "CONNECTED"
	WSStateDisconnected WebSocketState = "DISCONNECTED"
	WSStateReconnecting WebSocketState = "RECONNECTING"
	WSStateFailed       WebSocketState = "FAILED"
)

func (s WebSocketState) String() string {
	return string(s)
}
