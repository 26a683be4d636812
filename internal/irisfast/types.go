package irisfast

import "strings"

// WebSocketState is the lifecycle state of the ingress connection.
type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

func (s WebSocketState) String() string { return string(s) }

// MessageJSON is the raw chat log row Iris attaches to a message.
type MessageJSON struct {
	UserID   string `json:"user_id"`
	ChatID   string `json:"chat_id"`
	Message  string `json:"message"`
	LogID    string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Attached string `json:"attachment,omitempty"`
}

// Message is one incoming chat message.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

// UserID prefers the chat log id over the display name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && strings.TrimSpace(m.JSON.UserID) != "" {
		return strings.TrimSpace(m.JSON.UserID)
	}
	if m.Sender != nil {
		return strings.TrimSpace(*m.Sender)
	}
	return ""
}

// ReplyRequest is the body of POST /reply and of WS reply frames.
// Data is the text, or the base64 image for Type "image".
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}
