package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EventType is a realtime event name.
type EventType string

const (
	// Outbound
	EventConversationJoin  EventType = "conversation:join"
	EventConversationLeave EventType = "conversation:leave"
	EventMessageSend       EventType = "message:send"
	EventTypingStart       EventType = "typing:start"
	EventTypingStop        EventType = "typing:stop"
	EventMessageRead       EventType = "message:read"

	// Inbound
	EventMessageReceive  EventType = "message:receive"
	EventTypingUpdate    EventType = "typing:update"
	EventMessageReadDone EventType = "message:readDone"
	EventUserStatus      EventType = "user:status"
)

// WireID is an identifier that the backend may encode as a JSON string or number.
type WireID string

func (id *WireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = WireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = WireID(n.String())
	return nil
}

// SendPayload is emitted with message:send.
type SendPayload struct {
	TempID    string `json:"tempId"`
	ChatID    string `json:"chatId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// TypingPayload is emitted with typing:start and typing:stop.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ReadPayload is emitted with message:read and received with message:readDone.
type ReadPayload struct {
	ChatID    WireID `json:"chatId"`
	UserID    WireID `json:"userId"`
	MessageID WireID `json:"messageId"`
}

// ReceivePayload is the body of message:receive.
type ReceivePayload struct {
	ChatID  WireID      `json:"chatId"`
	TempID  string      `json:"tempId"`
	Message WireMessage `json:"message"`
}

// Chat returns the conversation the payload belongs to.
func (p ReceivePayload) Chat() string {
	if p.ChatID != "" {
		return string(p.ChatID)
	}
	return string(p.Message.ChatID)
}

// TypingSignal is the body of typing:update.
type TypingSignal struct {
	ChatID   WireID    `json:"chatId"`
	UserID   WireID    `json:"userId"`
	Username string    `json:"username"`
	IsTyping bool      `json:"isTyping"`
	At       time.Time `json:"-"`
}

// UserStatusPayload is the body of user:status.
type UserStatusPayload struct {
	UserID WireID     `json:"userId"`
	Status UserStatus `json:"status"`
}

// WireMessage is a message as the backend serializes it, over HTTP or the socket.
type WireMessage struct {
	ID        WireID      `json:"id"`
	MongoID   WireID      `json:"_id"`
	ChatID    WireID      `json:"chatId"`
	Sender    Participant `json:"sender"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"createdAt"`
	Timestamp string      `json:"timestamp"`
}

// ServerID returns the persisted id, whichever field carried it.
func (m WireMessage) ServerID() string {
	if m.ID != "" {
		return string(m.ID)
	}
	return string(m.MongoID)
}

// Time parses the creation time; a zero time is returned when absent or malformed.
func (m WireMessage) Time() time.Time {
	for _, raw := range []string{m.CreatedAt, m.Timestamp} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t
		}
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
	}
	return time.Time{}
}

// ChatRecord is a conversation as returned by chats/all and chats/create.
type ChatRecord struct {
	ID           WireID        `json:"_id"`
	Type         string        `json:"type,omitempty"`
	GroupName    string        `json:"groupName,omitempty"`
	Participants []Participant `json:"participants"`
	LastMessages []WireMessage `json:"lastMessages"`
}
