package models

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotConnected   = errors.New("realtime connection is not established")
	ErrNoConversation = errors.New("no conversation selected")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoSession      = errors.New("not logged in")
)

type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusOffline UserStatus = "offline"
)

type FriendStatus string

const (
	FriendStatusNone            FriendStatus = "none"
	FriendStatusPendingSent     FriendStatus = "pending-sent"
	FriendStatusPendingReceived FriendStatus = "pending-received"
	FriendStatusAccepted        FriendStatus = "accepted"
)

// Pending reports whether the relation is an unanswered request, regardless of side.
func (s FriendStatus) Pending() bool {
	return s == FriendStatusPendingSent || s == FriendStatusPendingReceived
}

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

// Participant is a member of a conversation as the backend reports it.
type Participant struct {
	User     string     `json:"user"`
	Username string     `json:"username"`
	Status   UserStatus `json:"status,omitempty"`
}

// Message is a chat message as held in a local thread.
type Message struct {
	ID        string      `json:"id"`
	TempID    string      `json:"tempId,omitempty"`
	Sender    Participant `json:"sender"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	IsMine    bool        `json:"isMine"`
	Read      bool        `json:"read"`
	Pending   bool        `json:"pending,omitempty"` // optimistic, not yet echoed by the server
}

// Conversation is a chat as presented to the session user.
type Conversation struct {
	ID           string           `json:"id"`
	Type         ConversationType `json:"type"`
	GroupName    string           `json:"groupName,omitempty"`
	Participants []Participant    `json:"participants"`
	Target       Participant      `json:"target"` // the other party
	LastMessage  string           `json:"lastMessage"`
	Messages     []Message        `json:"messages,omitempty"`
}

// People is a user as listed by the users and friends endpoints.
type People struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	ProfileImage string       `json:"profileImage,omitempty"`
	Status       UserStatus   `json:"status,omitempty"`
	Location     string       `json:"location,omitempty"`
	Bio          string       `json:"bio,omitempty"`
	FriendStatus FriendStatus `json:"friendStatus,omitempty"`
}

// Friend is a relation record between the requester (User) and the addressee (Target).
type Friend struct {
	ID     string       `json:"id"`
	User   People       `json:"user"`
	Target People       `json:"target"`
	Status FriendStatus `json:"status"`
}

// Profile is the session user's own record.
type Profile struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Location     string `json:"location,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// UnmarshalJSON accepts both "id" and the backend's "_id".
func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	var raw struct {
		alias
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile(raw.alias)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	return nil
}

type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationMessage       NotificationType = "message"
	NotificationFriendAccept  NotificationType = "friend_accept"
)

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Stats backs the dashboard summary.
type Stats struct {
	Friends         int `json:"friends"`
	PendingRequests int `json:"pendingRequests"`
	UnreadMessages  int `json:"unreadMessages"`
}
