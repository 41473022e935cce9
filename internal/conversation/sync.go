package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"parley/internal/models"
	"parley/internal/socket"
)

// Emitter sends realtime events.
type Emitter interface {
	Emit(event models.EventType, payload any) error
}

// Transport is the realtime surface Sync runs on. *socket.Manager implements it.
type Transport interface {
	Emitter
	socket.Subscriber
	Connected() bool
	OnStatus(fn func(connected bool)) *socket.Subscription
}

type Options struct {
	MaxMessages   int
	TypingTimeout time.Duration
	TypingTTL     time.Duration
	PendingTTL    time.Duration
}

// Sync keeps the selected conversation in step with the realtime server.
// It is either idle or joined to exactly one conversation.
type Sync struct {
	transport Transport
	self      models.Participant
	opts      Options
	now       func() time.Time

	mu       sync.Mutex
	chatID   string
	thread   *Thread
	scope    *socket.Scope
	typing   *Typing
	presence map[string]models.UserStatus

	statusSub *socket.Subscription
	changes   chan struct{}
}

// New creates an idle Sync for the session user self. The typing cache lives
// until ctx ends.
func New(ctx context.Context, transport Transport, self models.Profile, opts Options) *Sync {
	s := &Sync{
		transport: transport,
		self:      models.Participant{User: self.ID, Username: self.Username},
		opts:      opts,
		now:       time.Now,
		typing:    NewTyping(ctx, opts.TypingTTL),
		presence:  make(map[string]models.UserStatus),
		changes:   make(chan struct{}, 1),
	}
	s.statusSub = transport.OnStatus(s.HandleStatus)
	return s
}

// Changes delivers a tick whenever the visible state changed. Ticks coalesce.
func (s *Sync) Changes() <-chan struct{} {
	return s.changes
}

func (s *Sync) changed() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Sync) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Select joins conv, leaving the previously selected conversation first.
// Selecting the current conversation again does nothing.
func (s *Sync) Select(conv models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == conv.ID {
		return
	}
	s.leaveLocked()

	s.chatID = conv.ID
	s.thread = NewThread(s.opts.MaxMessages, conv.Messages)
	for _, p := range conv.Participants {
		if p.Status != "" {
			s.presence[p.User] = p.Status
		}
	}

	s.scope = &socket.Scope{}
	s.scope.Add(
		socket.On(s.transport, models.EventMessageReceive, s.onReceive),
		socket.On(s.transport, models.EventTypingUpdate, s.onTyping),
		socket.On(s.transport, models.EventMessageReadDone, s.onReadDone),
		socket.On(s.transport, models.EventUserStatus, s.onUserStatus),
	)

	s.emitLocked(models.EventConversationJoin, s.chatID)
	s.changed()
}

// Close leaves the current conversation and stops following connection status.
func (s *Sync) Close() {
	s.mu.Lock()
	s.leaveLocked()
	s.mu.Unlock()

	s.statusSub.Close()
}

func (s *Sync) leaveLocked() {
	if s.chatID == "" {
		return
	}
	s.scope.Close()
	s.emitLocked(models.EventConversationLeave, s.chatID)
	s.typing.Clear(s.chatID)

	s.chatID = ""
	s.thread = nil
	s.scope = nil
}

// emitLocked sends event only while connected; joins are replayed on reconnect.
func (s *Sync) emitLocked(event models.EventType, payload any) {
	if !s.transport.Connected() {
		return
	}
	if err := s.transport.Emit(event, payload); err != nil {
		slog.Warn("failed to emit", "event", event, "error", err)
	}
}

// HandleStatus re-joins the selected conversation after a reconnect.
func (s *Sync) HandleStatus(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" {
		return
	}
	if connected {
		s.emitLocked(models.EventConversationJoin, s.chatID)
	} else {
		s.typing.Clear(s.chatID)
	}
	s.changed()
}

func (s *Sync) onReceive(p models.ReceivePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" || p.Chat() != s.chatID {
		return
	}

	msg := FromWire(p.Message, p.TempID, s.self.User)
	if !msg.IsMine {
		s.emitLocked(models.EventMessageRead, models.ReadPayload{
			ChatID:    models.WireID(s.chatID),
			UserID:    models.WireID(s.self.User),
			MessageID: models.WireID(msg.ID),
		})
		msg.Read = true
	}
	s.thread.Reconcile(msg)
	s.changed()
}

func (s *Sync) onTyping(sig models.TypingSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" || string(sig.ChatID) != s.chatID {
		return
	}
	s.typing.Apply(sig)
	s.changed()
}

func (s *Sync) onReadDone(p models.ReadPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" || string(p.ChatID) != s.chatID {
		return
	}
	if string(p.UserID) == s.self.User {
		return
	}
	if s.thread.MarkReadUpTo(string(p.MessageID)) > 0 {
		s.changed()
	}
}

func (s *Sync) onUserStatus(p models.UserStatusPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.presence[string(p.UserID)] = p.Status
	s.changed()
}

// Send appends an optimistic message and emits it. The message is confirmed
// later by the server echo carrying the same tempId. If the emit fails the
// optimistic entry is removed and the error returned.
func (s *Sync) Send(content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, models.ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" {
		return models.Message{}, models.ErrNoConversation
	}
	if !s.transport.Connected() {
		return models.Message{}, models.ErrNotConnected
	}

	tempID := uuid.NewString()
	now := s.now()
	msg := models.Message{
		ID:        tempID,
		TempID:    tempID,
		Sender:    s.self,
		Content:   content,
		Timestamp: now,
		IsMine:    true,
		Pending:   true,
	}
	s.thread.Append(msg)

	err := s.transport.Emit(models.EventMessageSend, models.SendPayload{
		TempID:    tempID,
		ChatID:    s.chatID,
		Content:   content,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.thread.Discard(tempID)
		return models.Message{}, err
	}

	s.changed()
	return msg, nil
}

// Prune drops optimistic messages never confirmed within PendingTTL.
func (s *Sync) Prune() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thread == nil || s.opts.PendingTTL <= 0 {
		return nil
	}
	dropped := s.thread.PrunePending(s.now().Add(-s.opts.PendingTTL))
	if len(dropped) > 0 {
		slog.Warn("discarding unconfirmed messages", "chat", s.chatID, "count", len(dropped))
		s.changed()
	}
	return dropped
}

// Messages returns a copy of the current thread.
func (s *Sync) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thread == nil {
		return nil
	}
	return s.thread.Snapshot()
}

// Typing lists the users typing in the current conversation, self included.
func (s *Sync) Typing() []models.TypingSignal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" {
		return nil
	}
	return s.typing.Active(s.chatID)
}

func (s *Sync) Presence(userID string) models.UserStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence[userID]
}

// Typist returns a typing signaller bound to the current conversation.
func (s *Sync) Typist() (*Typist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatID == "" {
		return nil, models.ErrNoConversation
	}
	payload := models.TypingPayload{
		ChatID:   s.chatID,
		UserID:   s.self.User,
		Username: s.self.Username,
	}
	return NewTypist(s.transport, payload, s.opts.TypingTimeout), nil
}
