package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"parley/internal/models"
)

// Session is the logged-in identity: the bearer token and the user it belongs to.
type Session struct {
	Token string
	User  models.Profile
}

func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// Backend persists the single current session.
type Backend interface {
	SaveSession(token string, user models.Profile, savedAt time.Time) error
	LoadSession() (string, models.Profile, error)
	ClearSession() error
}

// Store holds the current session and tells subscribers whenever it changes.
type Store struct {
	backend Backend
	now     func() time.Time

	mu      sync.RWMutex
	current Session
	nextID  uint64
	subs    map[uint64]func(Session)
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		now:     time.Now,
		subs:    make(map[uint64]func(Session)),
	}
}

// Load restores the persisted session. Missing or expired sessions yield
// models.ErrNoSession; an expired one is also removed from the backend.
func (s *Store) Load() (Session, error) {
	token, user, err := s.backend.LoadSession()
	if errors.Is(err, models.ErrNotFound) {
		return Session{}, models.ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	if Expired(token, s.now()) {
		slog.Info("stored session has expired", "user", user.Username)
		if err := s.backend.ClearSession(); err != nil {
			slog.Warn("failed to clear expired session", "error", err)
		}
		return Session{}, models.ErrNoSession
	}

	sess := Session{Token: token, User: user}
	s.set(sess)
	return sess, nil
}

func (s *Store) Save(sess Session) error {
	if !sess.Valid() {
		return models.ErrNoSession
	}
	if err := s.backend.SaveSession(sess.Token, sess.User, s.now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.set(sess)
	return nil
}

// UpdateUser replaces the cached profile of the current session.
func (s *Store) UpdateUser(user models.Profile) error {
	cur, ok := s.Current()
	if !ok {
		return models.ErrNoSession
	}
	if user.ID == "" {
		user.ID = cur.User.ID
	}
	cur.User = user
	return s.Save(cur)
}

func (s *Store) Clear() error {
	if err := s.backend.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.set(Session{})
	return nil
}

func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current.Valid()
}

// Subscribe calls fn after every save and clear. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) set(sess Session) {
	s.mu.Lock()
	s.current = sess
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// Expiry reads the exp claim of a JWT without verifying it. ok is false when
// the token is not a JWT or carries no expiry.
func Expiry(token string) (exp time.Time, ok bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := parsed.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// Expired reports whether token carries an expiry at or before now. Opaque
// tokens never expire client-side.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	return ok && !now.Before(exp)
}
