package conversation

import (
	"context"
	"sort"
	"time"

	"github.com/c-pro/geche"

	"parley/internal/models"
)

type typingKey struct {
	userID string
	chatID string
}

// Typing is the set of users currently typing, one entry per (user, chat).
// Entries that are not refreshed expire after the TTL.
type Typing struct {
	cache geche.Geche[typingKey, models.TypingSignal]
	ttl   time.Duration
	now   func() time.Time
}

// NewTyping starts a TTL cache whose cleanup goroutine stops with ctx.
func NewTyping(ctx context.Context, ttl time.Duration) *Typing {
	return &Typing{
		cache: geche.NewMapTTLCache[typingKey, models.TypingSignal](ctx, ttl, ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Apply records a typing:update signal.
func (t *Typing) Apply(sig models.TypingSignal) {
	key := typingKey{userID: string(sig.UserID), chatID: string(sig.ChatID)}
	if !sig.IsTyping {
		_ = t.cache.Del(key)
		return
	}
	sig.At = t.now()
	t.cache.Set(key, sig)
}

// Active lists the users typing in chatID, ordered by username.
func (t *Typing) Active(chatID string) []models.TypingSignal {
	cutoff := t.now().Add(-t.ttl)

	var out []models.TypingSignal
	for key, sig := range t.cache.Snapshot() {
		if key.chatID != chatID || sig.At.Before(cutoff) {
			continue
		}
		out = append(out, sig)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Clear drops every entry of chatID.
func (t *Typing) Clear(chatID string) {
	for key := range t.cache.Snapshot() {
		if key.chatID == chatID {
			_ = t.cache.Del(key)
		}
	}
}
