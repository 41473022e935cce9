package conversation

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"parley/internal/models"
)

// Typist turns keystrokes into typing:start and typing:stop events. Start is
// re-sent at most twice per idle period while typing continues; stop follows
// once no keystroke has arrived for the idle period.
type Typist struct {
	emitter Emitter
	payload models.TypingPayload
	idle    time.Duration
	limiter *rate.Limiter

	mu     sync.Mutex
	timer  *time.Timer
	typing bool
}

func NewTypist(emitter Emitter, payload models.TypingPayload, idle time.Duration) *Typist {
	return &Typist{
		emitter: emitter,
		payload: payload,
		idle:    idle,
		limiter: rate.NewLimiter(rate.Every(idle/2), 1),
	}
}

func (t *Typist) Keystroke() {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.limiter.Allow()
	if !t.typing || allowed {
		t.emit(models.EventTypingStart)
	}
	t.typing = true

	if t.timer == nil {
		t.timer = time.AfterFunc(t.idle, t.Stop)
	} else {
		t.timer.Reset(t.idle)
	}
}

// Stop emits typing:stop right away if a start is outstanding.
func (t *Typist) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	if !t.typing {
		return
	}
	t.typing = false
	t.emit(models.EventTypingStop)
}

func (t *Typist) emit(event models.EventType) {
	if err := t.emitter.Emit(event, t.payload); err != nil {
		slog.Debug("typing signal not sent", "event", event, "error", err)
	}
}
