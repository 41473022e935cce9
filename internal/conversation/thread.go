package conversation

import (
	"time"

	"parley/internal/models"
)

// Thread is the trailing window of a conversation's messages, oldest first.
// It is not safe for concurrent use; Sync serializes access.
type Thread struct {
	Messages    []models.Message
	MaxMessages int
}

func NewThread(maxMessages int, initial []models.Message) *Thread {
	t := &Thread{MaxMessages: maxMessages}
	for _, m := range initial {
		t.Append(m)
	}
	return t
}

// Append adds m at the end, dropping the oldest message once the window is full.
func (t *Thread) Append(m models.Message) {
	t.Messages = append(t.Messages, m)
	if t.MaxMessages > 0 && len(t.Messages) > t.MaxMessages {
		drop := len(t.Messages) - t.MaxMessages
		t.Messages = append(t.Messages[:0:0], t.Messages[drop:]...)
	}
}

func (t *Thread) indexByTempID(tempID string) int {
	if tempID == "" {
		return -1
	}
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].TempID == tempID {
			return i
		}
	}
	return -1
}

func (t *Thread) indexByID(id string) int {
	if id == "" {
		return -1
	}
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// Reconcile merges a server copy of a message into the thread: the entry with
// the same tempId is replaced, then the entry with the same id, otherwise m is
// appended. A read flag already set locally survives the replacement.
// It reports whether an existing entry was replaced.
func (t *Thread) Reconcile(m models.Message) bool {
	i := t.indexByTempID(m.TempID)
	if i < 0 {
		i = t.indexByID(m.ID)
	}
	if i < 0 {
		t.Append(m)
		return false
	}

	m.Read = m.Read || t.Messages[i].Read
	t.Messages[i] = m
	return true
}

// Discard removes the optimistic entry with tempID.
func (t *Thread) Discard(tempID string) bool {
	i := t.indexByTempID(tempID)
	if i < 0 {
		return false
	}
	t.Messages = append(t.Messages[:i], t.Messages[i+1:]...)
	return true
}

// MarkReadUpTo applies a read receipt for ackID to the session user's confirmed
// messages and returns how many changed. Ids are compared when both are
// orderable; otherwise the receipt covers everything at or before the
// position of ackID in the thread. Pending messages are never covered.
func (t *Thread) MarkReadUpTo(ackID string) int {
	pos := t.indexByID(ackID)

	changed := 0
	for i := range t.Messages {
		m := &t.Messages[i]
		if !m.IsMine || m.Pending || m.Read {
			continue
		}

		var covered bool
		if cmp, ok := models.CompareMessageIDs(m.ID, ackID); ok {
			covered = cmp <= 0
		} else {
			covered = pos >= 0 && i <= pos
		}

		if covered {
			m.Read = true
			changed++
		}
	}
	return changed
}

// PrunePending drops optimistic messages sent before cutoff and returns them.
func (t *Thread) PrunePending(cutoff time.Time) []models.Message {
	var dropped []models.Message
	kept := t.Messages[:0]
	for _, m := range t.Messages {
		if m.Pending && m.Timestamp.Before(cutoff) {
			dropped = append(dropped, m)
			continue
		}
		kept = append(kept, m)
	}
	t.Messages = kept
	return dropped
}

// Snapshot returns a copy of the window.
func (t *Thread) Snapshot() []models.Message {
	out := make([]models.Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}
