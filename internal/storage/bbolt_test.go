package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parley/internal/models"
)

func newTestStorage(t *testing.T) *BboltStorage {
	t.Helper()
	store, err := NewBboltStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorage(t *testing.T) {
	store := newTestStorage(t)

	t.Run("Session", func(t *testing.T) {
		_, _, err := store.LoadSession()
		require.ErrorIs(t, err, models.ErrNotFound)

		user := models.Profile{ID: "u1", Username: "alice", Email: "a@example.com", Bio: "hi"}
		require.NoError(t, store.SaveSession("tok-1", user, time.Now()))

		token, loaded, err := store.LoadSession()
		require.NoError(t, err)
		require.Equal(t, "tok-1", token)
		require.Equal(t, user, loaded)

		require.NoError(t, store.SaveSession("tok-2", models.Profile{ID: "u2"}, time.Now()))
		token, loaded, err = store.LoadSession()
		require.NoError(t, err)
		require.Equal(t, "tok-2", token)
		require.Equal(t, "u2", loaded.ID)

		require.NoError(t, store.ClearSession())
		require.NoError(t, store.ClearSession())
		_, _, err = store.LoadSession()
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Conversations", func(t *testing.T) {
		_, _, err := store.ListConversations("u1")
		require.ErrorIs(t, err, models.ErrNotFound)

		ts := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
		bob := models.Participant{User: "u2", Username: "bob", Status: models.UserStatusOnline}
		convs := []models.Conversation{
			{
				ID:           "zeta",
				Type:         models.ConversationTypeDirect,
				Participants: []models.Participant{{User: "u1", Username: "alice"}, bob},
				Target:       bob,
				LastMessage:  "bob: yo",
				Messages: []models.Message{
					{ID: "1", Sender: bob, Content: "yo", Timestamp: ts, Read: true},
					{ID: "t", TempID: "t", Content: "unsent", Pending: true, IsMine: true},
				},
			},
			{ID: "alpha", Type: models.ConversationTypeDirect, LastMessage: "No messages yet"},
		}
		fetched := time.UnixMilli(time.Now().UnixMilli())
		require.NoError(t, store.ReplaceConversations("u1", convs, fetched))

		got, fetchedAt, err := store.ListConversations("u1")
		require.NoError(t, err)
		require.True(t, fetched.Equal(fetchedAt))
		require.Len(t, got, 2)
		require.Equal(t, "zeta", got[0].ID, "listing order is preserved")
		require.Equal(t, "alpha", got[1].ID)
		require.Equal(t, bob, got[0].Target)
		require.Len(t, got[0].Participants, 2)

		require.Len(t, got[0].Messages, 1, "pending messages are not cached")
		require.Equal(t, "yo", got[0].Messages[0].Content)
		require.True(t, got[0].Messages[0].Read)
		require.True(t, ts.Equal(got[0].Messages[0].Timestamp))
		require.Empty(t, got[1].Messages)

		require.NoError(t, store.ReplaceConversations("u1", convs[1:], fetched))
		got, _, err = store.ListConversations("u1")
		require.NoError(t, err)
		require.Len(t, got, 1)

		_, _, err = store.ListConversations("u2")
		require.ErrorIs(t, err, models.ErrNotFound, "caches are per owner")

		require.Error(t, store.ReplaceConversations("", convs, fetched))
	})
}

func TestStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	store, err := NewBboltStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession("tok", models.Profile{ID: "u1"}, time.Now()))
	require.NoError(t, store.Close())

	store, err = NewBboltStorage(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	token, _, err := store.LoadSession()
	require.NoError(t, err)
	require.Equal(t, "tok", token)
}
