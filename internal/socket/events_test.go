package socket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/models"
)

func TestRegistry_DispatchInOrder(t *testing.T) {
	r := NewRegistry()
	var calls []string

	r.Subscribe(models.EventUserStatus, func(json.RawMessage) { calls = append(calls, "first") })
	r.Subscribe(models.EventUserStatus, func(json.RawMessage) { calls = append(calls, "second") })
	r.Subscribe(models.EventTypingUpdate, func(json.RawMessage) { calls = append(calls, "other") })

	r.Dispatch(models.EventUserStatus, json.RawMessage(`{}`))
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestSubscription_Close(t *testing.T) {
	r := NewRegistry()
	count := 0

	sub := r.Subscribe(models.EventUserStatus, func(json.RawMessage) { count++ })
	keep := r.Subscribe(models.EventUserStatus, func(json.RawMessage) { count += 10 })
	require.Equal(t, 2, r.Len(models.EventUserStatus))

	sub.Close()
	sub.Close()
	require.Equal(t, 1, r.Len(models.EventUserStatus))

	r.Dispatch(models.EventUserStatus, nil)
	require.Equal(t, 10, count)

	keep.Close()
	require.Zero(t, r.Len(models.EventUserStatus))

	var nilSub *Subscription
	nilSub.Close()
}

func TestRegistry_UnsubscribeDuringDispatch(t *testing.T) {
	r := NewRegistry()
	count := 0

	var sub *Subscription
	sub = r.Subscribe(models.EventUserStatus, func(json.RawMessage) {
		count++
		sub.Close()
	})

	r.Dispatch(models.EventUserStatus, nil)
	r.Dispatch(models.EventUserStatus, nil)
	require.Equal(t, 1, count)
}

func TestOn(t *testing.T) {
	r := NewRegistry()
	var got []models.UserStatusPayload

	On(r, models.EventUserStatus, func(p models.UserStatusPayload) { got = append(got, p) })

	r.Dispatch(models.EventUserStatus, json.RawMessage(`{"userId":42,"status":"online"}`))
	r.Dispatch(models.EventUserStatus, json.RawMessage(`"garbage"`))
	r.Dispatch(models.EventUserStatus, nil)

	require.Len(t, got, 1)
	require.Equal(t, models.WireID("42"), got[0].UserID)
	require.Equal(t, models.UserStatusOnline, got[0].Status)
}

func TestScope(t *testing.T) {
	r := NewRegistry()
	var scope Scope

	scope.Add(
		r.Subscribe(models.EventUserStatus, func(json.RawMessage) {}),
		r.Subscribe(models.EventTypingUpdate, func(json.RawMessage) {}),
	)
	require.Equal(t, 1, r.Len(models.EventUserStatus))

	scope.Close()
	require.Zero(t, r.Len(models.EventUserStatus))
	require.Zero(t, r.Len(models.EventTypingUpdate))

	scope.Add(r.Subscribe(models.EventUserStatus, func(json.RawMessage) {}))
	require.Zero(t, r.Len(models.EventUserStatus), "adding to a closed scope releases immediately")

	scope.Close()
}

func TestStatusListeners(t *testing.T) {
	var l statusListeners
	var got []bool

	sub := l.add(func(v bool) { got = append(got, v) })
	l.notify(true)
	sub.Close()
	l.notify(false)

	require.Equal(t, []bool{true}, got)
}
