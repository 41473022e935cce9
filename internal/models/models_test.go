package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompareMessageIDs(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		cmp    int
		wantOK bool
	}{
		{"Numeric less", "9", "10", -1, true},
		{"Numeric equal", "42", "42", 0, true},
		{"Numeric greater", "100", "99", 1, true},
		{"ObjectID older", "65a000000000000000000001", "65b000000000000000000000", -1, true},
		{"ObjectID same", "65a000000000000000000001", "65a000000000000000000001", 0, true},
		{"ObjectID newer", "65c000000000000000000000", "65b0000000000000000000ff", 1, true},
		{"Temp id vs numeric", "3f2b8c1e-1111-4222-8333-444455556666", "10", 0, false},
		{"Numeric vs ObjectID", "10", "65a000000000000000000001", 0, false},
		{"Empty", "", "10", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, ok := CompareMessageIDs(tt.a, tt.b)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.cmp, cmp)
			}
		})
	}
}

func TestWireID_Unmarshal(t *testing.T) {
	var p ReadPayload
	require.NoError(t, json.Unmarshal([]byte(`{"chatId":"c1","userId":7,"messageId":12}`), &p))
	require.Equal(t, WireID("c1"), p.ChatID)
	require.Equal(t, WireID("7"), p.UserID)
	require.Equal(t, WireID("12"), p.MessageID)

	require.NoError(t, json.Unmarshal([]byte(`{"chatId":null}`), &p))
	require.Equal(t, WireID(""), p.ChatID)

	require.Error(t, json.Unmarshal([]byte(`{"chatId":{}}`), &p))
}

func TestWireMessage(t *testing.T) {
	var m WireMessage
	raw := `{"_id":"65a000000000000000000001","sender":{"user":"u1","username":"alice"},"content":"hi","createdAt":"2024-01-02T03:04:05Z"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	require.Equal(t, "65a000000000000000000001", m.ServerID())
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), m.Time().UTC())

	m.ID = "5"
	require.Equal(t, "5", m.ServerID())

	require.True(t, WireMessage{}.Time().IsZero())
	require.Equal(t, int64(1700000000000), WireMessage{Timestamp: "1700000000000"}.Time().UnixMilli())
}

func TestReceivePayload_Chat(t *testing.T) {
	p := ReceivePayload{Message: WireMessage{ChatID: "inner"}}
	require.Equal(t, "inner", p.Chat())

	p.ChatID = "outer"
	require.Equal(t, "outer", p.Chat())
}

func TestProfile_Unmarshal(t *testing.T) {
	var p Profile
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"u1","username":"alice"}`), &p))
	require.Equal(t, "u1", p.ID)
	require.Equal(t, "alice", p.Username)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u2","_id":"ignored"}`), &p))
	require.Equal(t, "u2", p.ID)
}

func TestFriendStatus_Pending(t *testing.T) {
	require.True(t, FriendStatusPendingSent.Pending())
	require.True(t, FriendStatusPendingReceived.Pending())
	require.False(t, FriendStatusAccepted.Pending())
	require.False(t, FriendStatusNone.Pending())
}
