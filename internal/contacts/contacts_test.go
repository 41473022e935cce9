package contacts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/models"
)

var (
	u1 = models.People{ID: "U1", Username: "alice"}
	u2 = models.People{ID: "U2", Username: "bob"}
	u3 = models.People{ID: "U3", Username: "carol"}
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name       string
		viewer     string
		friend     models.Friend
		other      string
		requester  bool
		status     models.FriendStatus
		canRespond bool
	}{
		{
			name:      "Requester sees sent request",
			viewer:    "U1",
			friend:    models.Friend{ID: "f1", User: u1, Target: u2, Status: models.FriendStatusPendingSent},
			other:     "U2",
			requester: true,
			status:    models.FriendStatusPendingSent,
		},
		{
			name:       "Addressee sees received request",
			viewer:     "U2",
			friend:     models.Friend{ID: "f1", User: u1, Target: u2, Status: models.FriendStatusPendingSent},
			other:      "U1",
			status:     models.FriendStatusPendingReceived,
			canRespond: true,
		},
		{
			name:      "Requester of a request labelled received",
			viewer:    "U1",
			friend:    models.Friend{ID: "f2", User: u1, Target: u3, Status: models.FriendStatusPendingReceived},
			other:     "U3",
			requester: true,
			status:    models.FriendStatusPendingSent,
		},
		{
			name:   "Accepted from the addressee side",
			viewer: "U2",
			friend: models.Friend{ID: "f3", User: u1, Target: u2, Status: models.FriendStatusAccepted},
			other:  "U1",
			status: models.FriendStatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Derive(tt.viewer, tt.friend)
			require.Equal(t, tt.viewer, r.Self.ID)
			require.Equal(t, tt.other, r.Other.ID)
			require.Equal(t, tt.requester, r.IsRequester)
			require.Equal(t, tt.status, r.Status)
			require.Equal(t, tt.canRespond, r.CanRespond())
		})
	}
}

func TestSplit(t *testing.T) {
	b := Split("U1", []models.Friend{
		{ID: "a", User: u1, Target: u2, Status: models.FriendStatusAccepted},
		{ID: "b", User: u3, Target: u1, Status: models.FriendStatusPendingSent},
		{ID: "c", User: u1, Target: u3, Status: models.FriendStatusPendingSent},
		{ID: "d", User: u1, Target: u2, Status: models.FriendStatusNone},
	})

	require.Len(t, b.Friends, 1)
	require.Equal(t, "a", b.Friends[0].ID)
	require.Len(t, b.Incoming, 1)
	require.Equal(t, "carol", b.Incoming[0].Other.Username)
	require.Len(t, b.Outgoing, 1)
	require.Equal(t, "c", b.Outgoing[0].ID)
}
