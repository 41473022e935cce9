package contacts

import (
	"parley/internal/models"
)

// Relation is a friend record as seen by one of its two parties.
type Relation struct {
	ID          string
	Self        models.People
	Other       models.People
	IsRequester bool
	Status      models.FriendStatus
}

// CanRespond reports whether accept/reject actions apply: only the addressee
// of a pending request may answer it.
func (r Relation) CanRespond() bool {
	return r.Status.Pending() && !r.IsRequester
}

// Derive projects f onto the viewer selfID. The requester always sees a pending
// request as sent and the addressee as received, whichever way the backend
// labelled it.
func Derive(selfID string, f models.Friend) Relation {
	r := Relation{
		ID:          f.ID,
		Self:        f.User,
		Other:       f.Target,
		IsRequester: f.User.ID == selfID,
		Status:      f.Status,
	}
	if !r.IsRequester && f.Target.ID == selfID {
		r.Self, r.Other = f.Target, f.User
	}

	if f.Status.Pending() {
		if r.IsRequester {
			r.Status = models.FriendStatusPendingSent
		} else {
			r.Status = models.FriendStatusPendingReceived
		}
	}
	return r
}

// Buckets groups relations the way the friends and requests screens list them.
type Buckets struct {
	Friends  []Relation
	Incoming []Relation
	Outgoing []Relation
}

func Split(selfID string, friends []models.Friend) Buckets {
	var b Buckets
	for _, f := range friends {
		r := Derive(selfID, f)
		switch r.Status {
		case models.FriendStatusAccepted:
			b.Friends = append(b.Friends, r)
		case models.FriendStatusPendingReceived:
			b.Incoming = append(b.Incoming, r)
		case models.FriendStatusPendingSent:
			b.Outgoing = append(b.Outgoing, r)
		}
	}
	return b
}
