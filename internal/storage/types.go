package storage

import (
	"encoding"
	"encoding/binary"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

var sessionKey = []byte("current")

// DBSession is the persisted login. There is at most one.
type DBSession struct {
	Token        string `msgpack:"token"`
	UserID       string `msgpack:"userId"`
	Username     string `msgpack:"username"`
	Email        string `msgpack:"email"`
	Bio          string `msgpack:"bio"`
	Location     string `msgpack:"location"`
	ProfileImage string `msgpack:"profileImage"`
	SavedAt      int64  `msgpack:"savedAt"`
}

func (s *DBSession) Key() []byte {
	return sessionKey
}

func (s *DBSession) MarshalBinary() (data []byte, err error) {
	type alias DBSession
	return msgpack.Marshal((*alias)(s))
}

func (s *DBSession) UnmarshalBinary(data []byte) error {
	type alias DBSession
	return msgpack.Unmarshal(data, (*alias)(s))
}

type DBParticipant struct {
	User     string `msgpack:"user"`
	Username string `msgpack:"username"`
	Status   string `msgpack:"status"`
}

// DBChat is a cached conversation list entry. Position keeps the listing order.
type DBChat struct {
	ID           string          `msgpack:"id"`
	Position     int             `msgpack:"position"`
	Type         string          `msgpack:"type"`
	GroupName    string          `msgpack:"groupName"`
	Participants []DBParticipant `msgpack:"participants"`
	Target       DBParticipant   `msgpack:"target"`
	LastMessage  string          `msgpack:"lastMessage"`
}

func (c *DBChat) Key() []byte {
	return []byte(c.ID)
}

func (c *DBChat) MarshalBinary() (data []byte, err error) {
	type alias DBChat
	return msgpack.Marshal((*alias)(c))
}

func (c *DBChat) UnmarshalBinary(data []byte) error {
	type alias DBChat
	return msgpack.Unmarshal(data, (*alias)(c))
}

// DBMessage is a cached message, keyed by its position in the thread.
type DBMessage struct {
	Seq       int64         `msgpack:"seq"`
	ID        string        `msgpack:"id"`
	Sender    DBParticipant `msgpack:"sender"`
	Content   string        `msgpack:"content"`
	Timestamp int64         `msgpack:"timestamp"`
	IsMine    bool          `msgpack:"isMine"`
	Read      bool          `msgpack:"read"`
}

func (m *DBMessage) Key() []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(m.Seq))
	return key
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}

// DBSyncInfo records when an owner's conversation list was last refreshed.
type DBSyncInfo struct {
	OwnerID   string `msgpack:"ownerId"`
	FetchedAt int64  `msgpack:"fetchedAt"`
}

func (i *DBSyncInfo) Key() []byte {
	return []byte(i.OwnerID)
}

func (i *DBSyncInfo) MarshalBinary() (data []byte, err error) {
	type alias DBSyncInfo
	return msgpack.Marshal((*alias)(i))
}

func (i *DBSyncInfo) UnmarshalBinary(data []byte) error {
	type alias DBSyncInfo
	return msgpack.Unmarshal(data, (*alias)(i))
}
