package storage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"parley/internal/models"
)

var (
	bucketSession  = []byte("session")
	bucketChats    = []byte("chats")
	bucketMessages = []byte("messages")
	bucketSync     = []byte("sync")
)

type BboltStorage struct {
	db *bbolt.DB
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSession, bucketChats, bucketMessages, bucketSync} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

func put(b *bbolt.Bucket, item Storeable) error {
	data, err := item.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", item, err)
	}
	return b.Put(item.Key(), data)
}

// SaveSession replaces the stored login.
func (s *BboltStorage) SaveSession(token string, user models.Profile, savedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(bucketSession), &DBSession{
			Token:        token,
			UserID:       user.ID,
			Username:     user.Username,
			Email:        user.Email,
			Bio:          user.Bio,
			Location:     user.Location,
			ProfileImage: user.ProfileImage,
			SavedAt:      savedAt.UnixMilli(),
		})
	})
}

// LoadSession returns the stored login or models.ErrNotFound.
func (s *BboltStorage) LoadSession() (string, models.Profile, error) {
	var dbSession DBSession
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(sessionKey)
		if data == nil {
			return models.ErrNotFound
		}
		return dbSession.UnmarshalBinary(data)
	})
	if err != nil {
		return "", models.Profile{}, err
	}

	return dbSession.Token, models.Profile{
		ID:           dbSession.UserID,
		Username:     dbSession.Username,
		Email:        dbSession.Email,
		Bio:          dbSession.Bio,
		Location:     dbSession.Location,
		ProfileImage: dbSession.ProfileImage,
	}, nil
}

func (s *BboltStorage) ClearSession() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Delete(sessionKey)
	})
}

// ReplaceConversations stores convs as ownerID's cached conversation list,
// dropping whatever was cached before.
func (s *BboltStorage) ReplaceConversations(ownerID string, convs []models.Conversation, fetchedAt time.Time) error {
	if ownerID == "" {
		return errors.New("conversation cache requires an owner")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		owner := []byte(ownerID)

		for _, root := range [][]byte{bucketChats, bucketMessages} {
			parent := tx.Bucket(root)
			if parent.Bucket(owner) != nil {
				if err := parent.DeleteBucket(owner); err != nil {
					return fmt.Errorf("failed to drop cached %s: %w", root, err)
				}
			}
		}

		chats, err := tx.Bucket(bucketChats).CreateBucket(owner)
		if err != nil {
			return fmt.Errorf("failed to create chat bucket: %w", err)
		}
		threads, err := tx.Bucket(bucketMessages).CreateBucket(owner)
		if err != nil {
			return fmt.Errorf("failed to create message bucket: %w", err)
		}

		for i, conv := range convs {
			if err := put(chats, toDBChat(i, conv)); err != nil {
				return err
			}
			if len(conv.Messages) == 0 {
				continue
			}
			thread, err := threads.CreateBucketIfNotExists([]byte(conv.ID))
			if err != nil {
				return fmt.Errorf("failed to create thread bucket: %w", err)
			}
			for seq, m := range conv.Messages {
				if m.Pending {
					continue
				}
				if err := put(thread, toDBMessage(int64(seq), m)); err != nil {
					return err
				}
			}
		}

		return put(tx.Bucket(bucketSync), &DBSyncInfo{OwnerID: ownerID, FetchedAt: fetchedAt.UnixMilli()})
	})
}

// ListConversations returns ownerID's cached conversations, in the order they
// were stored, and when they were fetched. An empty cache yields models.ErrNotFound.
func (s *BboltStorage) ListConversations(ownerID string) ([]models.Conversation, time.Time, error) {
	var (
		convs     []models.Conversation
		fetchedAt time.Time
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		owner := []byte(ownerID)

		data := tx.Bucket(bucketSync).Get(owner)
		if data == nil {
			return models.ErrNotFound
		}
		var info DBSyncInfo
		if err := info.UnmarshalBinary(data); err != nil {
			return err
		}
		fetchedAt = time.UnixMilli(info.FetchedAt)

		chats := tx.Bucket(bucketChats).Bucket(owner)
		if chats == nil {
			return nil
		}
		threads := tx.Bucket(bucketMessages).Bucket(owner)

		var dbChats []DBChat
		err := chats.ForEach(func(k, v []byte) error {
			var dbChat DBChat
			if err := dbChat.UnmarshalBinary(v); err != nil {
				return err
			}
			dbChats = append(dbChats, dbChat)
			return nil
		})
		if err != nil {
			return err
		}
		sort.Slice(dbChats, func(i, j int) bool { return dbChats[i].Position < dbChats[j].Position })

		for _, dbChat := range dbChats {
			conv := fromDBChat(dbChat)
			if threads != nil {
				if thread := threads.Bucket([]byte(dbChat.ID)); thread != nil {
					msgs, err := readThread(thread)
					if err != nil {
						return err
					}
					conv.Messages = msgs
				}
			}
			convs = append(convs, conv)
		}
		return nil
	})
	return convs, fetchedAt, err
}

func readThread(b *bbolt.Bucket) ([]models.Message, error) {
	var msgs []models.Message
	err := b.ForEach(func(k, v []byte) error {
		var dbMessage DBMessage
		if err := dbMessage.UnmarshalBinary(v); err != nil {
			return err
		}
		msgs = append(msgs, models.Message{
			ID:        dbMessage.ID,
			Sender:    fromDBParticipant(dbMessage.Sender),
			Content:   dbMessage.Content,
			Timestamp: fromUnixMilli(dbMessage.Timestamp),
			IsMine:    dbMessage.IsMine,
			Read:      dbMessage.Read,
		})
		return nil
	})
	return msgs, err
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func toDBParticipant(p models.Participant) DBParticipant {
	return DBParticipant{User: p.User, Username: p.Username, Status: string(p.Status)}
}

func fromDBParticipant(p DBParticipant) models.Participant {
	return models.Participant{User: p.User, Username: p.Username, Status: models.UserStatus(p.Status)}
}

func toDBChat(position int, conv models.Conversation) *DBChat {
	dbChat := &DBChat{
		ID:          conv.ID,
		Position:    position,
		Type:        string(conv.Type),
		GroupName:   conv.GroupName,
		Target:      toDBParticipant(conv.Target),
		LastMessage: conv.LastMessage,
	}
	for _, p := range conv.Participants {
		dbChat.Participants = append(dbChat.Participants, toDBParticipant(p))
	}
	return dbChat
}

func fromDBChat(dbChat DBChat) models.Conversation {
	conv := models.Conversation{
		ID:          dbChat.ID,
		Type:        models.ConversationType(dbChat.Type),
		GroupName:   dbChat.GroupName,
		Target:      fromDBParticipant(dbChat.Target),
		LastMessage: dbChat.LastMessage,
	}
	for _, p := range dbChat.Participants {
		conv.Participants = append(conv.Participants, fromDBParticipant(p))
	}
	return conv
}

func toDBMessage(seq int64, m models.Message) *DBMessage {
	var ts int64
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UnixMilli()
	}
	return &DBMessage{
		Seq:       seq,
		ID:        m.ID,
		Sender:    toDBParticipant(m.Sender),
		Content:   m.Content,
		Timestamp: ts,
		IsMine:    m.IsMine,
		Read:      m.Read,
	}
}
