package conversation

import (
	"parley/internal/models"
)

const noMessagesPreview = "No messages yet"

// FromRecord converts a backend chat record into the session user's view of it.
// History messages arrive already read.
func FromRecord(rec models.ChatRecord, selfID string) models.Conversation {
	conv := models.Conversation{
		ID:           string(rec.ID),
		Type:         models.ConversationTypeDirect,
		GroupName:    rec.GroupName,
		Participants: rec.Participants,
		Target:       targetOf(rec.Participants, selfID),
		LastMessage:  noMessagesPreview,
	}
	if rec.Type == string(models.ConversationTypeGroup) {
		conv.Type = models.ConversationTypeGroup
	}

	for _, w := range rec.LastMessages {
		m := FromWire(w, "", selfID)
		m.Read = true
		conv.Messages = append(conv.Messages, m)
	}
	if n := len(conv.Messages); n > 0 {
		conv.LastMessage = Preview(conv.Messages[n-1])
	}
	return conv
}

// FromRecords maps a whole chats/all listing.
func FromRecords(recs []models.ChatRecord, selfID string) []models.Conversation {
	out := make([]models.Conversation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec, selfID))
	}
	return out
}

// FromWire converts a message as the server sends it. Read is left unset.
func FromWire(w models.WireMessage, tempID, selfID string) models.Message {
	return models.Message{
		ID:        w.ServerID(),
		TempID:    tempID,
		Sender:    w.Sender,
		Content:   w.Content,
		Timestamp: w.Time(),
		IsMine:    w.Sender.User == selfID,
	}
}

// Preview is the one-line summary shown in the conversation list.
func Preview(m models.Message) string {
	who := m.Sender.Username
	if m.IsMine {
		who = "You"
	}
	return who + ": " + m.Content
}

func targetOf(participants []models.Participant, selfID string) models.Participant {
	for _, p := range participants {
		if p.User != selfID {
			return p
		}
	}
	return models.Participant{}
}
