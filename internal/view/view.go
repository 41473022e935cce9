package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"parley/internal/contacts"
	"parley/internal/models"
)

const clock = "15:04"

// TypingText is the indicator under a thread. selfID is never listed.
func TypingText(signals []models.TypingSignal, selfID string) string {
	var names []string
	for _, s := range signals {
		if string(s.UserID) == selfID || !s.IsTyping {
			continue
		}
		names = append(names, s.Username)
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing..."
	case 2:
		return names[0] + " and " + names[1] + " are typing..."
	default:
		return "Several people are typing..."
	}
}

// DeliveryState labels an own message: Sending until echoed, then Delivered, then Read.
func DeliveryState(m models.Message) string {
	switch {
	case !m.IsMine:
		return ""
	case m.Pending:
		return "Sending"
	case m.Read:
		return "Read"
	default:
		return "Delivered"
	}
}

func MessageLine(m models.Message) string {
	var b strings.Builder

	if !m.Timestamp.IsZero() {
		b.WriteString("[" + m.Timestamp.Local().Format(clock) + "] ")
	}
	if m.IsMine {
		b.WriteString("You")
	} else {
		b.WriteString(m.Sender.Username)
	}
	b.WriteString(": ")
	b.WriteString(m.Content)

	if state := DeliveryState(m); state != "" {
		b.WriteString("  (" + state + ")")
	}
	return b.String()
}

func presenceMark(s models.UserStatus) string {
	if s == models.UserStatusOnline {
		return "●"
	}
	return "○"
}

func ConversationTitle(c models.Conversation) string {
	if c.Type == models.ConversationTypeGroup && c.GroupName != "" {
		return c.GroupName
	}
	if c.Target.Username != "" {
		return c.Target.Username
	}
	return c.ID
}

// Conversations writes the conversation list, one row per conversation.
func Conversations(w io.Writer, convs []models.Conversation, stale bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if stale {
		fmt.Fprintln(tw, "(offline copy, may be out of date)")
	}
	if len(convs) == 0 {
		fmt.Fprintln(tw, "No conversations yet")
	}
	for _, c := range convs {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", c.ID, presenceMark(c.Target.Status), ConversationTitle(c), c.LastMessage)
	}
	return tw.Flush()
}

func People(w io.Writer, people []models.People) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range people {
		status := string(p.FriendStatus)
		if status == "" {
			status = string(models.FriendStatusNone)
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", p.ID, presenceMark(p.Status), p.Username, p.Location, status)
	}
	return tw.Flush()
}

// Relations writes friend or request rows. Actionable requests are marked so
// the user knows which ids accept or reject apply to.
func Relations(w io.Writer, rels []contacts.Relation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range rels {
		action := ""
		if r.CanRespond() {
			action = "accept | reject"
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", r.ID, presenceMark(r.Other.Status), r.Other.Username, r.Status, action)
	}
	return tw.Flush()
}

func Profile(w io.Writer, p models.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Username\t%s\n", p.Username)
	fmt.Fprintf(tw, "Email\t%s\n", p.Email)
	if p.Location != "" {
		fmt.Fprintf(tw, "Location\t%s\n", p.Location)
	}
	if p.Bio != "" {
		fmt.Fprintf(tw, "Bio\t%s\n", p.Bio)
	}
	return tw.Flush()
}

// Notifications writes notifications newest first with times relative to now.
func Notifications(w io.Writer, items []models.Notification, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No notifications")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range items {
		when := "just now"
		if !n.CreatedAt.IsZero() && now.Sub(n.CreatedAt) >= time.Second {
			when = humanize.RelTime(n.CreatedAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\n", when, n.Message)
	}
	return tw.Flush()
}

func Stats(w io.Writer, s models.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Friends\t%s\t\n", humanize.Comma(int64(s.Friends)))
	fmt.Fprintf(tw, "Pending requests\t%s\t\n", humanize.Comma(int64(s.PendingRequests)))
	fmt.Fprintf(tw, "Unread messages\t%s\t\n", humanize.Comma(int64(s.UnreadMessages)))
	return tw.Flush()
}
