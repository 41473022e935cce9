package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"parley/internal/conversation"
	"parley/internal/models"
	"parley/internal/session"
	"parley/internal/view"
)

// conversations fetches the session user's conversations and refreshes the
// local copy. When the API call fails the local copy is returned with stale set.
func (a *App) conversations(ctx context.Context, sess session.Session) (convs []models.Conversation, stale bool, err error) {
	res := a.API.Conversations(ctx, sess.Token)
	if apiErr := res.Err(); apiErr != nil {
		cached, fetchedAt, cacheErr := a.Storage.ListConversations(sess.User.ID)
		if cacheErr != nil {
			if !errors.Is(cacheErr, models.ErrNotFound) {
				slog.Error("failed to read conversation cache", "error", cacheErr)
			}
			return nil, false, apiErr
		}
		slog.Warn("showing cached conversations", "error", apiErr, "fetched_at", fetchedAt)
		return cached, true, nil
	}

	convs = conversation.FromRecords(res.Data, sess.User.ID)
	if err := a.Storage.ReplaceConversations(sess.User.ID, convs, a.now()); err != nil {
		slog.Error("failed to cache conversations", "error", err)
	}
	return convs, false, nil
}

func (a *App) findConversation(ctx context.Context, sess session.Session, chatID string) (models.Conversation, bool, error) {
	convs, stale, err := a.conversations(ctx, sess)
	if err != nil {
		return models.Conversation{}, false, err
	}
	for _, c := range convs {
		if c.ID == chatID {
			return c, stale, nil
		}
	}
	return models.Conversation{}, stale, fmt.Errorf("conversation %s: %w", chatID, models.ErrNotFound)
}

func newChatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			convs, stale, err := app.conversations(cmd.Context(), sess)
			if err != nil {
				return err
			}
			return view.Conversations(app.Out, convs, stale)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new <userId>",
		Short: "Start a direct conversation with a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.CreateChat(cmd.Context(), sess.Token, args[0])
			if err := res.Err(); err != nil {
				return err
			}
			conv := conversation.FromRecord(res.Data, sess.User.ID)
			app.printf("Conversation %s with %s\n", conv.ID, view.ConversationTitle(conv))
			return nil
		},
	})

	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <chatId>",
		Short: "Write a conversation to an HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			conv, _, err := app.findConversation(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}

			if output == "" {
				return view.Transcript(app.Out, conv, conv.Messages, app.now())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := view.Transcript(f, conv, conv.Messages, app.now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.printf("Exported %d messages to %s\n", len(conv.Messages), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
