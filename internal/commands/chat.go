package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"parley/internal/content"
	"parley/internal/conversation"
	"parley/internal/models"
	"parley/internal/view"
)

const connectWait = 10 * time.Second

var errQuit = errors.New("quit")

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <chatId>",
		Short: "Open a conversation",
		Long: `Open a conversation and exchange messages in real time.

Each line you enter is sent as a message. Commands:
  /typing   tell the other side you are typing
  /quit     leave the conversation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Chat(cmd.Context(), args[0], app.in)
		},
	}
}

// Chat runs an interactive thread for chatID, reading lines from in until it
// ends, /quit is entered or ctx is cancelled.
func (a *App) Chat(ctx context.Context, chatID string, in io.Reader) error {
	sess, err := a.requireSession()
	if err != nil {
		return err
	}
	conv, stale, err := a.findConversation(ctx, sess, chatID)
	if err != nil {
		return err
	}
	if stale {
		a.printf("(offline copy, history may be out of date)\n")
	}

	unfollow := a.followSession(ctx)
	defer unfollow()
	if err := a.Realtime.Connect(ctx, sess.Token); err != nil {
		return err
	}
	defer a.Realtime.Disconnect()

	waitCtx, cancel := context.WithTimeout(ctx, connectWait)
	err = a.Realtime.WaitConnected(waitCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.printf("Still connecting, messages can be sent once online\n")
	}

	cs := conversation.New(ctx, a.Realtime, sess.User, conversation.Options{
		MaxMessages:   a.Config.MaxMessages,
		TypingTimeout: a.Config.TypingTimeout,
		TypingTTL:     a.Config.TypingTTL,
		PendingTTL:    a.Config.PendingTTL,
	})
	defer cs.Close()
	cs.Select(conv)

	typist, err := cs.Typist()
	if err != nil {
		return err
	}
	defer typist.Stop()

	out := &lockedWriter{w: a.Out}
	fmt.Fprintf(out, "Chatting with %s. /quit to leave.\n", view.ConversationTitle(conv))
	printer := newThreadPrinter(out, sess.User.ID)
	printer.update(cs.Messages(), cs.Typing(), a.Realtime.Connected())

	// The scanner cannot be interrupted, so it lives outside the group. A
	// blocked read outlives Chat until in yields or closes.
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("failed to read input", "error", err)
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-cs.Changes():
				printer.update(cs.Messages(), cs.Typing(), a.Realtime.Connected())
			}
		}
	})

	g.Go(func() error {
		if a.Config.PendingTTL <= 0 {
			return nil
		}
		ticker := time.NewTicker(a.Config.PendingTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				for _, m := range cs.Prune() {
					fmt.Fprintf(out, "! not delivered: %s\n", m.Content)
				}
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := a.handleLine(out, cs, typist, line); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func (a *App) handleLine(out io.Writer, cs *conversation.Sync, typist *conversation.Typist, line string) error {
	switch strings.TrimSpace(line) {
	case "":
		return nil
	case "/quit":
		return errQuit
	case "/typing":
		typist.Keystroke()
		return nil
	}

	typist.Stop()
	if err := content.ValidateMessage(line); err != nil {
		fmt.Fprintf(out, "! %v\n", err)
		return nil
	}
	if _, err := cs.Send(line); err != nil {
		if errors.Is(err, models.ErrNotConnected) {
			fmt.Fprintln(out, "! offline, message not sent")
			return nil
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// lockedWriter serializes output from the chat goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// threadPrinter writes thread changes to a line-oriented terminal. A message
// is printed again only when its line changes, e.g. Sending to Delivered.
type threadPrinter struct {
	out       io.Writer
	selfID    string
	printed   map[string]string
	typing    string
	connected bool
	started   bool
}

func newThreadPrinter(out io.Writer, selfID string) *threadPrinter {
	return &threadPrinter{out: out, selfID: selfID, printed: make(map[string]string)}
}

func (p *threadPrinter) update(msgs []models.Message, typing []models.TypingSignal, connected bool) {
	if p.started && connected != p.connected {
		if connected {
			_, _ = fmt.Fprintln(p.out, "* connected")
		} else {
			_, _ = fmt.Fprintln(p.out, "* connection lost, reconnecting")
		}
	}
	p.connected = connected
	p.started = true

	for _, m := range msgs {
		key := m.TempID
		if key == "" {
			key = m.ID
		}
		line := view.MessageLine(m)
		if p.printed[key] == line {
			continue
		}
		p.printed[key] = line
		_, _ = fmt.Fprintln(p.out, line)
	}

	if text := view.TypingText(typing, p.selfID); text != p.typing {
		p.typing = text
		if text != "" {
			_, _ = fmt.Fprintln(p.out, "* "+text)
		}
	}
}
