package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"parley/internal/api"
	"parley/internal/config"
	"parley/internal/conversation"
	"parley/internal/models"
	"parley/internal/session"
	"parley/internal/storage"
)

// Realtime is the connection the interactive chat runs on. *socket.Manager
// implements it.
type Realtime interface {
	conversation.Transport
	Connect(ctx context.Context, token string) error
	Disconnect()
	WaitConnected(ctx context.Context) error
}

// App holds what the commands share for one process.
type App struct {
	Config   *config.Config
	API      *api.Client
	Sessions *session.Store
	Storage  *storage.BboltStorage
	Realtime Realtime

	Out io.Writer
	in  *bufio.Reader
	// stdin is set when In is a terminal, so passwords can be read without echo.
	stdin *os.File
	now   func() time.Time
}

func NewApp(cfg *config.Config, client *api.Client, db *storage.BboltStorage, rt Realtime, in io.Reader, out io.Writer) *App {
	app := &App{
		Config:   cfg,
		API:      client,
		Sessions: session.NewStore(db),
		Storage:  db,
		Realtime: rt,
		Out:      out,
		in:       bufio.NewReader(in),
		now:      time.Now,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		app.stdin = f
	}
	return app
}

// loadSession restores the saved session, if any. A missing or expired
// session is not an error here; commands that need one call requireSession.
func (a *App) loadSession() error {
	_, err := a.Sessions.Load()
	if err != nil && !errors.Is(err, models.ErrNoSession) {
		return err
	}
	return nil
}

func (a *App) requireSession() (session.Session, error) {
	sess, ok := a.Sessions.Current()
	if !ok {
		return session.Session{}, fmt.Errorf("%w: run `parley login` first", models.ErrNoSession)
	}
	return sess, nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// readLine prompts for a value unless one was given on the command line.
func (a *App) readLine(label, given string) (string, error) {
	if given != "" {
		return given, nil
	}
	a.printf("%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and falls back to a plain line otherwise.
func (a *App) readPassword(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	if a.stdin == nil {
		return a.readLine("Password", "")
	}

	a.printf("Password: ")
	b, err := term.ReadPassword(int(a.stdin.Fd()))
	a.printf("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// followSession keeps the realtime connection on the current session's token.
func (a *App) followSession(ctx context.Context) func() {
	return a.Sessions.Subscribe(func(s session.Session) {
		if !s.Valid() {
			a.Realtime.Disconnect()
			return
		}
		if err := a.Realtime.Connect(ctx, s.Token); err != nil {
			slog.Error("failed to connect realtime", "error", err)
		}
	})
}
