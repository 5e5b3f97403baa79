// Package tstea serves bubbletea programs over ssh (wish) and the browser (gotty).
package tstea

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/creack/pty"
	"github.com/ghthor/gotty/v2/server"
	"github.com/gorilla/websocket"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"
)

// Session is the connection a program is served on.
type Session interface {
	RemoteAddr() net.Addr
}

// Player names whoever is behind a session: the ssh user when there is one,
// the remote address otherwise.
func Player(s Session) string {
	if u, ok := s.(interface{ User() string }); ok && u.User() != "" {
		return u.User()
	}
	if addr := s.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

type NewSshModel func(context.Context, ssh.Pty, Session) tea.Model
type NewHttpModel func(context.Context, Session) tea.Model
type NewTeaProgram func(context.Context, tea.Model, ...tea.ProgramOption) *tea.Program

// NewProgram is the plain NewTeaProgram.
func NewProgram(ctx context.Context, m tea.Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append(opts, tea.WithContext(ctx))...)
}

// join returns a context canceled with whichever of parent or other ends first.
func join(parent, other context.Context) (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	stop := context.AfterFunc(other, func() {
		cancel(context.Cause(other))
	})
	return ctx, func(cause error) {
		stop()
		cancel(cause)
	}
}

func WishMiddleware(ctx context.Context, newModel NewSshModel, newProg NewTeaProgram) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {
		pty, _, active := s.Pty()
		if !active {
			wish.Fatalln(s, "no active terminal, skipping")
			return nil
		}
		var (
			progCtx, _ = join(ctx, s.Context())
			m          = newModel(progCtx, pty, s)
		)
		log.Info("ssh session", "player", Player(s), "term", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)
		return newProg(progCtx, m, bubbletea.MakeOptions(s)...)
	}
	return bubbletea.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}

// TTYFactory runs one program per browser connection, each behind its own pty.
type TTYFactory struct {
	ctx context.Context

	newModel NewHttpModel
	newProg  NewTeaProgram
}

func NewTTYFactory(ctx context.Context, newModel NewHttpModel, newProg NewTeaProgram) *TTYFactory {
	return &TTYFactory{
		ctx:      ctx,
		newModel: newModel,
		newProg:  newProg,
	}
}

var _ server.Factory = &TTYFactory{}

func (*TTYFactory) Name() string { return "blokfall" }

func (f *TTYFactory) New(ctx context.Context, params map[string][]string, conn *websocket.Conn) (server.Slave, error) {
	ctx, cancel := join(f.ctx, ctx)

	ptmx, tty, err := pty.Open()
	if err != nil {
		cancel(err)
		return nil, fmt.Errorf("failed to pty.Open(): %w", err)
	}

	log.Info("http session", "player", Player(conn))
	prog := f.newProg(ctx, f.newModel(ctx, conn),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)

	t := &TTYProgram{
		pty:     ptmx,
		tty:     tty,
		conn:    conn,
		program: prog,
	}
	t.grp, t.ctx = errgroup.WithContext(ctx)
	t.grp.Go(func() error {
		defer t.release()

		_, err := prog.Run()
		switch {
		case err == nil, errors.Is(err, context.Canceled), errors.Is(err, tea.ErrProgramKilled):
			cancel(nil)
			return nil
		default:
			cancel(err)
			return err
		}
	})
	return t, nil
}

// TTYProgram is the gotty side of a running program: gotty reads and writes
// the pty master while the program owns the tty.
type TTYProgram struct {
	ctx context.Context
	grp *errgroup.Group

	pty, tty *os.File
	conn     *websocket.Conn
	program  *tea.Program
}

var _ server.Slave = &TTYProgram{}

func (t *TTYProgram) release() {
	t.tty.Close()
	t.pty.Close()
	t.conn.Close()
}

func (t *TTYProgram) Read(p []byte) (n int, err error) {
	return t.pty.Read(p)
}

func (t *TTYProgram) Write(p []byte) (n int, err error) {
	return t.pty.Write(p)
}

func (t *TTYProgram) Close() error {
	t.program.Quit()
	t.tty.Close()
	t.pty.Close()
	return t.grp.Wait()
}

func (t *TTYProgram) WindowTitleVariables() map[string]any {
	return map[string]any{"command": "blokfall"}
}

// resizeBackOff paces Setsize retries while the pty is still coming up.
func resizeBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     10 * time.Millisecond,
		RandomizationFactor: 0.0,
		Multiplier:          1.1,
		MaxInterval:         500 * time.Millisecond,
	}
}

func (t *TTYProgram) ResizeTerminal(width, height int) error {
	ws := &pty.Winsize{Cols: uint16(width), Rows: uint16(height)}
	setsize := func() (struct{}, error) {
		return struct{}{}, errors.Join(pty.Setsize(t.pty, ws), pty.Setsize(t.tty, ws))
	}

	_, err := backoff.Retry(t.ctx, setsize,
		backoff.WithBackOff(resizeBackOff()),
		backoff.WithMaxElapsedTime(2*time.Second),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Warn("pty resize", "error", err, "retrying", d)
		}),
	)
	if err != nil {
		log.Warn("pty resize retry exhausted", "width", width, "height", height, "error", err)
		return err
	}

	t.program.Send(tea.WindowSizeMsg{Width: width, Height: height})
	return nil
}
