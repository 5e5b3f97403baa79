// Package webblok serves blokfall over ssh and http and runs unattended games.
package webblok

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/ghthor/gotty/v2/server"
	"github.com/ghthor/gotty/v2/utils"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long open ssh sessions may hold up a shutdown.
const ShutdownTimeout = 30 * time.Second

// Server supervises the ssh and http listeners. The first listener to fail
// stops all of them and its error becomes the cause of Done.
type Server struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	grp    *errgroup.Group

	ssh []*ssh.Server
}

func NewServer(ctx context.Context) *Server {
	ctx, cancel := context.WithCancelCause(ctx)
	grp, ctx := errgroup.WithContext(ctx)
	return &Server{
		ctx:    ctx,
		cancel: cancel,
		grp:    grp,
	}
}

func (s *Server) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Err is the reason the server stopped, nil while it is running or after a
// plain cancel.
func (s *Server) Err() error {
	if err := context.Cause(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) fail(what string, err error) error {
	err = fmt.Errorf("%s: %w", what, err)
	s.cancel(err)
	return err
}

// ServeSSH runs srv on l until Shutdown.
func (s *Server) ServeSSH(l net.Listener, srv *ssh.Server) error {
	if l == nil {
		return errors.New("ssh: nil listener")
	}
	s.ssh = append(s.ssh, srv)
	s.grp.Go(func() error {
		err := srv.Serve(l)
		if err == nil || errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return s.fail("ssh serve", err)
	})
	return nil
}

func gottyOptions() (*server.Options, error) {
	opts := &server.Options{}
	if err := utils.ApplyDefaultValues(opts); err != nil {
		return nil, fmt.Errorf("gotty default options failure: %w", err)
	}

	opts.Preferences = &server.HtermPrefernces{}
	if err := utils.ApplyDefaultValues(opts.Preferences); err != nil {
		return nil, fmt.Errorf("gotty default hterm preferences failure: %w", err)
	}
	opts.Preferences.EnableWebGL = true
	opts.PermitWrite = true

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("gotty options validation failure: %w", err)
	}
	return opts, nil
}

// ServeHTTP runs the browser terminal for fact on l until the server context
// ends.
func (s *Server) ServeHTTP(l net.Listener, fact server.Factory) error {
	if l == nil {
		return errors.New("http: nil listener")
	}

	opts, err := gottyOptions()
	if err != nil {
		return err
	}
	srv, err := server.New(fact, opts)
	if err != nil {
		return fmt.Errorf("error creating gotty server: %w", err)
	}

	s.grp.Go(func() error {
		err := srv.Run(s.ctx, server.WithListener(l))
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		return s.fail("http serve", err)
	})
	return nil
}

// Shutdown stops every listener and waits for them. Ssh sessions get timeout
// to finish before they are closed, 0 means ShutdownTimeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	if timeout == 0 {
		timeout = ShutdownTimeout
	}

	var errs []error
	for _, srv := range s.ssh {
		errs = append(errs, shutdownSSH(srv, timeout))
	}
	s.cancel(context.Canceled)

	if err := s.grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func shutdownSSH(srv *ssh.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	switch {
	case err == nil, errors.Is(err, ssh.ErrServerClosed):
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("ssh sessions still open, closing", "timeout", timeout)
		return srv.Close()
	default:
		return err
	}
}
