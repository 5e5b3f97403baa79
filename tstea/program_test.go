package tstea

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type addrSession struct{ addr net.Addr }

func (s addrSession) RemoteAddr() net.Addr { return s.addr }

type userSession struct {
	addrSession
	user string
}

func (s userSession) User() string { return s.user }

func TestPlayer(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2222}

	require.Equal(t, "127.0.0.1:2222", Player(addrSession{addr}))
	require.Equal(t, "alice", Player(userSession{addrSession{addr}, "alice"}))
	require.Equal(t, "127.0.0.1:2222", Player(userSession{addrSession{addr}, ""}))
	require.Empty(t, Player(addrSession{}))
}

func TestJoin(t *testing.T) {
	t.Run("other ends first", func(t *testing.T) {
		other, stop := context.WithCancelCause(context.Background())
		ctx, cancel := join(t.Context(), other)
		defer cancel(nil)

		hungUp := errors.New("hung up")
		stop(hungUp)
		<-ctx.Done()
		require.ErrorIs(t, context.Cause(ctx), hungUp)
	})

	t.Run("parent ends first", func(t *testing.T) {
		parent, stop := context.WithCancel(context.Background())
		ctx, cancel := join(parent, t.Context())
		defer cancel(nil)

		stop()
		<-ctx.Done()
		require.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("canceled directly", func(t *testing.T) {
		other, stop := context.WithCancel(context.Background())
		defer stop()
		ctx, cancel := join(t.Context(), other)

		quit := errors.New("quit")
		cancel(quit)
		require.ErrorIs(t, context.Cause(ctx), quit)
		require.NoError(t, other.Err())
	})
}
