package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
)

// Listener keeps a mailbox connection alive and feeds every unread message
// to the handler. Connection lifecycle:
//
//	Disconnected -> Connecting -> Ready -> (Disconnected | AuthFailed)
//
// Non-auth failures reconnect with doubling backoff (floor 5s, ceiling 5m);
// AuthFailed is terminal for the process lifetime.
type Listener struct {
	src    Source
	handle HandlerFunc
	bo     *backoff.Backoff

	state atomic.Int32
}

type Option func(l *Listener)

// WithBackoffBounds overrides the reconnect backoff floor and ceiling.
func WithBackoffBounds(min, max time.Duration) Option {
	return func(l *Listener) {
		l.bo.Min = min
		l.bo.Max = max
	}
}

// New creates a listener. A nil source means credentials are not
// configured: the listener is inert and Run returns immediately.
func New(src Source, handle HandlerFunc, opts ...Option) *Listener {
	l := &Listener{
		src:    src,
		handle: handle,
		bo: &backoff.Backoff{
			Min:    5 * time.Second,
			Max:    5 * time.Minute,
			Factor: 2,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	if src == nil {
		slog.Warn("mailbox listener disabled, credentials not set")
	}
	return l
}

func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	l.state.Store(int32(s))
}

// Run drives the connection state machine until the context is cancelled
// or authentication fails.
func (l *Listener) Run(ctx context.Context) error {
	if l.src == nil {
		return nil
	}

	for {
		l.setState(StateConnecting)
		conn, err := l.src.Connect(ctx)
		if err != nil {
			if errors.Is(err, ErrAuthFailed) {
				l.setState(StateAuthFailed)
				slog.Error("mailbox authentication failed, not retrying; fix credentials and restart", "error", err)
				return ErrAuthFailed
			}
			l.setState(StateDisconnected)
			if !l.waitRetry(ctx, err, "mailbox connect failed") {
				return ctx.Err()
			}
			continue
		}

		l.setState(StateReady)
		l.bo.Reset()
		slog.Info("mailbox ready, listening for new messages")

		err = l.watch(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.setState(StateDisconnected)
		if !l.waitRetry(ctx, err, "mailbox connection ended") {
			return ctx.Err()
		}
	}
}

// waitRetry sleeps out the current backoff delay, doubling it for next
// time. Returns false when the context ended first.
func (l *Listener) waitRetry(ctx context.Context, cause error, msg string) bool {
	d := l.bo.Duration()
	slog.Warn(msg, "error", cause, "retry_in", d)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (l *Listener) watch(ctx context.Context, conn Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-conn.Done():
			return err
		case <-conn.Notifications():
			l.drainUnread(ctx, conn)
		}
	}
}

// drainUnread processes every currently unread message. Each message is an
// isolated unit of work; a failure is logged and the next one proceeds.
func (l *Listener) drainUnread(ctx context.Context, conn Conn) {
	ids, err := conn.SearchUnread(ctx)
	if err != nil {
		slog.Error("failed to search unread messages", "error", err)
		return
	}
	for _, id := range ids {
		msg, err := conn.Fetch(ctx, id)
		if err != nil {
			slog.Error("failed to fetch message", "id", id, "error", err)
			continue
		}
		l.handle(ctx, msg)
	}
}
