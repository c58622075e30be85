package mailbox

import (
	"context"
	"errors"
)

// ErrAuthFailed marks a handshake failure classified as bad credentials.
// It is terminal: the listener never schedules another reconnect after it.
var ErrAuthFailed = errors.New("mailbox: authentication failed")

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateAuthFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// Message is one parsed inbound mail.
type Message struct {
	From    string
	Subject string
	Body    string
}

// Conn is an established mailbox connection.
type Conn interface {
	// Notifications signals that new messages arrived.
	Notifications() <-chan struct{}
	// Done yields the reason the connection ended.
	Done() <-chan error
	SearchUnread(ctx context.Context) ([]uint32, error)
	Fetch(ctx context.Context, id uint32) (Message, error)
	Close() error
}

// Source dials the mailbox. Connect errors caused by bad credentials wrap
// ErrAuthFailed.
type Source interface {
	Connect(ctx context.Context) (Conn, error)
}

// HandlerFunc processes one inbound message. It must not panic; any
// processing failure is its own responsibility and means "no reply sent".
type HandlerFunc func(ctx context.Context, msg Message)
