package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	notif     chan struct{}
	done      chan error
	unread    []uint32
	msgs      map[uint32]Message
	fetchErr  map[uint32]error
	searchErr error
	closed    bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		notif:    make(chan struct{}, 1),
		done:     make(chan error, 1),
		msgs:     map[uint32]Message{},
		fetchErr: map[uint32]error{},
	}
}

func (c *fakeConn) Notifications() <-chan struct{} { return c.notif }
func (c *fakeConn) Done() <-chan error             { return c.done }

func (c *fakeConn) SearchUnread(ctx context.Context) ([]uint32, error) {
	return c.unread, c.searchErr
}

func (c *fakeConn) Fetch(ctx context.Context, id uint32) (Message, error) {
	if err := c.fetchErr[id]; err != nil {
		return Message{}, err
	}
	return c.msgs[id], nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type scriptedSource struct {
	mu       sync.Mutex
	attempts []time.Time
	script   []func() (Conn, error)
}

func (s *scriptedSource) Connect(ctx context.Context) (Conn, error) {
	s.mu.Lock()
	s.attempts = append(s.attempts, time.Now())
	n := len(s.attempts)
	s.mu.Unlock()
	if n <= len(s.script) {
		return s.script[n-1]()
	}
	return nil, errors.New("no more scripted connections")
}

func (s *scriptedSource) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func (s *scriptedSource) attemptTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.attempts...)
}

func TestBackoffDoublesUpToCeiling(t *testing.T) {
	fail := func() (Conn, error) { return nil, errors.New("connection refused") }
	src := &scriptedSource{script: []func() (Conn, error){fail, fail, fail, fail, fail}}

	l := New(src, func(context.Context, Message) {},
		WithBackoffBounds(10*time.Millisecond, 40*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return src.attemptCount() >= 5 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	times := src.attemptTimes()
	gaps := make([]time.Duration, 0, 4)
	for i := 1; i < 5; i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]))
	}
	// 10, 20, 40, 40 (capped); generous upper bounds for scheduling noise
	assert.GreaterOrEqual(t, gaps[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[2], 40*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[3], 40*time.Millisecond)
	assert.Less(t, gaps[3], 200*time.Millisecond, "backoff must stay capped")
}

func TestAuthFailureIsTerminal(t *testing.T) {
	src := &scriptedSource{script: []func() (Conn, error){
		func() (Conn, error) { return nil, fmt.Errorf("%w: LOGIN failed", ErrAuthFailed) },
	}}

	l := New(src, func(context.Context, Message) {}, WithBackoffBounds(time.Millisecond, 5*time.Millisecond))

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, StateAuthFailed, l.State())

	// no reconnect was ever scheduled
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, src.attemptCount())
}

func TestReadyResetsBackoffAndProcessesMail(t *testing.T) {
	conn := newFakeConn()
	conn.unread = []uint32{1, 2, 3}
	conn.msgs[1] = Message{From: "a@example.com", Subject: "INFM?"}
	conn.fetchErr[2] = errors.New("parse failure")
	conn.msgs[3] = Message{From: "b@example.com", Subject: "GFOM?"}

	src := &scriptedSource{script: []func() (Conn, error){
		func() (Conn, error) { return conn, nil },
	}}

	var mu sync.Mutex
	var handled []Message
	l := New(src, func(_ context.Context, m Message) {
		mu.Lock()
		handled = append(handled, m)
		mu.Unlock()
	}, WithBackoffBounds(time.Millisecond, 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return l.State() == StateReady }, time.Second, time.Millisecond)

	conn.notif <- struct{}{}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 2
	}, time.Second, time.Millisecond)

	// message 2 failed to fetch; 1 and 3 still got through
	mu.Lock()
	assert.Equal(t, "a@example.com", handled[0].From)
	assert.Equal(t, "b@example.com", handled[1].From)
	mu.Unlock()

	cancel()
	<-done
	assert.True(t, conn.closed)
}

func TestConnectionEndSchedulesReconnect(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	src := &scriptedSource{script: []func() (Conn, error){
		func() (Conn, error) { return first, nil },
		func() (Conn, error) { return second, nil },
	}}

	l := New(src, func(context.Context, Message) {}, WithBackoffBounds(time.Millisecond, 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.Eventually(t, func() bool { return l.State() == StateReady }, time.Second, time.Millisecond)
	first.done <- errors.New("unexpected EOF")

	require.Eventually(t, func() bool { return src.attemptCount() == 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return l.State() == StateReady }, time.Second, time.Millisecond)
	assert.True(t, first.closed)
}

func TestDisabledListenerIsInert(t *testing.T) {
	l := New(nil, func(context.Context, Message) {})
	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, StateDisconnected, l.State())
}
