package imapsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/belexwatch/price-watcher/internal/service/mailbox"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/samber/lo"
)

type Options struct {
	Host string
	Port int
	User string
	Pass string
	TLS  bool
}

type source struct {
	opts Options
}

// New builds an IMAP-backed mailbox source.
func New(opts Options) mailbox.Source {
	return &source{opts: opts}
}

var authPattern = regexp.MustCompile(`(?i)auth`)

func (s *source) Connect(ctx context.Context) (mailbox.Conn, error) {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	slog.Info("imap connecting", "addr", addr, "user", maskAddress(s.opts.User))

	notif := make(chan struct{}, 1)
	clientOpts := &imapclient.Options{
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages != nil {
					select {
					case notif <- struct{}{}:
					default:
					}
				}
			},
		},
	}

	var cli *imapclient.Client
	var err error
	if s.opts.TLS {
		cli, err = imapclient.DialTLS(addr, clientOpts)
	} else {
		cli, err = imapclient.DialStartTLS(addr, clientOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}

	if err := cli.Login(s.opts.User, s.opts.Pass).Wait(); err != nil {
		_ = cli.Close()
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", mailbox.ErrAuthFailed, err)
		}
		return nil, fmt.Errorf("imap login: %w", err)
	}

	if _, err := cli.Select("INBOX", nil).Wait(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("imap select inbox: %w", err)
	}

	c := &conn{
		cli:   cli,
		notif: notif,
		done:  make(chan error, 1),
	}
	c.beginIdle()
	return c, nil
}

// isAuthError classifies a login failure as a credential problem, either by
// the server's response code or by the error text.
func isAuthError(err error) bool {
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Code == imap.ResponseCodeAuthenticationFailed {
		return true
	}
	return authPattern.MatchString(err.Error())
}

type conn struct {
	cli   *imapclient.Client
	notif chan struct{}
	done  chan error

	mu        sync.Mutex
	idle      *imapclient.IdleCommand
	suspended bool
	closed    bool
}

func (c *conn) Notifications() <-chan struct{} { return c.notif }
func (c *conn) Done() <-chan error             { return c.done }

// beginIdle enters IDLE so the server pushes new-mail notifications. A
// watcher goroutine reports unexpected IDLE termination as connection loss.
func (c *conn) beginIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.idle != nil {
		return
	}
	cmd, err := c.cli.Idle()
	if err != nil {
		c.report(fmt.Errorf("imap idle: %w", err))
		return
	}
	c.idle = cmd
	go c.watchIdle(cmd)
}

func (c *conn) watchIdle(cmd *imapclient.IdleCommand) {
	err := cmd.Wait()
	c.mu.Lock()
	expected := c.suspended || c.closed
	c.mu.Unlock()
	if expected {
		return
	}
	if err == nil {
		err = fmt.Errorf("imap idle ended")
	}
	c.report(err)
}

// suspendIdle leaves IDLE so a regular command can run.
func (c *conn) suspendIdle() {
	c.mu.Lock()
	cmd := c.idle
	c.idle = nil
	c.suspended = cmd != nil
	c.mu.Unlock()

	if cmd != nil {
		_ = cmd.Close()
		_ = cmd.Wait()
		c.mu.Lock()
		c.suspended = false
		c.mu.Unlock()
	}
}

func (c *conn) report(err error) {
	select {
	case c.done <- err:
	default:
	}
}

func (c *conn) SearchUnread(ctx context.Context) ([]uint32, error) {
	c.suspendIdle()
	defer c.beginIdle()

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	data, err := c.cli.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search unseen: %w", err)
	}
	return lo.Map(data.AllUIDs(), func(uid imap.UID, _ int) uint32 {
		return uint32(uid)
	}), nil
}

// Fetch retrieves and parses one message. The non-peek body fetch marks it
// seen on the server.
func (c *conn) Fetch(ctx context.Context, id uint32) (mailbox.Message, error) {
	c.suspendIdle()
	defer c.beginIdle()

	section := &imap.FetchItemBodySection{}
	msgs, err := c.cli.Fetch(imap.UIDSetNum(imap.UID(id)), &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return mailbox.Message{}, fmt.Errorf("imap fetch %d: %w", id, err)
	}
	if len(msgs) == 0 {
		return mailbox.Message{}, fmt.Errorf("imap fetch %d: no message returned", id)
	}
	raw := msgs[0].FindBodySection(section)
	if len(raw) == 0 {
		return mailbox.Message{}, fmt.Errorf("imap fetch %d: empty body", id)
	}
	return parseMessage(raw)
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cmd := c.idle
	c.idle = nil
	c.mu.Unlock()

	if cmd != nil {
		_ = cmd.Close()
	}
	return c.cli.Close()
}

// maskAddress hides most of the local part for logging, e.g.
// "watcher@example.com" -> "w***@example.com".
func maskAddress(addr string) string {
	at := strings.IndexByte(addr, '@')
	if at < 1 {
		return addr
	}
	return addr[:1] + "***" + addr[at:]
}
