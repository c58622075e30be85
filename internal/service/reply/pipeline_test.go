package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/belexwatch/price-watcher/internal/service/mailbox"
	"github.com/belexwatch/price-watcher/internal/service/store"
	"github.com/belexwatch/price-watcher/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendText(ctx context.Context, to []string, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func (m *MockEmailService) SendHTML(ctx context.Context, to []string, subject, text, html string) error {
	args := m.Called(ctx, to, subject, text, html)
	return args.Error(0)
}

type mapBackend struct {
	snap store.Snapshot
}

func (b *mapBackend) Load(context.Context) (store.Snapshot, error) {
	return b.snap.Clone(), nil
}

func (b *mapBackend) Store(_ context.Context, snap store.Snapshot) error {
	b.snap = snap.Clone()
	return nil
}

func newPipeline(t *testing.T, snap store.Snapshot, opts ...Option) (*Pipeline, *MockEmailService) {
	t.Helper()
	mailer := new(MockEmailService)
	prices := store.New(&mapBackend{snap: snap})
	p := NewPipeline(NewRegexExtractor(watched), prices, mailer,
		NewRateLimiter(time.Hour), metrics.NewNop(), opts...)
	return p, mailer
}

func TestHandleRepliesWithDurablePrice(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{
		"NIIS": {Last: 5638.5, Ts: 1756700000000},
	})
	mailer.On("SendText", mock.Anything, []string{"pera@example.com"},
		"Re: cena NIIS",
		"Trenutna (keširana) cena za NIIS je 5638.5.\n\nPozdrav,\nBelex Watcher").
		Return(nil)

	out := p.Handle(context.Background(), mailbox.Message{
		From:    "pera@example.com",
		Subject: "cena NIIS",
		Body:    "koliko je danas?",
	})

	assert.Equal(t, OutcomeReplied, out)
	mailer.AssertExpectations(t)
}

func TestHandleRepliesNoDataForUnknownPrice(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{})
	mailer.On("SendText", mock.Anything, []string{"pera@example.com"},
		"Cena INFM",
		"Trenutno nemam podatke o ceni za INFM. Molim pokušajte kasnije.").
		Return(nil)

	out := p.Handle(context.Background(), mailbox.Message{
		From: "pera@example.com",
		Body: "INFM?",
	})

	assert.Equal(t, OutcomeRepliedNoData, out)
	mailer.AssertExpectations(t)
}

func TestHandleIgnoresMessageWithoutSymbol(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{})

	out := p.Handle(context.Background(), mailbox.Message{
		From:    "pera@example.com",
		Subject: "pozdrav",
		Body:    "samo da se javim",
	})

	assert.Equal(t, OutcomeNoSymbol, out)
	mailer.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleGuidanceReplyWhenEnabled(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{}, WithGuidanceReply())
	mailer.On("SendText", mock.Anything, []string{"pera@example.com"},
		"Re: pozdrav", mock.Anything).Return(nil)

	out := p.Handle(context.Background(), mailbox.Message{
		From:    "pera@example.com",
		Subject: "pozdrav",
		Body:    "samo da se javim",
	})

	assert.Equal(t, OutcomeGuidance, out)
	mailer.AssertExpectations(t)
}

func TestHandleThrottlesRepeatSender(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{
		"AERO": {Last: 1200, Ts: 1756700000000},
	})
	mailer.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	msg := mailbox.Message{From: "pera@example.com", Subject: "cena AERO"}
	assert.Equal(t, OutcomeReplied, p.Handle(context.Background(), msg))
	assert.Equal(t, OutcomeCooldown, p.Handle(context.Background(), msg))

	mailer.AssertExpectations(t)
}

func TestHandleCooldownCoversFailedSend(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{
		"AERO": {Last: 1200, Ts: 1756700000000},
	})
	mailer.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down")).Once()

	msg := mailbox.Message{From: "pera@example.com", Subject: "cena AERO"}
	assert.Equal(t, OutcomeSendFailed, p.Handle(context.Background(), msg))

	// the attempt still counts against the sender's cooldown
	assert.Equal(t, OutcomeCooldown, p.Handle(context.Background(), msg))
	mailer.AssertExpectations(t)
}

func TestHandleSkipsSenderlessMail(t *testing.T) {
	p, mailer := newPipeline(t, store.Snapshot{})

	out := p.Handle(context.Background(), mailbox.Message{Subject: "cena NIIS"})

	assert.Equal(t, OutcomeNoSender, out)
	mailer.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
