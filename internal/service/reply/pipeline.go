package reply

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/belexwatch/price-watcher/internal/service/mailbox"
	"github.com/belexwatch/price-watcher/internal/service/notification"
	"github.com/belexwatch/price-watcher/internal/service/store"
	"github.com/belexwatch/price-watcher/pkg/metrics"
)

// Outcome says how an incoming message was handled.
type Outcome int

const (
	OutcomeNoSender Outcome = iota
	OutcomeNoSymbol
	OutcomeCooldown
	OutcomeReplied
	OutcomeRepliedNoData
	OutcomeSendFailed
	OutcomeGuidance
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoSender:
		return "no_sender"
	case OutcomeNoSymbol:
		return "no_symbol"
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeReplied:
		return "replied"
	case OutcomeRepliedNoData:
		return "replied_no_data"
	case OutcomeSendFailed:
		return "send_failed"
	case OutcomeGuidance:
		return "guidance"
	default:
		return "unknown"
	}
}

// Pipeline answers price questions arriving by mail.
type Pipeline struct {
	extract  Extractor
	prices   *store.Store
	mailer   notification.EmailService
	limiter  *RateLimiter
	metrics  metrics.Recorder
	guidance bool
}

type Option func(*Pipeline)

// WithGuidanceReply makes the pipeline answer messages that mention no
// watched symbol with a short usage hint instead of staying silent.
func WithGuidanceReply() Option {
	return func(p *Pipeline) {
		p.guidance = true
	}
}

func NewPipeline(extract Extractor, prices *store.Store, mailer notification.EmailService,
	limiter *RateLimiter, rec metrics.Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		extract: extract,
		prices:  prices,
		mailer:  mailer,
		limiter: limiter,
		metrics: rec,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle processes one incoming message and reports the outcome. Replies to
// the same sender are throttled by the cooldown regardless of whether the
// send itself succeeds.
func (p *Pipeline) Handle(ctx context.Context, msg mailbox.Message) Outcome {
	if msg.From == "" {
		slog.Warn("mail without sender, skipping", "subject", msg.Subject)
		return OutcomeNoSender
	}

	sym, ok := p.extract.Extract(ctx, msg.Subject, msg.Body)
	if !ok {
		if p.guidance {
			return p.sendGuidance(ctx, msg)
		}
		slog.Info("mail mentions no watched symbol", "from", msg.From)
		return OutcomeNoSymbol
	}

	if !p.limiter.Allow(msg.From) {
		slog.Info("reply throttled", "from", msg.From, "symbol", sym)
		p.metrics.RecordReply("throttled")
		return OutcomeCooldown
	}

	subject := replySubject(msg.Subject, sym)
	rec, found := p.prices.LookupDurable(ctx, sym)

	var body string
	outcome := OutcomeReplied
	if found {
		body = fmt.Sprintf("Trenutna (keširana) cena za %s je %s.\n\nPozdrav,\nBelex Watcher",
			sym, formatPrice(rec.Last))
	} else {
		body = fmt.Sprintf("Trenutno nemam podatke o ceni za %s. Molim pokušajte kasnije.", sym)
		outcome = OutcomeRepliedNoData
	}

	p.limiter.Record(msg.From)
	if err := p.mailer.SendText(ctx, []string{msg.From}, subject, body); err != nil {
		slog.Error("reply send failed", "to", msg.From, "symbol", sym, "err", err)
		p.metrics.RecordReply("send_failed")
		return OutcomeSendFailed
	}
	p.metrics.RecordReply(outcome.String())
	slog.Info("replied with price", "to", msg.From, "symbol", sym, "found", found)
	return outcome
}

func (p *Pipeline) sendGuidance(ctx context.Context, msg mailbox.Message) Outcome {
	if !p.limiter.Allow(msg.From) {
		return OutcomeCooldown
	}
	p.limiter.Record(msg.From)
	body := "Nisam prepoznao simbol akcije u vašoj poruci. " +
		"Pošaljite poruku koja sadrži simbol, npr. \"cena NIIS\"."
	if err := p.mailer.SendText(ctx, []string{msg.From}, replySubject(msg.Subject, ""), body); err != nil {
		slog.Error("guidance send failed", "to", msg.From, "err", err)
		return OutcomeSendFailed
	}
	p.metrics.RecordReply("guidance")
	return OutcomeGuidance
}

func replySubject(orig, sym string) string {
	orig = strings.TrimSpace(orig)
	if orig != "" {
		return "Re: " + orig
	}
	if sym != "" {
		return "Cena " + sym
	}
	return "Re: vaša poruka"
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
