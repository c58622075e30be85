package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/belexwatch/price-watcher/internal/service/hub"
	"github.com/belexwatch/price-watcher/internal/service/notification"
	"github.com/belexwatch/price-watcher/pkg/metrics"
)

// Dispatcher sends threshold-crossing alerts by mail. Alerts are
// best-effort: a failed send is logged and swallowed so the poll cycle is
// never blocked or failed by mail trouble.
type Dispatcher struct {
	mailer     notification.EmailService
	events     *hub.Hub
	recipients []string
	metrics    metrics.Recorder
}

func NewDispatcher(mailer notification.EmailService, events *hub.Hub, recipients []string, rec metrics.Recorder) *Dispatcher {
	return &Dispatcher{
		mailer:     mailer,
		events:     events,
		recipients: recipients,
		metrics:    rec,
	}
}

// MaybeAlert dispatches one alert for a significant change. The caller has
// already applied the threshold.
func (d *Dispatcher) MaybeAlert(ctx context.Context, symbol string, previous, current, changePct float64) {
	subject := fmt.Sprintf("ALERT: %s promena %.2f%%", symbol, changePct)
	text := fmt.Sprintf("%s promena sa %s na %s (%.2f%%).",
		symbol, formatPrice(previous), formatPrice(current), changePct)
	html := fmt.Sprintf("<p><b>%s</b> promena sa <b>%s</b> na <b>%s</b> (<b>%.2f%%</b>).</p>",
		symbol, formatPrice(previous), formatPrice(current), changePct)

	d.metrics.RecordAlert(symbol)
	if err := d.mailer.SendHTML(ctx, d.recipients, subject, text, html); err != nil {
		slog.Error("failed to send alert email", "symbol", symbol, "error", err)
	} else {
		slog.Info("alert email sent", "symbol", symbol, "change_pct", changePct)
	}

	d.events.Publish(hub.NewStatus(fmt.Sprintf("ALERT %s %.2f%%", symbol, changePct)))
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
