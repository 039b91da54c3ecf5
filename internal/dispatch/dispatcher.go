// Package dispatch fans one alert out to its matched (stakeholder, channel)
// pairs. Every pair is an independent unit of work: a failure, timeout or
// unconfigured provider on one never aborts the others, and each attempt
// leaves exactly one notification log entry.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-coastal-alerts/internal/directory"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
	"github.com/mr1hm/go-coastal-alerts/internal/repository"
	"github.com/mr1hm/go-coastal-alerts/internal/worker"
)

// Provider sends one rendered message to one target. Implementations must
// honor the context deadline. Configured reports whether credentials are
// present; unconfigured providers are skipped without being called.
type Provider interface {
	Send(ctx context.Context, target, message string) error
	Configured() bool
}

type Timeouts struct {
	SMS     time.Duration
	Email   time.Duration
	Webhook time.Duration
}

func (t Timeouts) forChannel(c models.ChannelType) time.Duration {
	var d time.Duration
	switch c {
	case models.ChannelSMS:
		d = t.SMS
	case models.ChannelEmail:
		d = t.Email
	case models.ChannelWebhook:
		d = t.Webhook
	}
	if d <= 0 {
		d = 10 * time.Second
	}
	return d
}

type Options struct {
	Workers    int
	BufferSize int
	Timeouts   Timeouts
	// Now is swapped out in tests.
	Now func() time.Time
}

type deliveryJob struct {
	alert *models.Alert
	match directory.Match
	wg    *sync.WaitGroup
}

type Dispatcher struct {
	providers map[models.ChannelType]Provider
	log       repository.NotificationLogRepository
	timeouts  Timeouts
	pool      *worker.Pool[deliveryJob]
	now       func() time.Time
}

func NewDispatcher(providers map[models.ChannelType]Provider, log repository.NotificationLogRepository, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &Dispatcher{
		providers: providers,
		log:       log,
		timeouts:  opts.Timeouts,
		now:       opts.Now,
	}
	d.pool = worker.NewPool(opts.Workers, opts.BufferSize, d.deliver)
	return d
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

func (d *Dispatcher) Stop() {
	d.pool.Stop()
}

// Distribute delivers the alert to every matched pair and returns once all
// of this alert's deliveries have been logged. The worker pool is shared,
// so concurrent alerts interleave without blocking each other.
//
// Replay is safe: pairs already logged with a terminal sent/failed status
// are not re-attempted; pairs whose last entry is skipped are retried.
func (d *Dispatcher) Distribute(ctx context.Context, a *models.Alert, matches []directory.Match) {
	logged := d.terminalPairs(ctx, a.ID)

	var wg sync.WaitGroup
	submitted := 0
	for _, m := range matches {
		if logged[pairKey(m.Channel)] {
			continue
		}
		wg.Add(1)
		d.pool.Submit(deliveryJob{alert: a, match: m, wg: &wg})
		submitted++
	}
	wg.Wait()

	slog.Info("alert distributed",
		"alert_id", a.ID,
		"matched", len(matches),
		"attempted", submitted,
	)
}

// terminalPairs returns the channel/target keys already logged sent or
// failed for the alert. A log read failure disables dedup for this run
// rather than aborting distribution.
func (d *Dispatcher) terminalPairs(ctx context.Context, alertID string) map[string]bool {
	entries, err := d.log.ByAlert(ctx, alertID)
	if err != nil {
		slog.Error("failed to read notification log, replay dedup disabled", "alert_id", alertID, "error", err)
		return nil
	}

	logged := make(map[string]bool)
	for _, e := range entries {
		key := string(e.ChannelType) + "|" + e.Target
		switch e.Status {
		case models.DeliverySent, models.DeliveryFailed:
			logged[key] = true
		case models.DeliverySkipped:
			// Latest entry wins: a later terminal status sticks, a later
			// skip re-opens the pair.
			delete(logged, key)
		}
	}
	return logged
}

func pairKey(c models.NotificationChannel) string {
	return string(c.Type) + "|" + c.Target
}

func (d *Dispatcher) deliver(ctx context.Context, job deliveryJob) {
	defer job.wg.Done()

	a := job.alert
	ch := job.match.Channel

	provider, ok := d.providers[ch.Type]
	if !ok || !provider.Configured() {
		d.record(ctx, &models.NotificationLogEntry{
			AlertID:      a.ID,
			ChannelType:  ch.Type,
			Target:       ch.Target,
			Timestamp:    d.now().UTC(),
			Status:       models.DeliverySkipped,
			ErrorMessage: fmt.Sprintf("%s provider not configured", ch.Type),
		})
		return
	}

	message, err := d.render(a, job.match)
	if err == nil {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeouts.forChannel(ch.Type))
		err = safeSend(sendCtx, provider, ch.Target, message)
		cancel()
	}

	entry := &models.NotificationLogEntry{
		AlertID:     a.ID,
		ChannelType: ch.Type,
		Target:      ch.Target,
		Timestamp:   d.now().UTC(),
	}
	if err != nil {
		entry.Status = models.DeliveryFailed
		entry.ErrorMessage = err.Error()
		slog.Warn("delivery failed",
			"alert_id", a.ID,
			"channel", ch.Type,
			"target", ch.Target,
			"error", err,
		)
	} else {
		entry.Status = models.DeliverySent
		entry.Message = message
		slog.Debug("delivery sent", "alert_id", a.ID, "channel", ch.Type, "target", ch.Target)
	}

	d.record(ctx, entry)
}

func (d *Dispatcher) render(a *models.Alert, m directory.Match) (string, error) {
	switch m.Channel.Type {
	case models.ChannelSMS:
		return renderSMS(a), nil
	case models.ChannelEmail:
		return renderEmail(a, m.Stakeholder), nil
	case models.ChannelWebhook:
		return renderWebhook(a, m.Stakeholder)
	default:
		return "", fmt.Errorf("unsupported channel type: %s", m.Channel.Type)
	}
}

// safeSend contains provider panics so a misbehaving provider degrades to
// a failed log entry instead of taking down the worker.
func safeSend(ctx context.Context, p Provider, target, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return p.Send(ctx, target, message)
}

func (d *Dispatcher) record(ctx context.Context, e *models.NotificationLogEntry) {
	// The log write must not inherit an expired send deadline.
	if err := d.log.Append(context.WithoutCancel(ctx), e); err != nil {
		slog.Error("failed to append notification log entry",
			"alert_id", e.AlertID,
			"channel", e.ChannelType,
			"target", e.Target,
			"error", err,
		)
	}
}
