package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Reclaimer periodically sweeps a queue for messages stuck past their
// visibility timeout and hands them back to handler, mirroring the
// start/stop goroutine lifecycle the rest of this codebase's worker
// pools already use.
type Reclaimer struct {
	interval time.Duration
	consumer string
	count    int64
	logger   *logrus.Logger

	reclaim func(ctx context.Context, consumer string, count int64) ([]Message, error)
	handler func(Message)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReclaimer(reclaim func(context.Context, string, int64) ([]Message, error), handler func(Message), interval time.Duration, consumer string, count int64, logger *logrus.Logger) *Reclaimer {
	return &Reclaimer{
		interval: interval,
		consumer: consumer,
		count:    count,
		logger:   logger,
		reclaim:  reclaim,
		handler:  handler,
	}
}

// Start begins the sweep loop in a background goroutine.
func (r *Reclaimer) Start() {
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.wg.Add(1)
	go r.run()
	r.logger.WithField("interval", r.interval).Debug("reclaimer started")
}

// Stop cancels the sweep loop and waits for the in-flight sweep to finish.
func (r *Reclaimer) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.logger.Debug("reclaimer stopped")
}

func (r *Reclaimer) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reclaimer) sweep() {
	msgs, err := r.reclaim(r.ctx, r.consumer, r.count)
	if err != nil {
		r.logger.WithError(err).Warn("reclaimer: sweep failed")
		return
	}
	for _, msg := range msgs {
		r.logger.WithFields(logrus.Fields{"id": msg.ID, "deliveryCount": msg.DeliveryCount}).Debug("reclaimer: reclaimed message")
		r.handler(msg)
	}
}
