// Package worker implements the three consumer loops from spec.md
// §4.6-§4.8: the Resolve Worker and Name-Search Worker (both reading
// SearchQueue) and the Case-Data Worker (reading CaseDataQueue).
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/queue"
)

// pollBlock is how long a single Receive call blocks waiting for new
// stream entries before looping back to check for shutdown.
const pollBlock = 2 * time.Second

// receiveCount is how many messages a single Receive call claims at once.
const receiveCount = 10

// pool runs size goroutines that repeatedly receive and handle messages
// from a queue, following the same ctx/cancel/sync.WaitGroup lifecycle
// as the rest of this codebase's background loops.
type pool struct {
	size           int
	consumerPrefix string
	receive        func(ctx context.Context, consumer string, count int64, block time.Duration) ([]queue.Message, error)
	handle         func(ctx context.Context, msg queue.Message)
	logger         *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newPool(size int, consumerPrefix string, receive func(context.Context, string, int64, time.Duration) ([]queue.Message, error), handle func(context.Context, queue.Message), logger *logrus.Logger) *pool {
	return &pool{size: size, consumerPrefix: consumerPrefix, receive: receive, handle: handle, logger: logger}
}

func (p *pool) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.WithFields(logrus.Fields{"pool": p.consumerPrefix, "size": p.size}).Info("worker: pool started")
}

func (p *pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.WithField("pool", p.consumerPrefix).Info("worker: pool stopped")
}

func (p *pool) run(index int) {
	defer p.wg.Done()
	consumer := fmt.Sprintf("%s-%d", p.consumerPrefix, index)

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		msgs, err := p.receive(p.ctx, consumer, receiveCount, pollBlock)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.logger.WithError(err).WithField("consumer", consumer).Warn("worker: receive failed")
			continue
		}

		for _, msg := range msgs {
			p.handle(p.ctx, msg)
		}
	}
}
