package worker

import (
	"context"
	"encoding/json"

	"github.com/nexconsult/zipcase/internal/queue"
)

// SearchWorker consumes SearchQueue, dispatching each message to the
// Resolve or Name-Search handling logic by its envelope kind. Both
// roles share one stream and one consumer group (see queue.SearchQueue),
// so one physical pool serves both, the way spec.md §2 describes them
// sharing intake.
type SearchWorker struct {
	deps *Deps
	pool *pool
}

func NewSearchWorker(size int, deps *Deps) *SearchWorker {
	w := &SearchWorker{deps: deps}
	w.pool = newPool(size, "search-worker", deps.SearchQueue.Receive, w.handle, deps.Logger)
	return w
}

func (w *SearchWorker) Start() { w.pool.Start() }
func (w *SearchWorker) Stop()  { w.pool.Stop() }

func (w *SearchWorker) handle(ctx context.Context, msg queue.Message) {
	kind, body, err := queue.DecodeEnvelope(msg.Payload)
	if err != nil {
		w.deps.Logger.WithError(err).WithField("id", msg.ID).Error("search worker: malformed envelope, acking to drop")
		_ = w.deps.SearchQueue.Ack(ctx, msg.ID)
		return
	}

	var shouldAck bool
	switch kind {
	case queue.KindResolve:
		var job queue.ResolveJob
		if err := json.Unmarshal(body, &job); err != nil {
			w.deps.Logger.WithError(err).WithField("id", msg.ID).Error("search worker: malformed resolve job, acking to drop")
			shouldAck = true
		} else {
			shouldAck = w.deps.handleResolve(ctx, job, msg.DeliveryCount)
		}
	case queue.KindNameSearch:
		var job queue.NameSearchJob
		if err := json.Unmarshal(body, &job); err != nil {
			w.deps.Logger.WithError(err).WithField("id", msg.ID).Error("search worker: malformed name-search job, acking to drop")
			shouldAck = true
		} else {
			shouldAck = w.deps.handleNameSearch(ctx, job, msg.DeliveryCount)
		}
	default:
		w.deps.Logger.WithField("kind", kind).WithField("id", msg.ID).Warn("search worker: unknown job kind, acking to drop")
		shouldAck = true
	}

	if shouldAck {
		if err := w.deps.SearchQueue.Ack(ctx, msg.ID); err != nil {
			w.deps.Logger.WithError(err).WithField("id", msg.ID).Warn("search worker: ack failed")
		}
	}
}
