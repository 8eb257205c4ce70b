package worker

import (
	"context"
	"encoding/json"

	"github.com/nexconsult/zipcase/internal/queue"
)

// CaseDataWorker consumes CaseDataQueue and runs the Case-Data Worker
// logic from spec.md §4.7.
type CaseDataWorker struct {
	deps *Deps
	pool *pool
}

func NewCaseDataWorker(size int, deps *Deps) *CaseDataWorker {
	w := &CaseDataWorker{deps: deps}
	w.pool = newPool(size, "casedata-worker", deps.CaseDataQueue.Receive, w.handle, deps.Logger)
	return w
}

func (w *CaseDataWorker) Start() { w.pool.Start() }
func (w *CaseDataWorker) Stop()  { w.pool.Stop() }

func (w *CaseDataWorker) handle(ctx context.Context, msg queue.Message) {
	_, body, err := queue.DecodeEnvelope(msg.Payload)
	if err != nil {
		w.deps.Logger.WithError(err).WithField("id", msg.ID).Error("casedata worker: malformed envelope, acking to drop")
		_ = w.deps.CaseDataQueue.Ack(ctx, msg.ID)
		return
	}

	var job queue.FetchSummaryJob
	shouldAck := true
	if err := json.Unmarshal(body, &job); err != nil {
		w.deps.Logger.WithError(err).WithField("id", msg.ID).Error("casedata worker: malformed job, acking to drop")
	} else {
		shouldAck = w.deps.handleCaseData(ctx, job, msg.DeliveryCount)
	}

	if shouldAck {
		if err := w.deps.CaseDataQueue.Ack(ctx, msg.ID); err != nil {
			w.deps.Logger.WithError(err).WithField("id", msg.ID).Warn("casedata worker: ack failed")
		}
	}
}
