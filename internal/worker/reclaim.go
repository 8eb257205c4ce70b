package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/queue"
)

// NewSearchReclaimer builds the staleness sweep for SearchQueue. The sweep
// runs every interval and claims messages left pending longer than the
// queue's visibility timeout; for each, a `processing` status is rewritten
// back to `queued` (or NSS's `queued`) before the message is handed to the
// same dispatch logic a fresh delivery would use. How long the status has
// been `processing` is not checked.
func NewSearchReclaimer(worker *SearchWorker, interval time.Duration, logger *logrus.Logger) *queue.Reclaimer {
	handler := func(msg queue.Message) {
		ctx := context.Background()
		kind, body, err := queue.DecodeEnvelope(msg.Payload)
		if err == nil {
			worker.deps.resetStale(ctx, kind, body, logger)
		}
		worker.handle(ctx, msg)
	}
	return queue.NewReclaimer(worker.deps.SearchQueue.Reclaim, handler, interval, "search-reclaimer", receiveCount, logger)
}

// NewCaseDataReclaimer is CaseDataQueue's equivalent sweep.
func NewCaseDataReclaimer(worker *CaseDataWorker, interval time.Duration, logger *logrus.Logger) *queue.Reclaimer {
	handler := func(msg queue.Message) {
		ctx := context.Background()
		_, body, err := queue.DecodeEnvelope(msg.Payload)
		if err == nil {
			worker.deps.resetStale(ctx, queue.KindFetchSummary, body, logger)
		}
		worker.handle(ctx, msg)
	}
	return queue.NewReclaimer(worker.deps.CaseDataQueue.Reclaim, handler, interval, "casedata-reclaimer", receiveCount, logger)
}

// resetStale rewrites a stuck `processing` status back to `queued`,
// freeing the lease so the upcoming handle call can re-acquire it.
// Failures are logged, not propagated: a best-effort reset that fails
// just falls through to handleResolve/handleCaseData's own
// already-processing tolerance.
func (d *Deps) resetStale(ctx context.Context, kind interface{}, body []byte, logger *logrus.Logger) {
	switch kind {
	case queue.KindResolve, queue.KindFetchSummary:
		var caseNumber models.CaseNumber
		var job struct {
			CaseNumber string `json:"caseNumber"`
		}
		if err := json.Unmarshal(body, &job); err != nil {
			return
		}
		caseNumber = models.CaseNumber(job.CaseNumber)
		if _, err := d.CS.TryTransition(ctx, caseNumber, models.Queued(), models.StatusProcessing); err != nil {
			logger.WithError(err).WithField("caseNumber", caseNumber).Warn("reclaimer: failed to reset stale status")
		}
	case queue.KindNameSearch:
		var job struct {
			SearchID string `json:"searchId"`
		}
		if err := json.Unmarshal(body, &job); err != nil {
			return
		}
		data, err := d.NSS.NameSearch(ctx, job.SearchID)
		if err != nil {
			return
		}
		if data.Status == models.NameSearchProcessing {
			data.Status = models.NameSearchQueued
			if err := d.NSS.PutNameSearch(ctx, *data); err != nil {
				logger.WithError(err).WithField("searchId", job.SearchID).Warn("reclaimer: failed to reset stale name search")
			}
		}
	}
}
