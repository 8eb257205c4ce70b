package worker

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/apperr"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/portal"
	"github.com/nexconsult/zipcase/internal/queue"
)

// handleResolve implements spec.md §4.6. It returns true when msg should
// be acked (terminal outcome, or a lost race) and false when it should
// be left pending for queue redelivery (a transient failure).
func (d *Deps) handleResolve(ctx context.Context, job queue.ResolveJob, deliveryCount int64) bool {
	caseNumber := models.CaseNumber(job.CaseNumber)
	logger := d.Logger.WithFields(logrus.Fields{"caseNumber": caseNumber, "userId": job.UserID})

	if d.MaxDeliveries > 0 && deliveryCount > d.MaxDeliveries {
		d.failCase(ctx, caseNumber, "max_attempts", job.UserID, "", logger)
		return true
	}

	session, err := d.Auth.GetOrCreateSession(ctx, job.UserID, job.UserAgent)
	if err != nil {
		d.failCase(ctx, caseNumber, authFailureMessage(err), job.UserID, "", logger)
		return true
	}

	acquired, err := d.CS.TryTransition(ctx, caseNumber, models.Processing(), models.StatusQueued, models.StatusReprocessing)
	if err != nil {
		logger.WithError(err).Warn("resolve: lease transition failed")
		return false
	}
	if !acquired {
		current, err := d.CS.Case(ctx, caseNumber)
		if err != nil || current.FetchStatus.Tag != models.StatusProcessing {
			return true
		}
	}

	doc, err := d.Client.SmartSearchByCaseNumber(ctx, session, job.CaseNumber, job.UserAgent)
	if errors.Is(err, portal.ErrSessionExpired) {
		refreshed, refreshErr := d.Auth.Refresh(ctx, job.UserID, job.UserAgent)
		if refreshErr != nil {
			d.failCase(ctx, caseNumber, authFailureMessage(refreshErr), job.UserID, "", logger)
			return true
		}
		doc, err = d.Client.SmartSearchByCaseNumber(ctx, refreshed, job.CaseNumber, job.UserAgent)
	}
	if errors.Is(err, portal.ErrTransient) {
		logger.WithError(err).Debug("resolve: transient portal error, leaving for redelivery")
		return false
	}
	if errors.Is(err, portal.ErrPortalBusy) {
		d.failCase(ctx, caseNumber, "portal_busy", job.UserID, "", logger)
		return true
	}
	if err != nil {
		d.failCase(ctx, caseNumber, string(apperr.Internal), job.UserID, "", logger)
		return true
	}

	link, ok := portal.ParseFirstCaseLink(doc)
	if !ok {
		if err := d.CS.PutCase(ctx, models.ZipCase{CaseNumber: caseNumber, FetchStatus: models.NotFoundStatus()}); err != nil {
			logger.WithError(err).Error("resolve: failed to record notFound")
		}
		return true
	}

	if err := d.CS.PutCase(ctx, models.ZipCase{CaseNumber: caseNumber, FetchStatus: models.Found(), CaseID: link.CaseID}); err != nil {
		logger.WithError(err).Error("resolve: failed to record found")
		return false
	}

	if _, err := d.CaseDataQueue.Send(ctx, queue.FetchSummaryJob{
		CaseNumber: job.CaseNumber,
		CaseID:     link.CaseID,
		UserID:     job.UserID,
		UserAgent:  job.UserAgent,
	}); err != nil {
		logger.WithError(err).Error("resolve: failed to enqueue fetch-summary job")
		return false
	}

	return true
}

// failCase records a terminal failed status on caseNumber and raises an
// alert, per spec.md §4.10 ("every worker failure path produces an
// alert").
func (d *Deps) failCase(ctx context.Context, caseNumber models.CaseNumber, message, userID, searchID string, logger *logrus.Entry) {
	if err := d.CS.PutCase(ctx, models.ZipCase{CaseNumber: caseNumber, FetchStatus: models.Failed(message)}); err != nil {
		logger.WithError(err).Error("worker: failed to record failed status")
	}
	d.Alerts.Notify(ctx, models.Alert{
		Category:   models.CategoryPortal,
		Severity:   models.SeverityError,
		Message:    message,
		UserID:     userID,
		CaseNumber: caseNumber,
		SearchID:   searchID,
	})
}

// authFailureMessage derives the failed{message} text from a PA error,
// per spec.md §4.6 step 1.
func authFailureMessage(err error) string {
	if appErr, ok := apperr.As(err); ok {
		return string(appErr.Code)
	}
	return string(apperr.Internal)
}
