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

// handleCaseData implements spec.md §4.7.
func (d *Deps) handleCaseData(ctx context.Context, job queue.FetchSummaryJob, deliveryCount int64) bool {
	caseNumber := models.CaseNumber(job.CaseNumber)
	logger := d.Logger.WithFields(logrus.Fields{"caseNumber": caseNumber, "caseId": job.CaseID, "userId": job.UserID})

	if d.MaxDeliveries > 0 && deliveryCount > d.MaxDeliveries {
		d.failCase(ctx, caseNumber, "max_attempts", job.UserID, "", logger)
		return true
	}

	session, err := d.Auth.GetOrCreateSession(ctx, job.UserID, job.UserAgent)
	if err != nil {
		if appErr, ok := apperr.As(err); ok && appErr.Code == apperr.PortalUnavailable {
			logger.WithError(err).Debug("casedata: portal unavailable, leaving for redelivery")
			return false
		}
		d.failCase(ctx, caseNumber, authFailureMessage(err), job.UserID, "", logger)
		return true
	}

	acquired, err := d.CS.TryTransition(ctx, caseNumber, models.Processing(), models.StatusFound, models.StatusReprocessing)
	if err != nil {
		logger.WithError(err).Warn("casedata: lease transition failed")
		return false
	}
	if !acquired {
		current, err := d.CS.Case(ctx, caseNumber)
		if err != nil || current.FetchStatus.Tag != models.StatusProcessing {
			return true
		}
	}

	doc, err := d.Client.FetchCaseDetail(ctx, session, job.CaseID, job.UserAgent)
	if errors.Is(err, portal.ErrSessionExpired) {
		refreshed, refreshErr := d.Auth.Refresh(ctx, job.UserID, job.UserAgent)
		if refreshErr != nil {
			d.failCase(ctx, caseNumber, authFailureMessage(refreshErr), job.UserID, "", logger)
			return true
		}
		doc, err = d.Client.FetchCaseDetail(ctx, refreshed, job.CaseID, job.UserAgent)
	}
	if errors.Is(err, portal.ErrTransient) {
		logger.WithError(err).Debug("casedata: transient portal error, leaving for redelivery")
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

	summary := portal.ParseCaseDetail(doc)
	if err := d.CS.PutCaseSummary(ctx, caseNumber, *summary); err != nil {
		logger.WithError(err).Error("casedata: failed to persist summary")
		return false
	}

	completeStatus := models.FetchStatus{Tag: models.StatusComplete, TryCount: job.TryCount}
	if err := d.CS.PutCase(ctx, models.ZipCase{CaseNumber: caseNumber, FetchStatus: completeStatus, CaseID: job.CaseID}); err != nil {
		logger.WithError(err).Error("casedata: failed to record complete status")
		return false
	}

	return true
}
