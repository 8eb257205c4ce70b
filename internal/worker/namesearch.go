package worker

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/portal"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

// handleNameSearch implements spec.md §4.8. Like handleResolve it
// returns true when the message should be acked.
func (d *Deps) handleNameSearch(ctx context.Context, job queue.NameSearchJob, deliveryCount int64) bool {
	logger := d.Logger.WithFields(logrus.Fields{"searchId": job.SearchID, "userId": job.UserID})

	if d.MaxDeliveries > 0 && deliveryCount > d.MaxDeliveries {
		d.failNameSearch(ctx, job.SearchID, "max_attempts", job.UserID, logger)
		return true
	}

	data, err := d.NSS.NameSearch(ctx, job.SearchID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("namesearch: entry expired before worker could claim it")
		return true
	}
	if err != nil {
		logger.WithError(err).Warn("namesearch: store read failed")
		return false
	}

	data.Status = models.NameSearchProcessing
	if err := d.NSS.PutNameSearch(ctx, *data); err != nil {
		logger.WithError(err).Warn("namesearch: failed to mark processing")
		return false
	}

	session, err := d.Auth.GetOrCreateSession(ctx, job.UserID, job.UserAgent)
	if err != nil {
		d.failNameSearch(ctx, job.SearchID, authFailureMessage(err), job.UserID, logger)
		return true
	}

	params := portal.PartySearchParams{
		NormalizedName: job.Name,
		DateOfBirth:    job.DateOfBirth,
		SoundsLike:     job.SoundsLike,
		CriminalOnly:   job.CriminalOnly,
	}
	doc, err := d.Client.SmartSearchByParty(ctx, session, params, job.UserAgent)
	if errors.Is(err, portal.ErrSessionExpired) {
		refreshed, refreshErr := d.Auth.Refresh(ctx, job.UserID, job.UserAgent)
		if refreshErr != nil {
			d.failNameSearch(ctx, job.SearchID, authFailureMessage(refreshErr), job.UserID, logger)
			return true
		}
		doc, err = d.Client.SmartSearchByParty(ctx, refreshed, params, job.UserAgent)
	}
	if errors.Is(err, portal.ErrTransient) {
		logger.WithError(err).Debug("namesearch: transient portal error, leaving for redelivery")
		return false
	}
	if errors.Is(err, portal.ErrPortalBusy) {
		d.failNameSearch(ctx, job.SearchID, "portal_busy", job.UserID, logger)
		return true
	}
	if err != nil {
		logger.WithError(err).Error("namesearch: unexpected portal error")
		d.failNameSearch(ctx, job.SearchID, "internal", job.UserID, logger)
		return true
	}

	links := portal.ParseAllCaseLinks(doc)
	cases := make([]models.CaseNumber, 0, len(links))
	for _, link := range links {
		d.seedDiscoveredCase(ctx, link, job.UserID, job.UserAgent, logger)
		cases = append(cases, link.CaseNumber)
	}

	data.Status = models.NameSearchComplete
	data.Cases = cases
	if err := d.NSS.PutNameSearch(ctx, *data); err != nil {
		logger.WithError(err).Error("namesearch: failed to record complete status")
		return false
	}

	return true
}

// seedDiscoveredCase mirrors the Case Search Processor's seed step
// (spec.md §4.4) for a case discovered by name search: the case must
// exist in CS, queued, before a Resolve job can claim its processing
// lease.
func (d *Deps) seedDiscoveredCase(ctx context.Context, link portal.CaseLink, userID, userAgent string, logger *logrus.Entry) {
	_, err := d.CS.Case(ctx, link.CaseNumber)
	if errors.Is(err, store.ErrNotFound) {
		if err := d.CS.PutCase(ctx, models.ZipCase{CaseNumber: link.CaseNumber, FetchStatus: models.Queued()}); err != nil {
			logger.WithError(err).WithField("caseNumber", link.CaseNumber).Warn("namesearch: failed to seed discovered case")
			return
		}
	} else if err != nil {
		logger.WithError(err).WithField("caseNumber", link.CaseNumber).Warn("namesearch: failed to read discovered case")
		return
	}

	if _, err := d.SearchQueue.SendResolve(ctx, queue.ResolveJob{
		CaseNumber: string(link.CaseNumber), UserID: userID, UserAgent: userAgent,
	}); err != nil {
		logger.WithError(err).WithField("caseNumber", link.CaseNumber).Warn("namesearch: failed to enqueue resolve job")
	}
}

func (d *Deps) failNameSearch(ctx context.Context, searchID, message, userID string, logger *logrus.Entry) {
	data, err := d.NSS.NameSearch(ctx, searchID)
	if err != nil {
		logger.WithError(err).Error("namesearch: failed to load entry to record failure")
	} else {
		data.Status = models.NameSearchFailed
		data.Message = message
		if err := d.NSS.PutNameSearch(ctx, *data); err != nil {
			logger.WithError(err).Error("namesearch: failed to record failed status")
		}
	}
	d.Alerts.Notify(ctx, models.Alert{
		Category: models.CategoryPortal,
		Severity: models.SeverityError,
		Message:  message,
		UserID:   userID,
		SearchID: searchID,
	})
}
