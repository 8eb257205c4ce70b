// Package statusapi implements the Status API from spec.md §4.9/§4.10:
// batch status reads over the Case Store and Name-Search Store, plus
// the corruption-detection and reprocessing logic that used to live
// behind a detached "fire a promise from the read path" callback in the
// source. Here the status write and any follow-up enqueue happen inline,
// synchronously, before the response is built, so a client's very next
// poll already observes the flipped status.
package statusapi

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/alerting"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

// ErrNotFound is returned by LoadCase/LoadNameSearch when the requested
// key has never been seeded.
var ErrNotFound = store.ErrNotFound

// StatusAPI aggregates case and name-search state for the read-side
// HTTP endpoints (/status, /case/{caseNumber}, /name-search/{searchId}).
type StatusAPI struct {
	cs            *store.CaseStore
	nss           *store.NameSearchStore
	caseDataQueue *queue.CaseDataQueue
	alerts        *alerting.Notifier
	logger        *logrus.Logger
}

func New(cs *store.CaseStore, nss *store.NameSearchStore, caseDataQueue *queue.CaseDataQueue, alerts *alerting.Notifier, logger *logrus.Logger) *StatusAPI {
	return &StatusAPI{cs: cs, nss: nss, caseDataQueue: caseDataQueue, alerts: alerts, logger: logger}
}

// Canonicalize normalizes a caller-supplied case number the way the
// extractor canonicalizes ones it finds in free text, so a client that
// echoes back a caseNumber from a prior response still matches the
// stored key exactly.
func Canonicalize(caseNumber string) models.CaseNumber {
	return models.CaseNumber(strings.ToUpper(strings.TrimSpace(caseNumber)))
}

// LoadCases batch-loads the current view of every case number supplied.
// A case number that has never been seeded is simply absent from the
// returned map, per spec.md §8's boundary behavior for unknown cases.
func (a *StatusAPI) LoadCases(ctx context.Context, caseNumbers []string, userID, userAgent string) (map[models.CaseNumber]models.SearchResult, error) {
	results := make(map[models.CaseNumber]models.SearchResult, len(caseNumbers))
	for _, raw := range caseNumbers {
		caseNumber := Canonicalize(raw)
		if caseNumber == "" {
			continue
		}
		result, err := a.loadOne(ctx, caseNumber, userID, userAgent)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results[caseNumber] = *result
	}
	return results, nil
}

// LoadCase loads a single case, returning ErrNotFound if it has never
// been seeded (the handler maps that to a 404).
func (a *StatusAPI) LoadCase(ctx context.Context, caseNumber string, userID, userAgent string) (*models.SearchResult, error) {
	return a.loadOne(ctx, Canonicalize(caseNumber), userID, userAgent)
}

// LoadNameSearch loads a name search's own record plus the current
// status of every case it has discovered so far, merging them into the
// view GET /name-search/{searchId} returns.
func (a *StatusAPI) LoadNameSearch(ctx context.Context, searchID, userID, userAgent string) (*models.NameSearchResponse, error) {
	data, err := a.nss.NameSearch(ctx, searchID)
	if err != nil {
		return nil, err
	}

	results := make(map[models.CaseNumber]models.SearchResult, len(data.Cases))
	for _, caseNumber := range data.Cases {
		result, err := a.loadOne(ctx, caseNumber, userID, userAgent)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results[caseNumber] = *result
	}

	return &models.NameSearchResponse{
		SearchID:       data.SearchID,
		Status:         data.Status,
		Message:        data.Message,
		NormalizedName: data.NormalizedName,
		Results:        results,
	}, nil
}

// loadOne loads a single case and, if it is complete, validates the
// stored summary, applying the corruption-recovery state machine from
// spec.md §4.9/§8 when validation fails.
func (a *StatusAPI) loadOne(ctx context.Context, caseNumber models.CaseNumber, userID, userAgent string) (*models.SearchResult, error) {
	zipCase, err := a.cs.Case(ctx, caseNumber)
	if err != nil {
		return nil, err
	}
	result := &models.SearchResult{ZipCase: *zipCase}

	if zipCase.FetchStatus.Tag != models.StatusComplete {
		return result, nil
	}

	summary, err := a.cs.CaseSummary(ctx, caseNumber)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err == nil && summary.WellFormed() {
		result.CaseSummary = summary
		return result, nil
	}

	return a.recoverFromCorruption(ctx, *zipCase, userID, userAgent)
}

// recoverFromCorruption implements spec.md §9's re-architecting of the
// source's detached-promise cleanup: a well-formedness failure is either
// a first occurrence (kick off one reprocessing attempt) or a repeat
// (give up and record persistent_corruption), and either way the status
// write happens before this call returns.
func (a *StatusAPI) recoverFromCorruption(ctx context.Context, zipCase models.ZipCase, userID, userAgent string) (*models.SearchResult, error) {
	logger := a.logger.WithFields(logrus.Fields{"caseNumber": zipCase.CaseNumber, "caseId": zipCase.CaseID})

	if zipCase.FetchStatus.TryCount >= 1 {
		failed := models.Failed("persistent_corruption")
		if err := a.cs.PutCase(ctx, models.ZipCase{CaseNumber: zipCase.CaseNumber, FetchStatus: failed, CaseID: zipCase.CaseID}); err != nil {
			return nil, err
		}
		a.alerts.Notify(ctx, alerting.Corruption(zipCase.CaseNumber, "", "regenerated case summary is still malformed"))
		return &models.SearchResult{ZipCase: models.ZipCase{CaseNumber: zipCase.CaseNumber, FetchStatus: failed, CaseID: zipCase.CaseID}}, nil
	}

	if err := a.cs.DeleteCaseSummary(ctx, zipCase.CaseNumber); err != nil {
		logger.WithError(err).Warn("statusapi: failed to delete corrupted summary")
	}

	nextTryCount := zipCase.FetchStatus.TryCount + 1
	reprocessing := models.Reprocessing(nextTryCount)
	if err := a.cs.PutCase(ctx, models.ZipCase{CaseNumber: zipCase.CaseNumber, FetchStatus: reprocessing, CaseID: zipCase.CaseID}); err != nil {
		return nil, err
	}

	a.alerts.Notify(ctx, models.Alert{
		Category:   models.CategoryDatabase,
		Severity:   models.SeverityWarning,
		Message:    "case summary failed well-formedness check, reprocessing",
		UserID:     userID,
		CaseNumber: zipCase.CaseNumber,
	})

	if zipCase.CaseID != "" {
		job := queue.FetchSummaryJob{
			CaseNumber: string(zipCase.CaseNumber),
			CaseID:     zipCase.CaseID,
			UserID:     userID,
			UserAgent:  userAgent,
			TryCount:   nextTryCount,
		}
		if _, err := a.caseDataQueue.Send(ctx, job); err != nil {
			logger.WithError(err).Warn("statusapi: failed to enqueue reprocessing fetch")
		}
	}

	return &models.SearchResult{ZipCase: models.ZipCase{CaseNumber: zipCase.CaseNumber, FetchStatus: reprocessing, CaseID: zipCase.CaseID}}, nil
}
