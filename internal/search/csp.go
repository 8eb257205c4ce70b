// Package search implements the request-time orchestrators from
// spec.md §4.4/§4.5: the Case Search Processor (CSP) and the Name
// Search Processor (NSP).
package search

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/extractor"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

// CaseSearchProcessor is the CSP.
type CaseSearchProcessor struct {
	cs            *store.CaseStore
	searchQueue   *queue.SearchQueue
	refreshWindow time.Duration
	logger        *logrus.Logger
}

func NewCaseSearchProcessor(cs *store.CaseStore, searchQueue *queue.SearchQueue, refreshWindow time.Duration, logger *logrus.Logger) *CaseSearchProcessor {
	return &CaseSearchProcessor{cs: cs, searchQueue: searchQueue, refreshWindow: refreshWindow, logger: logger}
}

// Process runs CSP's four steps against free text containing zero or
// more case numbers, returning the current view for every case found in
// the text.
func (p *CaseSearchProcessor) Process(ctx context.Context, input, userID, userAgent string) (map[models.CaseNumber]models.SearchResult, error) {
	caseNumbers := extractor.Extract(input)
	results := make(map[models.CaseNumber]models.SearchResult, len(caseNumbers))
	if len(caseNumbers) == 0 {
		return results, nil
	}

	for _, caseNumber := range caseNumbers {
		zipCase, shouldEnqueue, err := p.seed(ctx, caseNumber)
		if err != nil {
			return nil, err
		}

		if shouldEnqueue {
			if _, err := p.searchQueue.SendResolve(ctx, queue.ResolveJob{CaseNumber: string(caseNumber), UserID: userID, UserAgent: userAgent}); err != nil {
				p.logger.WithError(err).WithField("caseNumber", caseNumber).Warn("csp: failed to enqueue resolve job")
			}
		}

		result := models.SearchResult{ZipCase: *zipCase}
		if zipCase.FetchStatus.Tag == models.StatusComplete {
			if summary, err := p.cs.CaseSummary(ctx, caseNumber); err == nil {
				result.CaseSummary = summary
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
		}
		results[caseNumber] = result
	}

	return results, nil
}

// seed loads or creates the ZipCase for caseNumber and reports whether a
// resolve job should be enqueued per spec.md §4.4 step 3's coalescing
// rule: only queued cases, or failed cases older than the refresh
// window, are re-queued.
func (p *CaseSearchProcessor) seed(ctx context.Context, caseNumber models.CaseNumber) (*models.ZipCase, bool, error) {
	zipCase, err := p.cs.Case(ctx, caseNumber)
	if errors.Is(err, store.ErrNotFound) {
		zipCase = &models.ZipCase{CaseNumber: caseNumber, FetchStatus: models.Queued()}
		if err := p.cs.PutCase(ctx, *zipCase); err != nil {
			return nil, false, err
		}
		return zipCase, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	switch zipCase.FetchStatus.Tag {
	case models.StatusQueued:
		return zipCase, true, nil
	case models.StatusFailed:
		if zipCase.LastUpdated == nil || time.Since(*zipCase.LastUpdated) > p.refreshWindow {
			return zipCase, true, nil
		}
	}
	return zipCase, false, nil
}

// newSearchID mints an opaque identifier for a name search, per
// spec.md §4.5 step 3.
func newSearchID() string {
	return uuid.NewString()
}
