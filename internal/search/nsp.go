package search

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/namenorm"
	"github.com/nexconsult/zipcase/internal/portal"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

// NameSearchProcessor is the NSP.
type NameSearchProcessor struct {
	nss           *store.NameSearchStore
	auth          *portal.Authenticator
	searchQueue   *queue.SearchQueue
	logger        *logrus.Logger
}

func NewNameSearchProcessor(nss *store.NameSearchStore, auth *portal.Authenticator, searchQueue *queue.SearchQueue, logger *logrus.Logger) *NameSearchProcessor {
	return &NameSearchProcessor{nss: nss, auth: auth, searchQueue: searchQueue, logger: logger}
}

// Process runs NSP's five steps from spec.md §4.5.
func (p *NameSearchProcessor) Process(ctx context.Context, name, userID, dateOfBirth string, soundsLike, criminalOnly bool, userAgent string) models.NameSearchAck {
	normalized := namenorm.Normalize(name)
	if normalized == "" {
		return models.NameSearchAck{Success: false, Error: "unparseable name"}
	}

	if _, err := p.auth.GetOrCreateSession(ctx, userID, userAgent); err != nil {
		p.logger.WithError(err).WithField("userId", userID).Warn("nsp: session acquisition failed")
		return models.NameSearchAck{Success: false, Error: err.Error()}
	}

	searchID := newSearchID()
	data := models.NameSearchData{
		SearchID:       searchID,
		OriginalName:   name,
		NormalizedName: normalized,
		DateOfBirth:    namenorm.ParseDateOfBirth(dateOfBirth),
		SoundsLike:     soundsLike,
		CriminalOnly:   criminalOnly,
		Cases:          []models.CaseNumber{},
		Status:         models.NameSearchQueued,
		UserID:         userID,
	}
	if err := p.nss.PutNameSearch(ctx, data); err != nil {
		p.logger.WithError(err).Error("nsp: failed to seed name search entry")
		return models.NameSearchAck{Success: false, Error: "internal error"}
	}

	job := queue.NameSearchJob{
		SearchID:     searchID,
		UserID:       userID,
		Name:         normalized,
		DateOfBirth:  data.DateOfBirth,
		SoundsLike:   soundsLike,
		CriminalOnly: criminalOnly,
		UserAgent:    userAgent,
	}
	if _, err := p.searchQueue.SendNameSearch(ctx, job); err != nil {
		p.logger.WithError(err).WithField("searchId", searchID).Warn("nsp: failed to enqueue name search job")
	}

	return models.NameSearchAck{SearchID: searchID, Results: map[models.CaseNumber]models.SearchResult{}, Success: true}
}
