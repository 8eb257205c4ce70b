package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ResolveJob asks a resolve worker to find caseId for a bare case
// number, per spec.md §4.6.
type ResolveJob struct {
	CaseNumber string `json:"caseNumber"`
	UserID     string `json:"userId"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// FetchSummaryJob asks a case-data worker to fetch and parse a case's
// detail page, per spec.md §4.8. TryCount carries forward a pending
// reprocessing attempt from the Status API (spec.md §4.9/§9's
// corruption-recovery path) so the worker's completion status reflects
// whether this fetch is a first attempt or a retry.
type FetchSummaryJob struct {
	CaseNumber string `json:"caseNumber"`
	CaseID     string `json:"caseId"`
	UserID     string `json:"userId"`
	UserAgent  string `json:"userAgent,omitempty"`
	TryCount   int    `json:"tryCount,omitempty"`
}

// NameSearchJob asks a name-search worker to run a Smart Search by name,
// per spec.md §4.9.
type NameSearchJob struct {
	SearchID     string `json:"searchId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	SoundsLike   bool   `json:"soundsLike"`
	CriminalOnly bool   `json:"criminalOnly"`
	UserAgent    string `json:"userAgent,omitempty"`
}

// SearchQueue carries both ResolveJob and NameSearchJob work on one
// stream and one consumer group, per spec.md §2's two-queue pipeline
// (SearchQueue, CaseDataQueue). A single group is load-balanced across
// every consumer reading it, so resolve and name-search handling live
// in the same worker pool, dispatching on the envelope's Kind.
type SearchQueue struct{ q *Queue }

func NewSearchQueue(ctx context.Context, client *redis.Client, streamKey string, visibilityTimeout time.Duration, maxDeliveries int64, logger *logrus.Logger) (*SearchQueue, error) {
	q, err := New(ctx, client, streamKey, "search-workers", visibilityTimeout, maxDeliveries, logger)
	if err != nil {
		return nil, err
	}
	return &SearchQueue{q: q}, nil
}

func (s *SearchQueue) SendResolve(ctx context.Context, job ResolveJob) (string, error) {
	payload, err := marshalPayload(jobEnvelope{Kind: kindResolve, Body: job})
	if err != nil {
		return "", err
	}
	return s.q.Send(ctx, payload)
}

func (s *SearchQueue) SendNameSearch(ctx context.Context, job NameSearchJob) (string, error) {
	payload, err := marshalPayload(jobEnvelope{Kind: kindNameSearch, Body: job})
	if err != nil {
		return "", err
	}
	return s.q.Send(ctx, payload)
}

func (s *SearchQueue) Receive(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	return s.q.Receive(ctx, consumer, count, block)
}

func (s *SearchQueue) Reclaim(ctx context.Context, consumer string, count int64) ([]Message, error) {
	return s.q.Reclaim(ctx, consumer, count)
}

func (s *SearchQueue) Ack(ctx context.Context, id string) error { return s.q.Ack(ctx, id) }

// CaseDataQueue is kept distinct from SearchQueue per spec.md §2 so case
// summary fetches can be scaled and rate-limited independently of
// resolve work.
type CaseDataQueue struct{ q *Queue }

func NewCaseDataQueue(ctx context.Context, client *redis.Client, streamKey string, visibilityTimeout time.Duration, maxDeliveries int64, logger *logrus.Logger) (*CaseDataQueue, error) {
	q, err := New(ctx, client, streamKey, "casedata-workers", visibilityTimeout, maxDeliveries, logger)
	if err != nil {
		return nil, err
	}
	return &CaseDataQueue{q: q}, nil
}

func (c *CaseDataQueue) Send(ctx context.Context, job FetchSummaryJob) (string, error) {
	payload, err := marshalPayload(jobEnvelope{Kind: kindFetchSummary, Body: job})
	if err != nil {
		return "", err
	}
	return c.q.Send(ctx, payload)
}

func (c *CaseDataQueue) Receive(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.q.Receive(ctx, consumer, count, block)
}

func (c *CaseDataQueue) Reclaim(ctx context.Context, consumer string, count int64) ([]Message, error) {
	return c.q.Reclaim(ctx, consumer, count)
}

func (c *CaseDataQueue) Ack(ctx context.Context, id string) error { return c.q.Ack(ctx, id) }

type jobKind string

const (
	kindResolve      jobKind = "resolve"
	kindFetchSummary jobKind = "fetchSummary"
	kindNameSearch   jobKind = "nameSearch"
)

// jobEnvelope tags a payload with its job kind so SearchQueue's single
// stream can multiplex resolve and name-search work, the way spec.md
// §2 describes the two workers sharing intake.
type jobEnvelope struct {
	Kind jobKind         `json:"kind"`
	Body interface{}     `json:"body"`
}

// DecodeEnvelope inspects a raw message payload and returns its kind plus
// the still-encoded body, letting a worker dispatch on Kind before
// unmarshaling into the concrete job type it expects.
func DecodeEnvelope(payload []byte) (jobKind, json.RawMessage, error) {
	var env struct {
		Kind jobKind         `json:"kind"`
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", nil, err
	}
	return env.Kind, env.Body, nil
}

const (
	KindResolve      = kindResolve
	KindFetchSummary = kindFetchSummary
	KindNameSearch   = kindNameSearch
)
