package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexconsult/zipcase/internal/models"
)

// leaseScript performs the at-most-one-in-flight compare-and-swap from
// spec.md §5/§8: a worker may only overwrite a case's status if the tag
// stored right now is one of the tags it was dispatched to supersede.
// KEYS[1] is the case's hash key, ARGV[1] is the JSON-encoded FetchStatus
// to write, ARGV[2] is the caller's updated timestamp, ARGV[3..] are the
// tags the caller is allowed to observe before writing.
var leaseScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "status")
if current == false then
	return 0
end
local cur = cjson.decode(current)
for i = 3, #ARGV do
	if cur.tag == ARGV[i] then
		redis.call("HSET", KEYS[1], "status", ARGV[1], "updated", ARGV[2])
		return 1
	end
end
return 0
`)

// CaseStore is the Case Store (CS).
type CaseStore struct {
	client *redis.Client
}

func NewCaseStore(client *redis.Client) *CaseStore {
	return &CaseStore{client: client}
}

// Case returns the ZipCase tracked for caseNumber, or ErrNotFound if it
// has never been seeded by a search.
func (s *CaseStore) Case(ctx context.Context, caseNumber models.CaseNumber) (*models.ZipCase, error) {
	fields, err := s.client.HMGet(ctx, caseIDKey(caseNumber), "status", "caseId", "updated").Result()
	if err != nil {
		return nil, err
	}
	if fields[0] == nil {
		return nil, ErrNotFound
	}

	var status models.FetchStatus
	if err := json.Unmarshal([]byte(fields[0].(string)), &status); err != nil {
		return nil, err
	}

	zipCase := models.ZipCase{CaseNumber: caseNumber, FetchStatus: status}
	if fields[1] != nil {
		zipCase.CaseID = fields[1].(string)
	}
	if fields[2] != nil {
		if t, err := time.Parse(time.RFC3339Nano, fields[2].(string)); err == nil {
			zipCase.LastUpdated = &t
		}
	}
	return &zipCase, nil
}

// PutCase unconditionally writes a ZipCase's status, used when first
// seeding a case (queued) or recording a field a worker already holds
// the lease for, such as the resolved CaseID.
func (s *CaseStore) PutCase(ctx context.Context, zipCase models.ZipCase) error {
	payload, err := json.Marshal(zipCase.FetchStatus)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.client.HSet(ctx, caseIDKey(zipCase.CaseNumber),
		"status", payload,
		"caseId", zipCase.CaseID,
		"updated", now,
	).Err()
}

// TryTransition attempts to move caseNumber's status from one of
// fromTags into next, failing (ok=false) if another worker already
// raced ahead. This is the lease primitive backing the resolve and
// case-data workers' at-most-once-in-flight guarantee.
func (s *CaseStore) TryTransition(ctx context.Context, caseNumber models.CaseNumber, next models.FetchStatus, fromTags ...models.FetchStatusTag) (bool, error) {
	payload, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	args := make([]interface{}, 0, len(fromTags)+2)
	args = append(args, string(payload), now)
	for _, tag := range fromTags {
		args = append(args, string(tag))
	}

	result, err := leaseScript.Run(ctx, s.client, []string{caseIDKey(caseNumber)}, args...).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// CaseSummary returns the previously stored summary for caseNumber, or
// ErrNotFound.
func (s *CaseStore) CaseSummary(ctx context.Context, caseNumber models.CaseNumber) (*models.CaseSummary, error) {
	raw, err := s.client.Get(ctx, caseSummaryKey(caseNumber)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var summary models.CaseSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// PutCaseSummary persists a fetched case summary.
func (s *CaseStore) PutCaseSummary(ctx context.Context, caseNumber models.CaseNumber, summary models.CaseSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, caseSummaryKey(caseNumber), payload, 0).Err()
}

// DeleteCaseSummary discards a stored summary, used by the Status API
// when a malformed summary is detected and the case is being sent back
// through the fetch pipeline for reprocessing.
func (s *CaseStore) DeleteCaseSummary(ctx context.Context, caseNumber models.CaseNumber) error {
	return s.client.Del(ctx, caseSummaryKey(caseNumber)).Err()
}
