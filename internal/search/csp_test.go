package search

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupCSP(t *testing.T, refreshWindow time.Duration) (*CaseSearchProcessor, *store.CaseStore, *queue.SearchQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cs := store.NewCaseStore(client)
	sq, err := queue.NewSearchQueue(context.Background(), client, "search-stream", 30*time.Second, 3, testLogger())
	require.NoError(t, err)

	return NewCaseSearchProcessor(cs, sq, refreshWindow, testLogger()), cs, sq
}

func TestCaseSearchProcessor_NoCaseNumbers(t *testing.T) {
	csp, _, _ := setupCSP(t, time.Hour)

	results, err := csp.Process(t.Context(), "nothing to see here", "user-1", "agent/1.0")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCaseSearchProcessor_SeedsNewCaseAndEnqueues(t *testing.T) {
	csp, cs, sq := setupCSP(t, time.Hour)

	results, err := csp.Process(t.Context(), "Case 25CR123456-789 was filed.", "user-1", "agent/1.0")
	require.NoError(t, err)
	require.Len(t, results, 1)

	result, ok := results["25CR123456-789"]
	require.True(t, ok)
	assert.Equal(t, models.StatusQueued, result.ZipCase.FetchStatus.Tag)
	assert.Nil(t, result.CaseSummary)

	stored, err := cs.Case(t.Context(), "25CR123456-789")
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, stored.FetchStatus.Tag)

	msgs, err := sq.Receive(t.Context(), "worker-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	kind, body, err := queue.DecodeEnvelope(msgs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, queue.KindResolve, kind)
	var job queue.ResolveJob
	require.NoError(t, json.Unmarshal(body, &job))
	assert.Equal(t, "25CR123456-789", job.CaseNumber)
	assert.Equal(t, "user-1", job.UserID)
}

func TestCaseSearchProcessor_CompleteCaseAttachesSummary(t *testing.T) {
	csp, cs, sq := setupCSP(t, time.Hour)

	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Complete()}))
	require.NoError(t, cs.PutCaseSummary(t.Context(), "25CR123456-789", models.CaseSummary{
		CaseName: "State v. Doe", Court: "County Court", Charges: []models.Charge{},
	}))

	results, err := csp.Process(t.Context(), "25CR123456-789", "user-1", "agent/1.0")
	require.NoError(t, err)
	require.Contains(t, results, models.CaseNumber("25CR123456-789"))
	require.NotNil(t, results["25CR123456-789"].CaseSummary)
	assert.Equal(t, "State v. Doe", results["25CR123456-789"].CaseSummary.CaseName)

	msgs, err := sq.Receive(t.Context(), "worker-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs, "a complete case must not be re-enqueued")
}

func TestCaseSearchProcessor_QueuedCaseReenqueuesWithoutReseeding(t *testing.T) {
	csp, cs, sq := setupCSP(t, time.Hour)

	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Queued()}))

	_, err := csp.Process(t.Context(), "25CR123456-789", "user-1", "agent/1.0")
	require.NoError(t, err)

	msgs, err := sq.Receive(t.Context(), "worker-1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "a still-queued case is re-enqueued, not silently dropped")
}

func TestCaseSearchProcessor_RecentFailureNotReenqueued(t *testing.T) {
	csp, cs, _ := setupCSP(t, time.Hour)

	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Failed("portal_busy")}))

	results, err := csp.Process(t.Context(), "25CR123456-789", "user-1", "agent/1.0")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, results["25CR123456-789"].ZipCase.FetchStatus.Tag)
}

func TestCaseSearchProcessor_StaleFailureReenqueued(t *testing.T) {
	csp, cs, sq := setupCSP(t, time.Millisecond)

	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Failed("portal_busy")}))
	time.Sleep(5 * time.Millisecond)

	_, err := csp.Process(t.Context(), "25CR123456-789", "user-1", "agent/1.0")
	require.NoError(t, err)

	msgs, err := sq.Receive(t.Context(), "worker-1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "a failure older than the refresh window is re-queued")
}
