package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/queue"
)

func TestResetStale_ResolveJobRevertsProcessingToQueued(t *testing.T) {
	deps := setupDeps(t, resolveHandler())
	require.NoError(t, deps.CS.PutCase(context.Background(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Processing()}))

	body, err := json.Marshal(queue.ResolveJob{CaseNumber: "25CR123456-789", UserID: "user-1"})
	require.NoError(t, err)

	deps.resetStale(context.Background(), queue.KindResolve, body, deps.Logger)

	zipCase, err := deps.CS.Case(context.Background(), "25CR123456-789")
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, zipCase.FetchStatus.Tag)
}

func TestResetStale_LeavesNonProcessingStatusAlone(t *testing.T) {
	deps := setupDeps(t, resolveHandler())
	require.NoError(t, deps.CS.PutCase(context.Background(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Complete()}))

	body, err := json.Marshal(queue.ResolveJob{CaseNumber: "25CR123456-789", UserID: "user-1"})
	require.NoError(t, err)

	deps.resetStale(context.Background(), queue.KindResolve, body, deps.Logger)

	zipCase, err := deps.CS.Case(context.Background(), "25CR123456-789")
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, zipCase.FetchStatus.Tag, "a completed case must not be reverted by a stray stale sweep")
}

func TestResetStale_NameSearchJobRevertsProcessingToQueued(t *testing.T) {
	deps := setupDeps(t, resolveHandler())
	require.NoError(t, deps.NSS.PutNameSearch(context.Background(), models.NameSearchData{
		SearchID: "search-1", Status: models.NameSearchProcessing, Cases: []models.CaseNumber{},
	}))

	body, err := json.Marshal(queue.NameSearchJob{SearchID: "search-1"})
	require.NoError(t, err)

	deps.resetStale(context.Background(), queue.KindNameSearch, body, deps.Logger)

	data, err := deps.NSS.NameSearch(context.Background(), "search-1")
	require.NoError(t, err)
	assert.Equal(t, models.NameSearchQueued, data.Status)
}

func TestSearchReclaim_ResetStaleThenHandleCompletesResolve(t *testing.T) {
	deps := setupDeps(t, resolveHandler())
	require.NoError(t, deps.CS.PutCase(context.Background(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Processing()}))

	_, err := deps.SearchQueue.SendResolve(context.Background(), queue.ResolveJob{CaseNumber: "25CR123456-789", UserID: "user-1"})
	require.NoError(t, err)

	worker := &SearchWorker{deps: deps}
	worker.pool = newPool(1, "search-worker-test", deps.SearchQueue.Receive, worker.handle, deps.Logger)

	// Claim the message the way a fresh delivery would, then replay the
	// two steps NewSearchReclaimer's handler performs (resetStale, then
	// handle) directly, bypassing the ticker loop, which real XAutoClaim
	// idle timing makes awkward to assert against deterministically. The
	// reclaimer itself is only started and stopped here.
	msgs, err := deps.SearchQueue.Receive(context.Background(), "worker-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	reclaimer := NewSearchReclaimer(worker, time.Hour, deps.Logger)
	reclaimer.Start()
	reclaimer.Stop()

	kind, body, err := queue.DecodeEnvelope(msgs[0].Payload)
	require.NoError(t, err)
	deps.resetStale(context.Background(), kind, body, deps.Logger)
	worker.handle(context.Background(), msgs[0])

	zipCase, err := deps.CS.Case(context.Background(), "25CR123456-789")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFound, zipCase.FetchStatus.Tag)
}
