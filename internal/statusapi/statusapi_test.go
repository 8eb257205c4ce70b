package statusapi

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/zipcase/internal/alerting"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/queue"
	"github.com/nexconsult/zipcase/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupStatusAPI(t *testing.T) (*StatusAPI, *store.CaseStore, *store.NameSearchStore, *queue.CaseDataQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cs := store.NewCaseStore(client)
	nss := store.NewNameSearchStore(client)
	cq, err := queue.NewCaseDataQueue(context.Background(), client, "casedata-stream", 30*time.Second, 3, testLogger())
	require.NoError(t, err)
	alerts := alerting.New(client, testLogger())

	return New(cs, nss, cq, alerts, testLogger()), cs, nss, cq
}

func TestLoadCases_UnknownCaseNumberAbsentFromResults(t *testing.T) {
	api, _, _, _ := setupStatusAPI(t)

	results, err := api.LoadCases(t.Context(), []string{"25CR123456-789"}, "user-1", "agent/1.0")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLoadCases_NonCompleteReturnedWithoutSummaryLookup(t *testing.T) {
	api, cs, _, _ := setupStatusAPI(t)
	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Queued()}))

	results, err := api.LoadCases(t.Context(), []string{"25cr123456-789"}, "user-1", "agent/1.0")
	require.NoError(t, err)
	result, ok := results["25CR123456-789"]
	require.True(t, ok, "case number must be canonicalized before lookup")
	assert.Equal(t, models.StatusQueued, result.ZipCase.FetchStatus.Tag)
	assert.Nil(t, result.CaseSummary)
}

func TestLoadCases_CompleteWithWellFormedSummary(t *testing.T) {
	api, cs, _, _ := setupStatusAPI(t)
	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Complete(), CaseID: "abc-123"}))
	require.NoError(t, cs.PutCaseSummary(t.Context(), "25CR123456-789", models.CaseSummary{CaseName: "State v. Doe", Court: "County Court", Charges: []models.Charge{}}))

	results, err := api.LoadCases(t.Context(), []string{"25CR123456-789"}, "user-1", "agent/1.0")
	require.NoError(t, err)
	result := results["25CR123456-789"]
	assert.Equal(t, models.StatusComplete, result.ZipCase.FetchStatus.Tag)
	require.NotNil(t, result.CaseSummary)
	assert.Equal(t, "State v. Doe", result.CaseSummary.CaseName)
}

func TestLoadCase_FirstCorruptionTriggersReprocessing(t *testing.T) {
	api, cs, _, cq := setupStatusAPI(t)
	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Complete(), CaseID: "abc-123"}))
	require.NoError(t, cs.PutCaseSummary(t.Context(), "25CR123456-789", models.CaseSummary{CaseName: "State v. Doe", Court: "County Court"}))

	result, err := api.LoadCase(t.Context(), "25CR123456-789", "user-1", "agent/1.0")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReprocessing, result.ZipCase.FetchStatus.Tag)
	assert.Equal(t, 1, result.ZipCase.FetchStatus.TryCount)
	assert.Nil(t, result.CaseSummary)

	zipCase, err := cs.Case(t.Context(), "25CR123456-789")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReprocessing, zipCase.FetchStatus.Tag)

	_, err = cs.CaseSummary(t.Context(), "25CR123456-789")
	assert.ErrorIs(t, err, store.ErrNotFound, "malformed summary must be deleted")

	msgs, err := cq.Receive(t.Context(), "worker-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "a reprocessing fetch must be enqueued")
}

func TestLoadCase_SecondCorruptionIsPersistent(t *testing.T) {
	api, cs, _, cq := setupStatusAPI(t)
	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{
		CaseNumber:  "25CR123456-789",
		FetchStatus: models.FetchStatus{Tag: models.StatusComplete, TryCount: 1},
		CaseID:      "abc-123",
	}))
	require.NoError(t, cs.PutCaseSummary(t.Context(), "25CR123456-789", models.CaseSummary{CaseName: "State v. Doe", Court: "County Court"}))

	result, err := api.LoadCase(t.Context(), "25CR123456-789", "user-1", "agent/1.0")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, result.ZipCase.FetchStatus.Tag)
	assert.Equal(t, "persistent_corruption", result.ZipCase.FetchStatus.Message)

	zipCase, err := cs.Case(t.Context(), "25CR123456-789")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, zipCase.FetchStatus.Tag)

	msgs, err := cq.Receive(t.Context(), "worker-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs, "a persistently corrupt case must not be reprocessed again")
}

func TestLoadCase_UnknownReturnsErrNotFound(t *testing.T) {
	api, _, _, _ := setupStatusAPI(t)

	_, err := api.LoadCase(t.Context(), "25CR999999-999", "user-1", "agent/1.0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadNameSearch_MergesDiscoveredCases(t *testing.T) {
	api, cs, nss, _ := setupStatusAPI(t)
	require.NoError(t, nss.PutNameSearch(t.Context(), models.NameSearchData{
		SearchID:       "search-1",
		NormalizedName: "Doe, Jane",
		Status:         models.NameSearchComplete,
		Cases:          []models.CaseNumber{"25CR123456-789", "25CR999999-001"},
	}))
	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Queued()}))
	require.NoError(t, cs.PutCase(t.Context(), models.ZipCase{CaseNumber: "25CR999999-001", FetchStatus: models.Found()}))

	resp, err := api.LoadNameSearch(t.Context(), "search-1", "user-1", "agent/1.0")
	require.NoError(t, err)
	assert.Equal(t, models.NameSearchComplete, resp.Status)
	assert.Len(t, resp.Results, 2)
}

func TestLoadNameSearch_UnknownReturnsErrNotFound(t *testing.T) {
	api, _, _, _ := setupStatusAPI(t)

	_, err := api.LoadNameSearch(t.Context(), "search-missing", "user-1", "agent/1.0")
	assert.ErrorIs(t, err, ErrNotFound)
}
