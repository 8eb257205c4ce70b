package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/zipcase/internal/models"
)

func setupCaseStore(t *testing.T) (*CaseStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCaseStore(client), mr
}

func TestCaseStore_PutAndGet(t *testing.T) {
	s, mr := setupCaseStore(t)
	defer mr.Close()

	ctx := context.Background()
	caseNumber := models.CaseNumber("25CR123456-789")
	require.NoError(t, s.PutCase(ctx, models.ZipCase{
		CaseNumber:  caseNumber,
		FetchStatus: models.Queued(),
	}))

	got, err := s.Case(ctx, caseNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.FetchStatus.Tag)
	require.NotNil(t, got.LastUpdated)
}

func TestCaseStore_NotFound(t *testing.T) {
	s, mr := setupCaseStore(t)
	defer mr.Close()

	_, err := s.Case(context.Background(), models.CaseNumber("absent"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCaseStore_TryTransition_Succeeds(t *testing.T) {
	s, mr := setupCaseStore(t)
	defer mr.Close()

	ctx := context.Background()
	caseNumber := models.CaseNumber("25CR123456-789")
	require.NoError(t, s.PutCase(ctx, models.ZipCase{CaseNumber: caseNumber, FetchStatus: models.Queued()}))

	ok, err := s.TryTransition(ctx, caseNumber, models.Processing(), models.StatusQueued, models.StatusReprocessing)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Case(ctx, caseNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.FetchStatus.Tag)
}

func TestCaseStore_TryTransition_FailsOnRace(t *testing.T) {
	s, mr := setupCaseStore(t)
	defer mr.Close()

	ctx := context.Background()
	caseNumber := models.CaseNumber("25CR123456-789")
	require.NoError(t, s.PutCase(ctx, models.ZipCase{CaseNumber: caseNumber, FetchStatus: models.Processing()}))

	ok, err := s.TryTransition(ctx, caseNumber, models.Processing(), models.StatusQueued)
	require.NoError(t, err)
	assert.False(t, ok, "transition must refuse when current tag isn't among the allowed from-tags")
}

func TestCaseStore_TryTransition_MissingCase(t *testing.T) {
	s, mr := setupCaseStore(t)
	defer mr.Close()

	ok, err := s.TryTransition(context.Background(), models.CaseNumber("ghost"), models.Processing(), models.StatusQueued)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaseStore_CaseSummaryRoundTrip(t *testing.T) {
	s, mr := setupCaseStore(t)
	defer mr.Close()

	ctx := context.Background()
	caseNumber := models.CaseNumber("25CR123456-789")
	summary := models.CaseSummary{
		CaseName: "State v. Doe",
		Court:    "County Circuit Court",
		Charges:  []models.Charge{{Description: "Theft", Statute: "1-2-3"}},
	}
	require.NoError(t, s.PutCaseSummary(ctx, caseNumber, summary))

	got, err := s.CaseSummary(ctx, caseNumber)
	require.NoError(t, err)
	assert.True(t, got.WellFormed())
	assert.Equal(t, "State v. Doe", got.CaseName)
}
