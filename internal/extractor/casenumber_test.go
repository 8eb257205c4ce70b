package extractor

import (
	"strings"
	"testing"

	"github.com/nexconsult/zipcase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Standard(t *testing.T) {
	got := Extract("See case 25CR123456-789 for details.")
	require.Len(t, got, 1)
	assert.Equal(t, models.CaseNumber("25CR123456-789"), got[0])
}

func TestExtract_LexisNexis(t *testing.T) {
	got := Extract("Reference 7892025CR 123456 in the filing.")
	require.Len(t, got, 1)
	assert.Equal(t, models.CaseNumber("25CR123456-789"), got[0])
}

func TestExtract_Deduplicates_PreservesOrder(t *testing.T) {
	got := Extract("25CR123456-789 then 26TR000001-001 then 25CR123456-789 again")
	require.Len(t, got, 2)
	assert.Equal(t, models.CaseNumber("25CR123456-789"), got[0])
	assert.Equal(t, models.CaseNumber("26TR000001-001"), got[1])
}

func TestExtract_NoneFound(t *testing.T) {
	got := Extract("nothing here looks like a case number")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtract_Idempotent(t *testing.T) {
	text := "mixed 25CR123456-789 and 7892025CR 123456 and some prose"
	first := Extract(text)
	joined := make([]string, len(first))
	for i, cn := range first {
		joined[i] = string(cn)
	}
	second := Extract(strings.Join(joined, " "))
	assert.Equal(t, first, second)
}
