package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nexconsult/zipcase/internal/models"
)

func TestGenerate_ExcludesNotFoundAndSortsByCaseNumber(t *testing.T) {
	results := map[models.CaseNumber]models.SearchResult{
		"25CR999999-001": {ZipCase: models.ZipCase{CaseNumber: "25CR999999-001", FetchStatus: models.NotFoundStatus()}},
		"25CR123456-789": {
			ZipCase: models.ZipCase{CaseNumber: "25CR123456-789", FetchStatus: models.Complete()},
			CaseSummary: &models.CaseSummary{
				CaseName: "State v. Doe",
				Court:    "County Circuit Court",
				Charges:  []models.Charge{{Description: "Theft"}, {Description: "Trespass"}},
			},
		},
		"25CR000000-001": {ZipCase: models.ZipCase{CaseNumber: "25CR000000-001", FetchStatus: models.Failed("portal_busy")}},
	}

	data, err := Generate(results)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two non-notFound cases")

	assert.Equal(t, header, rows[0])
	assert.Equal(t, "25CR000000-001", rows[1][0])
	assert.Equal(t, "failed", rows[1][1])
	assert.Equal(t, "portal_busy", rows[1][5])

	assert.Equal(t, "25CR123456-789", rows[2][0])
	assert.Equal(t, "State v. Doe", rows[2][2])
	assert.Equal(t, "County Circuit Court", rows[2][3])
	assert.Equal(t, "Theft; Trespass", rows[2][4])
}

func TestGenerate_EmptyResultsProducesHeaderOnly(t *testing.T) {
	data, err := Generate(map[models.CaseNumber]models.SearchResult{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
