package portal

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caseDetailFixture = `
<html><body>
<div class="case-detail__case-name">State v. Jane Doe</div>
<div class="case-detail__court">County Circuit Court</div>
<table>
<tbody>
<tr class="charge-row">
  <td class="charge-offense-date">2024-01-02</td>
  <td class="charge-filed-date">2024-01-10</td>
  <td class="charge-description">Theft of Property</td>
  <td class="charge-statute">16-8-12</td>
  <td class="charge-degree-code">M</td>
  <td class="charge-degree-description">Misdemeanor</td>
  <td class="charge-fine">$500</td>
  <td class="charge-filing-agency">City Police</td>
  <td>
    <ul>
      <li class="disposition">
        <span class="disposition-date">2024-03-01</span>
        <span class="disposition-description">Guilty plea</span>
      </li>
    </ul>
  </td>
</tr>
</tbody>
</table>
</body></html>`

func TestParseCaseDetail(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(caseDetailFixture))
	require.NoError(t, err)

	summary := ParseCaseDetail(doc)
	assert.Equal(t, "State v. Jane Doe", summary.CaseName)
	assert.Equal(t, "County Circuit Court", summary.Court)
	assert.True(t, summary.WellFormed())

	require.Len(t, summary.Charges, 1)
	charge := summary.Charges[0]
	assert.Equal(t, "Theft of Property", charge.Description)
	assert.Equal(t, "16-8-12", charge.Statute)
	assert.Equal(t, "M", charge.Degree.Code)
	assert.Equal(t, "$500", charge.Fine)
	require.Len(t, charge.Dispositions, 1)
	assert.Equal(t, "Guilty plea", charge.Dispositions[0].Description)
}

func TestParseCaseDetail_NoCharges(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
		<div class="case-detail__case-name">State v. Doe</div>
		<div class="case-detail__court">County Court</div>
	</body></html>`))
	require.NoError(t, err)

	summary := ParseCaseDetail(doc)
	assert.True(t, summary.WellFormed(), "an empty (non-nil) charges slice is well-formed per spec.md §3")
	assert.Empty(t, summary.Charges)
}
