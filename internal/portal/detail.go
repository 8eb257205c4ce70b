package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nexconsult/zipcase/internal/models"
)

// ParseCaseDetail extracts {caseName, court, charges[...]} from a case
// detail page, per spec.md §4.7. The source TypeScript project was
// filtered out of the reference pack entirely, so these selectors are a
// conservative, clearly-scoped implementer decision (see DESIGN.md)
// rather than a transcription of an observed markup sample.
func ParseCaseDetail(doc *goquery.Document) *models.CaseSummary {
	summary := &models.CaseSummary{
		CaseName: strings.TrimSpace(doc.Find(".case-detail__case-name").First().Text()),
		Court:    strings.TrimSpace(doc.Find(".case-detail__court").First().Text()),
		Charges:  []models.Charge{},
	}

	doc.Find("tr.charge-row").Each(func(_ int, row *goquery.Selection) {
		charge := models.Charge{
			OffenseDate:  cellText(row, ".charge-offense-date"),
			FiledDate:    cellText(row, ".charge-filed-date"),
			Description:  cellText(row, ".charge-description"),
			Statute:      cellText(row, ".charge-statute"),
			Fine:         cellText(row, ".charge-fine"),
			FilingAgency: cellText(row, ".charge-filing-agency"),
			Degree: models.Degree{
				Code:        cellText(row, ".charge-degree-code"),
				Description: cellText(row, ".charge-degree-description"),
			},
			Dispositions: []models.Disposition{},
		}

		row.Find("li.disposition").Each(func(_ int, d *goquery.Selection) {
			charge.Dispositions = append(charge.Dispositions, models.Disposition{
				Date:        strings.TrimSpace(d.Find(".disposition-date").First().Text()),
				Description: strings.TrimSpace(d.Find(".disposition-description").First().Text()),
			})
		})

		summary.Charges = append(summary.Charges, charge)
	})

	return summary
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}
