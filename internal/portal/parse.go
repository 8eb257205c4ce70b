package portal

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nexconsult/zipcase/internal/models"
)

// CaseLink is one `a.caseLink` anchor parsed off a Smart Search results
// page, per spec.md §6.
type CaseLink struct {
	CaseID     string
	CaseNumber models.CaseNumber
}

// ParseFirstCaseLink returns the first case link on a results page, used
// by the resolve worker which only needs one match per case number.
func ParseFirstCaseLink(doc *goquery.Document) (CaseLink, bool) {
	links := parseCaseLinks(doc, 1)
	if len(links) == 0 {
		return CaseLink{}, false
	}
	return links[0], true
}

// ParseAllCaseLinks returns every distinct case link on a results page,
// used by the name-search worker (spec.md §4.8), deduplicated by caseId.
func ParseAllCaseLinks(doc *goquery.Document) []CaseLink {
	return parseCaseLinks(doc, -1)
}

func parseCaseLinks(doc *goquery.Document, limit int) []CaseLink {
	var out []CaseLink
	seen := make(map[string]struct{})

	doc.Find("a.caseLink").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		caseID := caseIDFromHref(href)
		if caseID == "" {
			return true
		}
		if _, dup := seen[caseID]; dup {
			return true
		}

		caseNumberText := strings.TrimSpace(s.Find(".block-link__primary").First().Text())
		if caseNumberText == "" {
			return true
		}

		seen[caseID] = struct{}{}
		out = append(out, CaseLink{
			CaseID:     caseID,
			CaseNumber: models.CaseNumber(strings.ToUpper(stripWhitespace(caseNumberText))),
		})

		return limit < 0 || len(out) < limit
	})

	return out
}

// caseIDFromHref pulls the portal-internal caseId out of an anchor's
// href: an "id" query parameter if present, otherwise the final path
// segment.
func caseIDFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("id"); id != "" {
		return id
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
