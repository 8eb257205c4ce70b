package portal

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPageFixture = `
<html><body>
<div class="results">
  <a class="caseLink" href="/Portal/Case/Details?id=abc-123">
    <span class="block-link__primary">25CR123456-789</span>
  </a>
  <a class="caseLink" href="/Portal/Case/Details?id=def-456">
    <span class="block-link__primary"> 25CR999999-001 </span>
  </a>
  <a class="caseLink" href="/Portal/Case/Details?id=abc-123">
    <span class="block-link__primary">25CR123456-789</span>
  </a>
</div>
</body></html>`

func TestParseFirstCaseLink(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPageFixture))
	require.NoError(t, err)

	link, ok := ParseFirstCaseLink(doc)
	require.True(t, ok)
	assert.Equal(t, "abc-123", link.CaseID)
	assert.Equal(t, "25CR123456-789", string(link.CaseNumber))
}

func TestParseAllCaseLinks_Dedupes(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPageFixture))
	require.NoError(t, err)

	links := ParseAllCaseLinks(doc)
	require.Len(t, links, 2)
	assert.Equal(t, "25CR123456-789", string(links[0].CaseNumber))
	assert.Equal(t, "25CR999999-001", string(links[1].CaseNumber))
}

func TestParseFirstCaseLink_NoMatches(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>no results</body></html>`))
	require.NoError(t, err)

	_, ok := ParseFirstCaseLink(doc)
	assert.False(t, ok)
}

func TestCheckSentinels_Busy(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>We are having trouble processing your request.</body></html>`))
	require.NoError(t, err)
	assert.ErrorIs(t, checkSentinels(doc), ErrPortalBusy)
}

func TestCheckSentinels_SessionExpired(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><form id="loginForm"><input type="password"></form></body></html>`))
	require.NoError(t, err)
	assert.ErrorIs(t, checkSentinels(doc), ErrSessionExpired)
}

func TestCheckSentinels_Clean(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPageFixture))
	require.NoError(t, err)
	assert.NoError(t, checkSentinels(doc))
}
