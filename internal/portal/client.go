// Package portal implements the Portal Authenticator (PA) and the
// outbound HTTP surface spec.md §6 describes: a plain cookie-based HTTP
// client against the court portal's Smart Search and case-detail pages.
// No browser automation is used, per spec.md §1's explicit non-goal.
package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/config"
	"github.com/nexconsult/zipcase/internal/models"
)

const (
	loginPath          = "/Portal/Account/Login"
	smartSearchPath    = "/Portal/SmartSearch/SmartSearch/SmartSearch"
	smartSearchResults = "/Portal/SmartSearch/SmartSearchResults"
)

// invalidCredentialsSentinel is the portal's own wording for a rejected
// login, scraped the same way the teacher's extractor looks for fixed
// section headers inside returned HTML.
const invalidCredentialsSentinel = "Invalid Email or password"

// busySentinel is the portal's "having trouble processing" message,
// distinct from a hard failure: spec.md §4.6 treats it as portal_busy.
const busySentinel = "having trouble processing"

// signInFormSentinel flags a results/detail page that silently bounced
// back to a login form because the cookie bundle went stale.
const signInFormSentinel = "Sign In"

// Client is a reusable, cookie-aware HTTP client for the court portal.
// Cookies are carried explicitly per request rather than via an
// http.CookieJar, since a single process serves many users' sessions
// concurrently and each needs its own bundle.
type Client struct {
	httpClient *http.Client
	baseURL    string
	caseURLPath string
	timeout    time.Duration
	logger     *logrus.Logger
}

func NewClient(cfg config.PortalConfig, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			// Redirects are not followed, so Login reads the cookies and
			// body of the portal's own login response.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		caseURLPath: cfg.CaseURLPath,
		timeout:     cfg.RequestTimeout,
		logger:      logger,
	}
}

func defaultHeaders(req *http.Request, userAgent string) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", userAgent)
}

// Login exchanges username/password for a fresh UserSession.
func (c *Client) Login(ctx context.Context, username, password, userAgent string) (*models.UserSession, error) {
	form := url.Values{
		"Username": {username},
		"Password": {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	defaultHeaders(req, userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: portal returned %d", ErrTransient, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("portal: parsing login response: %w", err)
	}
	if strings.Contains(doc.Text(), invalidCredentialsSentinel) {
		return nil, ErrInvalidCredentials
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: no session cookies returned", ErrTransient)
	}

	return &models.UserSession{
		CookieBundle: bundleCookies(cookies),
		ExpiresAt:    longestExpiry(cookies),
	}, nil
}

// SmartSearchByCaseNumber submits the portal's Smart Search form for a
// single case number and returns the parsed results page.
func (c *Client) SmartSearchByCaseNumber(ctx context.Context, session *models.UserSession, caseNumber, userAgent string) (*goquery.Document, error) {
	form := url.Values{
		"caseCriteria.SearchCriteria": {caseNumber},
		"caseCriteria.SearchCases":    {"true"},
	}
	return c.smartSearch(ctx, session, form, userAgent)
}

// PartySearchParams is the name-search form of Smart Search, per
// spec.md §4.8.
type PartySearchParams struct {
	NormalizedName string
	DateOfBirth    string // "" or "none" means omit DOBFrom/DOBTo
	SoundsLike     bool
	CriminalOnly   bool
}

// SmartSearchByParty submits the portal's Smart Search form by party
// name.
func (c *Client) SmartSearchByParty(ctx context.Context, session *models.UserSession, params PartySearchParams, userAgent string) (*goquery.Document, error) {
	form := url.Values{
		"caseCriteria.SearchCriteria":  {params.NormalizedName},
		"caseCriteria.SearchCases":     {"true"},
		"SearchByPartyName":            {"true"},
	}
	if params.DateOfBirth != "" && params.DateOfBirth != "none" {
		form.Set("DOBFrom", params.DateOfBirth)
		form.Set("DOBTo", params.DateOfBirth)
	}
	if params.SoundsLike {
		form.Set("UseSoundex", "true")
	}
	if params.CriminalOnly {
		form.Set("caseCriteria.CriminalOnly", "true")
	}
	return c.smartSearch(ctx, session, form, userAgent)
}

func (c *Client) smartSearch(ctx context.Context, session *models.UserSession, form url.Values, userAgent string) (*goquery.Document, error) {
	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+smartSearchPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	defaultHeaders(postReq, userAgent)
	postReq.Header.Set("Cookie", session.CookieBundle)

	resp, err := c.httpClient.Do(postReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: portal returned %d", ErrTransient, resp.StatusCode)
	}

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+smartSearchResults, nil)
	if err != nil {
		return nil, err
	}
	defaultHeaders(getReq, userAgent)
	getReq.Header.Set("Cookie", session.CookieBundle)

	resultsResp, err := c.httpClient.Do(getReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resultsResp.Body.Close()
	if resultsResp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: portal returned %d", ErrTransient, resultsResp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resultsResp.Body)
	if err != nil {
		return nil, fmt.Errorf("portal: parsing smart search results: %w", err)
	}
	if err := checkSentinels(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FetchCaseDetail fetches the case detail page for caseID.
func (c *Client) FetchCaseDetail(ctx context.Context, session *models.UserSession, caseID, userAgent string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.caseURLPath+"/"+url.PathEscape(caseID), nil)
	if err != nil {
		return nil, err
	}
	defaultHeaders(req, userAgent)
	req.Header.Set("Cookie", session.CookieBundle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: portal returned %d", ErrTransient, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("portal: parsing case detail: %w", err)
	}
	if err := checkSentinels(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkSentinels(doc *goquery.Document) error {
	text := doc.Text()
	if strings.Contains(text, busySentinel) {
		return ErrPortalBusy
	}
	if doc.Find("form#loginForm").Length() > 0 || (strings.Contains(text, signInFormSentinel) && doc.Find("input[type=password]").Length() > 0) {
		return ErrSessionExpired
	}
	return nil
}

func bundleCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

func longestExpiry(cookies []*http.Cookie) time.Time {
	var latest time.Time
	for _, ck := range cookies {
		var exp time.Time
		switch {
		case !ck.Expires.IsZero():
			exp = ck.Expires
		case ck.MaxAge > 0:
			exp = time.Now().Add(time.Duration(ck.MaxAge) * time.Second)
		default:
			continue
		}
		if exp.After(latest) {
			latest = exp
		}
	}
	if latest.IsZero() {
		latest = time.Now().Add(24 * time.Hour)
	}
	return latest
}
