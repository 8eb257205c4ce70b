package portal

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/zipcase/internal/config"
	"github.com/nexconsult/zipcase/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testPortalConfig(baseURL string) config.PortalConfig {
	return config.PortalConfig{
		BaseURL:        baseURL,
		CaseURLPath:    "/Portal/Case/CaseDetail",
		RequestTimeout: 5 * time.Second,
	}
}

func TestClient_Login_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, loginPath, r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "abc123", Expires: time.Now().Add(2 * time.Hour)})
		w.Write([]byte(`<html><body>Welcome</body></html>`))
	}))
	defer srv.Close()

	client := NewClient(testPortalConfig(srv.URL), testLogger())
	session, err := client.Login(t.Context(), "jdoe", "hunter2", "test-agent/1.0")
	require.NoError(t, err)
	assert.Contains(t, session.CookieBundle, "ASP.NET_SessionId=abc123")
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Invalid Email or password</body></html>`))
	}))
	defer srv.Close()

	client := NewClient(testPortalConfig(srv.URL), testLogger())
	_, err := client.Login(t.Context(), "jdoe", "wrong", "test-agent/1.0")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClient_Login_TransientOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(testPortalConfig(srv.URL), testLogger())
	_, err := client.Login(t.Context(), "jdoe", "hunter2", "test-agent/1.0")
	assert.ErrorIs(t, err, ErrTransient)
}

func TestClient_SmartSearchByCaseNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case smartSearchPath:
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusOK)
		case smartSearchResults:
			w.Write([]byte(resultsPageFixture))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(testPortalConfig(srv.URL), testLogger())
	session := &models.UserSession{CookieBundle: "sid=abc"}
	doc, err := client.SmartSearchByCaseNumber(t.Context(), session, "25CR123456-789", "test-agent/1.0")
	require.NoError(t, err)

	link, ok := ParseFirstCaseLink(doc)
	require.True(t, ok)
	assert.Equal(t, "abc-123", link.CaseID)
}

func TestClient_FetchCaseDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Portal/Case/CaseDetail/abc-123", r.URL.Path)
		w.Write([]byte(caseDetailFixture))
	}))
	defer srv.Close()

	client := NewClient(testPortalConfig(srv.URL), testLogger())
	session := &models.UserSession{CookieBundle: "sid=abc"}
	doc, err := client.FetchCaseDetail(t.Context(), session, "abc-123", "test-agent/1.0")
	require.NoError(t, err)

	summary := ParseCaseDetail(doc)
	assert.Equal(t, "State v. Jane Doe", summary.CaseName)
}
