package dev

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()

	return New(&Config{
		Addr:    ":0",
		Timeout: time.Second,
		Token:   token,
		User:    "user@example.com",
	})
}

func do(t *testing.T, srv *Server, req *http.Request) (int, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, req)

	var body map[string]any
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["xsrf_token"])

	request := body["request"].(map[string]any)
	assert.Equal(t, "user@example.com", request["user"])

	printers := body["printers"].([]any)
	assert.Len(t, printers, 3)
}

func TestSearchRecent(t *testing.T) {
	srv := newTestServer(t, "")

	// only printers with an access time count as recent
	code, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/search?q=%5Erecent", nil))
	assert.Equal(t, http.StatusOK, code)

	printers := body["printers"].([]any)
	require.Len(t, printers, 1)
	assert.Equal(t, "lobby-printer", printers[0].(map[string]any)["id"])
}

func TestSearchRotatesXSRFToken(t *testing.T) {
	srv := newTestServer(t, "")

	_, first := do(t, srv, httptest.NewRequest(http.MethodGet, "/search", nil))
	_, second := do(t, srv, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.NotEqual(t, first["xsrf_token"], second["xsrf_token"])
}

func TestAuthorize(t *testing.T) {
	srv := newTestServer(t, "token-123")

	t.Run("ValidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		req.Header.Set("Authorization", "Bearer token-123")

		code, body := do(t, srv, req)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["success"])
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		req.Header.Set("Authorization", "Bearer nope")

		code, body := do(t, srv, req)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("SessionCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "cookie@example.com"})

		_, body := do(t, srv, req)
		request := body["request"].(map[string]any)
		assert.Equal(t, "cookie@example.com", request["user"])
	})
}

func TestPrinter(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/printer?printerid=lab-printer", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	printers := body["printers"].([]any)
	require.Len(t, printers, 1)
	assert.Equal(t, "lab-printer", printers[0].(map[string]any)["id"])
}

func TestPrinterNotFound(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/printer?printerid=nope", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "nope")
}

func TestInvitesAndProcessInvite(t *testing.T) {
	srv := newTestServer(t, "")

	_, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/invites", nil))
	invites := body["invites"].([]any)
	require.Len(t, invites, 1)

	code, body := do(t, srv, postForm("/processinvite", url.Values{
		"printerid": {"shared-printer"},
		"accept":    {"true"},
	}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	printer := body["printer"].(map[string]any)
	assert.Equal(t, "shared-printer", printer["id"])

	// the settled invitation is gone
	_, body = do(t, srv, httptest.NewRequest(http.MethodGet, "/invites", nil))
	assert.Empty(t, body["invites"])
}

func TestProcessInviteReject(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := do(t, srv, postForm("/processinvite", url.Values{
		"printerid": {"shared-printer"},
		"accept":    {"false"},
	}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["printer"])
}

func TestSubmit(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := do(t, srv, postForm("/submit", url.Values{
		"printerid": {"lobby-printer"},
		"content":   {"data:application/pdf;base64,aGVsbG8="},
	}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	job := body["job"].(map[string]any)
	assert.NotEmpty(t, job["id"])
}

func TestSubmitMissingContent(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := do(t, srv, postForm("/submit", url.Values{
		"printerid": {"lobby-printer"},
	}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["success"])
}
