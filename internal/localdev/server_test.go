package localdev

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"feedback-api/handler"
	"feedback-api/internal/domain"
	"feedback-api/internal/usecase"
)

const testSecret = "local-dev-secret"

type captureHandler struct {
	mu    sync.Mutex
	event events.APIGatewayProxyRequest
	resp  events.APIGatewayProxyResponse
	err   error
}

func (c *captureHandler) Handle(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.event = req
	return c.resp, c.err
}

type memoryWriter struct {
	mu      sync.Mutex
	records []domain.FeedbackRecord
}

func (m *memoryWriter) WriteFeedback(_ context.Context, rec domain.FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func mustNewServer(t *testing.T, h ProxyHandler) *httptest.Server {
	t.Helper()
	s, err := New(h, testSecret)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func mustToken(t *testing.T, username, email string) string {
	t.Helper()
	tok, err := IssueToken(testSecret, username, email, time.Hour)
	require.NoError(t, err)
	return tok
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:3000")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, testSecret)
	require.Error(t, err)

	_, err = New((&captureHandler{}).Handle, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "secret")
}

func TestServer_ForwardsClaimsFromValidToken(t *testing.T) {
	ch := &captureHandler{resp: events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"X-Test": "yes"},
		Body:       `{"ok":true}`,
	}}
	srv := mustNewServer(t, ch.Handle)

	resp := post(t, srv.URL+"/feedback?debug=1", mustToken(t, "alice", "alice@example.com"), `{"a":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "yes", resp.Header.Get("X-Test"))

	ch.mu.Lock()
	defer ch.mu.Unlock()
	require.Equal(t, http.MethodPost, ch.event.HTTPMethod)
	require.Equal(t, "/feedback", ch.event.Path)
	require.Equal(t, `{"a":1}`, ch.event.Body)
	require.Equal(t, "1", ch.event.QueryStringParameters["debug"])
	require.Equal(t, "http://localhost:3000", ch.event.Headers["Origin"])
	require.NotEmpty(t, ch.event.RequestContext.RequestID)

	claims, ok := ch.event.RequestContext.Authorizer["claims"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "alice", claims["cognito:username"])
	require.Equal(t, "alice@example.com", claims["email"])
}

func TestServer_NoClaimsWithoutValidToken(t *testing.T) {
	otherSecret, err := IssueToken("another-secret", "mallory", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "alice", "", -time.Minute)
	require.NoError(t, err)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"cognito:username": "eve"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"no token":      "",
		"wrong secret":  otherSecret,
		"expired":       expired,
		"alg none":      unsigned,
		"garbage token": "abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			ch := &captureHandler{resp: events.APIGatewayProxyResponse{StatusCode: http.StatusOK}}
			srv := mustNewServer(t, ch.Handle)
			post(t, srv.URL+"/feedback", tok, `{}`)

			ch.mu.Lock()
			defer ch.mu.Unlock()
			require.Nil(t, ch.event.RequestContext.Authorizer)
		})
	}
}

func TestServer_HandlerError(t *testing.T) {
	ch := &captureHandler{err: errors.New("boom")}
	srv := mustNewServer(t, ch.Handle)

	resp := post(t, srv.URL+"/feedback", "", `{}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	srv := mustNewServer(t, (&captureHandler{}).Handle)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_EndToEnd(t *testing.T) {
	w := &memoryWriter{}
	svc, err := usecase.NewFeedbackService(w)
	require.NoError(t, err)
	h, err := handler.NewHandler(svc, []string{"http://localhost:3000"})
	require.NoError(t, err)
	srv := mustNewServer(t, h.Handle)

	resp := post(t, srv.URL+"/feedback", mustToken(t, "", "dana@example.com"),
		`{"sessionId":"sess-42","message":"Helpful","feedbackType":"positive"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	var out struct {
		Success    bool   `json:"success"`
		FeedbackID string `json:"feedbackId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	require.NotEmpty(t, out.FeedbackID)

	require.Len(t, w.records, 1)
	require.Equal(t, "dana@example.com", w.records[0].Username)

	unauth := post(t, srv.URL+"/feedback", "", `{"sessionId":"s","message":"m","feedbackType":"positive"}`)
	require.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
	require.Len(t, w.records, 1)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/feedback", nil)
	require.NoError(t, err)
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer preflight.Body.Close()
	require.Equal(t, http.StatusOK, preflight.StatusCode)
	require.Equal(t, "POST,OPTIONS", preflight.Header.Get("Access-Control-Allow-Methods"))
}
