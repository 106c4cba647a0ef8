// Package localdev runs the Lambda handler behind a plain HTTP server for
// local development. A locally signed HS256 token stands in for the Cognito
// authorizer: when it verifies, its claims are attached to the proxy event
// exactly where API Gateway would put them.
package localdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

const maxBodyBytes = 1 << 20

// ProxyHandler matches handler.Handler.Handle.
type ProxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

type Server struct {
	handle ProxyHandler
	secret []byte
	log    *slog.Logger
}

func New(handle ProxyHandler, secret string) (*Server, error) {
	if handle == nil {
		return nil, errors.New("localdev: handler must not be nil")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("localdev: jwt secret must not be empty")
	}
	return &Server{handle: handle, secret: []byte(secret), log: slog.Default()}, nil
}

// Router mounts the feedback endpoint at /feedback plus a health check.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.HandleFunc("/feedback", s.serveProxy)
	return r
}

func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, `{"error":"could not read body"}`, http.StatusBadRequest)
		return
	}

	event := events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               flattenHeaders(r.Header),
		QueryStringParameters: flattenQuery(r),
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  middleware.GetReqID(r.Context()),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Stage:      "local",
		},
	}
	if claims, err := s.verify(r.Header.Get("Authorization")); err == nil {
		event.RequestContext.Authorizer = map[string]interface{}{"claims": claims}
	} else if r.Method != http.MethodOptions {
		s.log.Debug("local authorizer rejected token", "err", err)
	}

	resp, err := s.handle(r.Context(), event)
	if err != nil {
		s.log.Error("handler returned error", "err", err)
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}

// verify parses a "Bearer <token>" header and returns the token's claims.
func (s *Server) verify(authHeader string) (map[string]interface{}, error) {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("localdev: missing bearer token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("localdev: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("localdev: invalid token")
	}
	return map[string]interface{}(claims), nil
}

// IssueToken signs a token the local server will accept. Used by the
// localserver command to print a ready-to-use token and by tests.
func IssueToken(secret, username, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if username != "" {
		claims["cognito:username"] = username
	}
	if email != "" {
		claims["email"] = email
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ",")
	}
	return out
}

func flattenQuery(r *http.Request) map[string]string {
	q := r.URL.Query()
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}
