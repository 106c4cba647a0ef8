package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"feedback-api/internal/usecase"
)

const (
	headerCorrelationID = "X-Correlation-Id"
	headerOrigin        = "Origin"
)

type FeedbackSubmitter interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (usecase.SubmitOutput, error)
}

type Handler struct {
	svc  FeedbackSubmitter
	cors corsPolicy
	log  *slog.Logger
}

type submitResponse struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(svc FeedbackSubmitter, allowedOrigins []string) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: feedback service must not be nil")
	}
	cors := newCORSPolicy(allowedOrigins)
	if len(cors.origins) == 0 {
		return nil, errors.New("handler: at least one allowed origin is required")
	}
	return &Handler{svc: svc, cors: cors, log: slog.Default()}, nil
}

// Handle serves the feedback endpoint behind API Gateway. It never returns a
// non-nil error; every outcome is an HTTP response.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	correlationID := headerValue(req.Headers, headerCorrelationID)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.log.With("correlation_id", correlationID)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With("aws_request_id", lc.AwsRequestID)
	}

	headers := h.cors.headers(headerValue(req.Headers, headerOrigin))
	headers[headerCorrelationID] = correlationID

	method := strings.ToUpper(req.HTTPMethod)
	if method == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Headers: headers}, nil
	}
	if method != http.MethodPost {
		logger.Warn("method not allowed", "method", req.HTTPMethod)
		return jsonResponse(http.StatusMethodNotAllowed, headers, errorResponse{Error: "Method not allowed"}), nil
	}

	claims, ok := requestClaims(req)
	if !ok {
		logger.Warn("request without identity claims")
		status, msg := mapError(&usecase.Error{Code: usecase.ErrorUnauthorized, Reason: "missing_claims"})
		return jsonResponse(status, headers, errorResponse{Error: msg}), nil
	}

	raw, bodyErr := decodeBody(req)
	if bodyErr != nil {
		logger.Info("rejected request body", "reason", bodyErr.Reason)
		return jsonResponse(http.StatusBadRequest, headers, errorResponse{Error: bodyErr.Reason}), nil
	}

	out, err := h.svc.Submit(ctx, usecase.SubmitInput{
		Payload:  raw,
		Username: usernameFromClaims(claims),
	})
	if err != nil {
		status, msg := mapError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("feedback submission failed", "err", err)
		} else {
			logger.Info("feedback rejected", "status", status, "reason", msg)
		}
		return jsonResponse(status, headers, errorResponse{Error: msg}), nil
	}

	logger.Info("feedback stored",
		"feedback_id", out.FeedbackID,
		"feedback_type", string(out.Record.FeedbackType),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return jsonResponse(http.StatusOK, headers, submitResponse{Success: true, FeedbackID: out.FeedbackID}), nil
}

func decodeBody(req events.APIGatewayProxyRequest) (usecase.RawSubmission, *usecase.Error) {
	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return usecase.RawSubmission{}, &usecase.Error{Code: usecase.ErrorInvalidBody, Reason: "Invalid request body encoding", Err: err}
		}
		body = string(decoded)
	}
	if strings.TrimSpace(body) == "" {
		return usecase.RawSubmission{}, &usecase.Error{Code: usecase.ErrorInvalidBody, Reason: "Request body is required"}
	}
	var raw usecase.RawSubmission
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return usecase.RawSubmission{}, &usecase.Error{Code: usecase.ErrorInvalidBody, Reason: "Invalid JSON in request body", Err: err}
	}
	return raw, nil
}

func mapError(err error) (int, string) {
	var usecaseErr *usecase.Error
	if !errors.As(err, &usecaseErr) {
		return http.StatusInternalServerError, "Internal server error"
	}
	switch {
	case usecaseErr.Code.IsClientError():
		return http.StatusBadRequest, usecaseErr.Reason
	case usecaseErr.Code == usecase.ErrorUnauthorized:
		return http.StatusUnauthorized, "Unauthorized"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func jsonResponse(status int, headers map[string]string, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers,
			Body:       `{"error":"Internal server error"}`,
		}
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(b)}
}

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
