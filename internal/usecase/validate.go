package usecase

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"feedback-api/internal/domain"
)

const (
	MaxSessionIDLength = 100
	MaxMessageLength   = 5000
)

// RawSubmission is the request payload as decoded from JSON. Fields are kept
// raw so absent, null and non-string values can all be rejected uniformly.
type RawSubmission struct {
	SessionID    json.RawMessage `json:"sessionId"`
	Message      json.RawMessage `json:"message"`
	FeedbackType json.RawMessage `json:"feedbackType"`
}

// Validate checks a raw submission and returns its normalized form.
// Oversized messages are truncated rather than rejected; an oversized or
// malformed sessionId is rejected.
func Validate(raw RawSubmission) (domain.FeedbackSubmission, error) {
	sessionID, ok := stringField(raw.SessionID)
	if !ok {
		return domain.FeedbackSubmission{}, missingField("sessionId")
	}
	message, ok := stringField(raw.Message)
	if !ok {
		return domain.FeedbackSubmission{}, missingField("message")
	}
	feedbackType, ok := stringField(raw.FeedbackType)
	if !ok {
		return domain.FeedbackSubmission{}, missingField("feedbackType")
	}

	ft := domain.FeedbackType(feedbackType)
	if !ft.Valid() {
		return domain.FeedbackSubmission{}, newError(ErrorInvalidEnum,
			fmt.Sprintf("feedbackType must be either %q or %q", domain.FeedbackPositive, domain.FeedbackNegative), nil)
	}

	if utf8.RuneCountInString(sessionID) > MaxSessionIDLength || !validSessionID(sessionID) {
		return domain.FeedbackSubmission{}, newError(ErrorInvalidFormat,
			fmt.Sprintf("sessionId must be 1-%d characters and contain only letters, digits, hyphens and underscores (A-Z, a-z, 0-9, -, _)", MaxSessionIDLength), nil)
	}

	return domain.FeedbackSubmission{
		SessionID:    sessionID,
		Message:      truncate(message, MaxMessageLength),
		FeedbackType: ft,
	}, nil
}

func missingField(name string) *Error {
	return newError(ErrorMissingField, "Missing required field: "+name, nil)
}

// stringField decodes a JSON string value. Absent, null, non-string and
// empty values all report false.
func stringField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, s != ""
}

func validSessionID(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// truncate clips s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
