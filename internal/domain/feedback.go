package domain

// FeedbackType is the rating a user gives a chat session.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// Valid reports whether t is one of the two accepted literals.
func (t FeedbackType) Valid() bool {
	return t == FeedbackPositive || t == FeedbackNegative
}

// FeedbackSubmission is a validated, normalized feedback request.
type FeedbackSubmission struct {
	SessionID    string
	Message      string
	FeedbackType FeedbackType
}

// FeedbackRecord is a single persisted feedback entry. Records are written
// once and never updated.
type FeedbackRecord struct {
	FeedbackID   string       `dynamodbav:"feedbackId"`
	SessionID    string       `dynamodbav:"sessionId"`
	Message      string       `dynamodbav:"message"`
	Username     string       `dynamodbav:"username"`
	FeedbackType FeedbackType `dynamodbav:"feedbackType"`
	Timestamp    int64        `dynamodbav:"timestamp"` // ms since epoch
}
