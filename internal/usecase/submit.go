package usecase

import (
	"context"
	"errors"

	"feedback-api/internal/domain"
	"feedback-api/internal/repository"
)

const genericInternalReason = "Internal server error"

// FeedbackWriter persists a single feedback record.
type FeedbackWriter interface {
	WriteFeedback(ctx context.Context, rec domain.FeedbackRecord) error
}

type FeedbackService struct {
	writer FeedbackWriter
}

type SubmitInput struct {
	Payload  RawSubmission
	Username string
}

type SubmitOutput struct {
	FeedbackID string
	Record     domain.FeedbackRecord
}

func NewFeedbackService(w FeedbackWriter) (*FeedbackService, error) {
	if w == nil {
		return nil, errors.New("usecase: feedback writer must not be nil")
	}
	return &FeedbackService{writer: w}, nil
}

// Submit validates the payload and writes exactly one record. Nothing is
// written when validation fails.
func (s *FeedbackService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	sub, err := Validate(in.Payload)
	if err != nil {
		return SubmitOutput{}, err
	}

	rec := repository.NewFeedbackRecord(sub, in.Username)
	if err := s.writer.WriteFeedback(ctx, rec); err != nil {
		return SubmitOutput{}, newError(ErrorStoreUnavailable, genericInternalReason, err)
	}

	return SubmitOutput{
		FeedbackID: rec.FeedbackID,
		Record:     rec,
	}, nil
}
