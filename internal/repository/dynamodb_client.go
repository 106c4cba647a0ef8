package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"feedback-api/internal/domain"
)

const (
	attrFeedbackID = "feedbackId"
	// UnknownUsername is stored when the caller's claims carry no usable name.
	UnknownUsername = "unknown"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client wraps a DynamoDB table holding feedback records.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// WriteFeedback persists rec as a new item. The put is conditional on the
// feedbackId not existing so a record can never be overwritten.
func (c *Client) WriteFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	if rec.FeedbackID == "" {
		return errors.New("repository: WriteFeedback: feedbackId is required")
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("repository: WriteFeedback marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": attrFeedbackID,
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("repository: WriteFeedback: duplicate feedbackId %q: %w", rec.FeedbackID, err)
		}
		return fmt.Errorf("repository: WriteFeedback: %w", err)
	}
	return nil
}

// NewFeedbackRecord constructs a FeedbackRecord with a fresh feedbackId and
// the current time in milliseconds.
func NewFeedbackRecord(sub domain.FeedbackSubmission, username string) domain.FeedbackRecord {
	if strings.TrimSpace(username) == "" {
		username = UnknownUsername
	}
	return domain.FeedbackRecord{
		FeedbackID:   newID(),
		SessionID:    sub.SessionID,
		Message:      sub.Message,
		Username:     username,
		FeedbackType: sub.FeedbackType,
		Timestamp:    now().UnixMilli(),
	}
}

var newID = func() string {
	return uuid.NewString()
}

var now = time.Now
