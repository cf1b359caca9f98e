package domain

import "time"

// Notification is written once per templated lifecycle transition.
// Only Read and ReadAt change afterwards.
type Notification struct {
	NotificationID string            `json:"id" dynamodbav:"notification_id"`
	UserID         string            `json:"user_id" dynamodbav:"user_id"`
	Type           string            `json:"type" dynamodbav:"type"`
	Title          string            `json:"title" dynamodbav:"title"`
	Message        string            `json:"message" dynamodbav:"message"`
	Read           bool              `json:"read" dynamodbav:"read"`
	RelatedID      *string           `json:"related_id,omitempty" dynamodbav:"related_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created" dynamodbav:"created_at"`
	ReadAt         *time.Time        `json:"read_at,omitempty" dynamodbav:"read_at,omitempty"`
}

// NotifyInput describes one notification. An empty ID gets a fresh ULID;
// callers that may re-send the same event pass a deterministic one.
type NotifyInput struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	RelatedID *string
	Metadata  map[string]string
}
