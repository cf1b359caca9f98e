package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taara-api/internal/domain"
)

// Per-call caps for BatchWriteItem and BatchGetItem.
const (
	batchWriteLimit = 25
	batchGetLimit   = 100
)

// notificationAPI is the part of *dynamodb.Client the notifications table uses.
type notificationAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    notificationAPI
	tableName string
}

func NewNotificationRepo(client notificationAPI, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// Put writes the notification. Re-putting the same id is harmless, which is
// what makes dispatcher retries safe.
func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("notification_id", notificationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, &domain.NotFoundError{Entity: "notification", ID: notificationID}
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the user's notifications newest first. The GSI only
// supplies ids and order; items come from a consistent read of the table.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	return r.list(ctx, userID, false)
}

// ListUnread is ListByUser filtered to read=false. The filter is applied to the
// consistent table items, so a notification just marked read is never counted.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return r.list(ctx, userID, true)
}

// MarkRead flips read to true and stamps read_at, only if the item is currently unread.
// Returns domain.ErrConflict when it was already read or does not exist.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, at time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET #r = :t, #ra = :at"),
		ConditionExpression: aws.String("attribute_exists(notification_id) AND #r = :f"),
		ExpressionAttributeNames: map[string]string{
			"#r":  fieldRead,
			"#ra": fieldReadAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":  boolean(true),
			":f":  boolean(false),
			":at": str(at.UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s not unread: %w", notificationID, domain.ErrConflict)
	}
	return err
}

// DeleteByUser hard-deletes every notification owned by userID and returns the count removed.
func (r *NotificationRepo) DeleteByUser(ctx context.Context, userID string) (int, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreatedAt),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": str(userID)},
		ProjectionExpression:      aws.String("notification_id"),
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for start := 0; start < len(items); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(items))
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{
					"notification_id": item["notification_id"],
				}},
			})
		}
		if err := r.batchWrite(ctx, reqs); err != nil {
			return deleted, err
		}
		deleted += len(reqs)
	}
	return deleted, nil
}

// batchWrite retries UnprocessedItems a bounded number of times.
func (r *NotificationRepo) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: reqs}
	for attempt := 0; attempt < 5 && len(pending[r.tableName]) > 0; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems
		if len(pending[r.tableName]) > 0 {
			time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
		}
	}
	if n := len(pending[r.tableName]); n > 0 {
		return fmt.Errorf("batch delete left %d unprocessed items", n)
	}
	return nil
}

func (r *NotificationRepo) list(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	keys, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreatedAt),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": str(userID)},
		ProjectionExpression:      aws.String("notification_id"),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil || len(keys) == 0 {
		return nil, err
	}
	items, err := r.batchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Notification, len(items))
	for _, item := range items {
		var n domain.Notification
		if err := attributevalue.UnmarshalMap(item, &n); err != nil {
			return nil, err
		}
		byID[n.NotificationID] = n
	}

	notifications := make([]domain.Notification, 0, len(keys))
	for _, k := range keys {
		var id string
		if err := attributevalue.Unmarshal(k["notification_id"], &id); err != nil {
			return nil, err
		}
		n, ok := byID[id]
		if !ok || (unreadOnly && n.Read) {
			// Missing means deleted after the index was read.
			continue
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// batchGet reads keys from the table with strongly consistent reads,
// retrying UnprocessedKeys a bounded number of times.
func (r *NotificationRepo) batchGet(ctx context.Context, keys []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for start := 0; start < len(keys); start += batchGetLimit {
		end := min(start+batchGetLimit, len(keys))
		pending := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys[start:end], ConsistentRead: aws.Bool(true)},
		}
		for attempt := 0; len(pending[r.tableName].Keys) > 0; attempt++ {
			if attempt == 5 {
				return nil, fmt.Errorf("batch get left %d unprocessed keys", len(pending[r.tableName].Keys))
			}
			if attempt > 0 {
				time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
			}
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, err
			}
			items = append(items, out.Responses[r.tableName]...)
			left := out.UnprocessedKeys[r.tableName]
			left.ConsistentRead = aws.Bool(true)
			pending = map[string]types.KeysAndAttributes{r.tableName: left}
		}
	}
	return items, nil
}
