package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taara-api/internal/domain"
)

// laggingIndex serves a GSI that still lists every id it once saw while the
// table holds the current items. deferFirst pushes every key after the first
// of the first BatchGetItem call into UnprocessedKeys.
type laggingIndex struct {
	notificationAPI
	table      map[string]domain.Notification
	indexIDs   []string
	deferFirst bool

	getIn    *dynamodb.GetItemInput
	queryIn  *dynamodb.QueryInput
	batchIns []*dynamodb.BatchGetItemInput
}

func (f *laggingIndex) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getIn = in
	n, ok := f.table[in.Key["notification_id"].(*types.AttributeValueMemberS).Value]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	item, err := attributevalue.MarshalMap(n)
	return &dynamodb.GetItemOutput{Item: item}, err
}

func (f *laggingIndex) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryIn = in
	out := &dynamodb.QueryOutput{}
	for _, id := range f.indexIDs {
		out.Items = append(out.Items, map[string]types.AttributeValue{"notification_id": str(id)})
	}
	return out, nil
}

func (f *laggingIndex) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.batchIns = append(f.batchIns, in)
	out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, ka := range in.RequestItems {
		for i, key := range ka.Keys {
			if f.deferFirst && len(f.batchIns) == 1 && i > 0 {
				left := out.UnprocessedKeys[table]
				left.Keys = append(left.Keys, key)
				if out.UnprocessedKeys == nil {
					out.UnprocessedKeys = map[string]types.KeysAndAttributes{}
				}
				out.UnprocessedKeys[table] = left
				continue
			}
			n, ok := f.table[key["notification_id"].(*types.AttributeValueMemberS).Value]
			if !ok {
				continue
			}
			item, err := attributevalue.MarshalMap(n)
			if err != nil {
				return nil, err
			}
			out.Responses[table] = append(out.Responses[table], item)
		}
	}
	return out, nil
}

func notificationTable() map[string]domain.Notification {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return map[string]domain.Notification{
		"n1": {NotificationID: "n1", UserID: "u1", Title: "one", CreatedAt: at},
		"n2": {NotificationID: "n2", UserID: "u1", Title: "two", Read: true, ReadAt: &at, CreatedAt: at.Add(time.Minute)},
	}
}

func TestNotificationRepo_GetIsConsistent(t *testing.T) {
	api := &laggingIndex{table: notificationTable()}
	repo := NewNotificationRepo(api, "notifications")

	n, err := repo.Get(context.Background(), "n2")

	require.NoError(t, err)
	assert.True(t, n.Read)
	require.NotNil(t, api.getIn.ConsistentRead)
	assert.True(t, *api.getIn.ConsistentRead)
}

func TestNotificationRepo_ListUnreadUsesTableState(t *testing.T) {
	// The index still lists n3 (deleted) and would report n2 as unread.
	api := &laggingIndex{table: notificationTable(), indexIDs: []string{"n3", "n2", "n1"}}
	repo := NewNotificationRepo(api, "notifications")

	unread, err := repo.ListUnread(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n1", unread[0].NotificationID)

	assert.Equal(t, indexUserCreatedAt, *api.queryIn.IndexName)
	assert.Equal(t, "notification_id", *api.queryIn.ProjectionExpression)
	assert.Nil(t, api.queryIn.FilterExpression)
	require.Len(t, api.batchIns, 1)
	assert.True(t, *api.batchIns[0].RequestItems["notifications"].ConsistentRead)
}

func TestNotificationRepo_ListByUserKeepsIndexOrder(t *testing.T) {
	api := &laggingIndex{table: notificationTable(), indexIDs: []string{"n2", "n1"}, deferFirst: true}
	repo := NewNotificationRepo(api, "notifications")

	list, err := repo.ListByUser(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].NotificationID)
	assert.Equal(t, "n1", list[1].NotificationID)
	require.Len(t, api.batchIns, 2)
	assert.True(t, *api.batchIns[1].RequestItems["notifications"].ConsistentRead)
}

func TestNotificationRepo_ListEmptyIndex(t *testing.T) {
	api := &laggingIndex{table: notificationTable()}
	list, err := NewNotificationRepo(api, "notifications").ListUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, api.batchIns)
}
