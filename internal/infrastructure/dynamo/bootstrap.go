package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/taara-api/internal/config"
	"go.uber.org/zap"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Tables that already exist are skipped, so it runs on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables, log *zap.Logger) {
	for _, in := range tableDefinitions(tables) {
		createTable(ctx, client, in, log)
	}
}

func tableDefinitions(tables config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(tables.Users),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr("user_id"),
				attr("email"),
			},
			KeySchema:              hashKey("user_id"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexEmail, "email", "")},
		},
		{
			TableName:   aws.String(tables.Requests),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr("request_id"),
				attr("kind"),
				attr("status"),
				attr("owner_user_id"),
				attr("created_at"),
			},
			KeySchema: hashKey("request_id"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexKindCreatedAt, "kind", "created_at"),
				gsi(indexStatusCreatedAt, "status", "created_at"),
				gsi(indexOwnerCreatedAt, "owner_user_id", "created_at"),
			},
		},
		{
			TableName:   aws.String(tables.Notifications),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr("notification_id"),
				attr("user_id"),
				attr("created_at"),
			},
			KeySchema:              hashKey("notification_id"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexUserCreatedAt, "user_id", "created_at")},
		},
		{
			TableName:            aws.String(tables.Files),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{attr("file_id"), attr("uploaded_by_user_id")},
			KeySchema:            hashKey("file_id"),
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUploadedByUserID, "uploaded_by_user_id", ""),
			},
		},
		simpleTable(tables.Schedules, "schedule_id"),
		simpleTable(tables.Pets, "pet_id"),
		simpleTable(tables.Announcements, "announcement_id"),
	}
}

func simpleTable(name, key string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attr(key)},
		KeySchema:            hashKey(key),
	}
}

func attr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput, log *zap.Logger) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			log.Warn("could not create table", zap.String("table", *input.TableName), zap.Error(err))
		}
		return
	}
	log.Info("created table", zap.String("table", *input.TableName))
}
