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

// RequestRepo provides typed DynamoDB operations for the requests table.
// All four request kinds share the table; the kind attribute partitions the kind GSI.
type RequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRequestRepo(client *dynamodb.Client, tableName string) *RequestRepo {
	return &RequestRepo{client: client, tableName: tableName}
}

// Put inserts a new request. It refuses to overwrite an existing id.
func (r *RequestRepo) Put(ctx context.Context, req *domain.Request) error {
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(request_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("request %s already exists: %w", req.RequestID, domain.ErrConflict)
	}
	return err
}

func (r *RequestRepo) Get(ctx context.Context, requestID string) (*domain.Request, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("request_id", requestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, &domain.NotFoundError{Entity: "request", ID: requestID}
	}
	var req domain.Request
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByKind queries the kind GSI newest first, optionally filtered by status.
func (r *RequestRepo) ListByKind(ctx context.Context, kind domain.RequestKind, status *domain.RequestStatus) ([]domain.Request, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexKindCreatedAt),
		KeyConditionExpression:   aws.String("#k = :kind"),
		ExpressionAttributeNames: map[string]string{"#k": "kind"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kind": str(string(kind)),
		},
		ScanIndexForward: aws.Bool(false),
	}
	if status != nil {
		in.FilterExpression = aws.String("#st = :st")
		in.ExpressionAttributeNames["#st"] = fieldStatus
		in.ExpressionAttributeValues[":st"] = str(string(*status))
	}
	return r.query(ctx, in)
}

// ListByStatus queries the status GSI newest first across all kinds.
func (r *RequestRepo) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.Request, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexStatusCreatedAt),
		KeyConditionExpression:    aws.String("#st = :st"),
		ExpressionAttributeNames:  map[string]string{"#st": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{":st": str(string(status))},
		ScanIndexForward:          aws.Bool(false),
	})
}

func (r *RequestRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Request, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexOwnerCreatedAt),
		KeyConditionExpression:    aws.String("owner_user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": str(ownerUserID)},
		ScanIndexForward:          aws.Bool(false),
	})
}

// ListAll scans the whole table. Callers sort the result.
func (r *RequestRepo) ListAll(ctx context.Context) ([]domain.Request, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var reqs []domain.Request
	if err := attributevalue.UnmarshalListOfMaps(items, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// UpdateStatus applies updates only if the stored status still equals from.
// A lost race surfaces as domain.ErrConflict.
func (r *RequestRepo) UpdateStatus(ctx context.Context, requestID string, from domain.RequestStatus, updates map[string]interface{}) error {
	if _, ok := updates[fieldUpdatedAt]; !ok {
		updates[fieldUpdatedAt] = time.Now().UTC()
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue = ue.with(
		map[string]string{"#cur": fieldStatus},
		map[string]types.AttributeValue{":from": str(string(from))},
	)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(request_id) AND #cur = :from"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("request %s is no longer %s: %w", requestID, from, domain.ErrConflict)
	}
	return err
}

func (r *RequestRepo) SetHidden(ctx context.Context, requestID string, hidden bool, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldHidden:    hidden,
		fieldUpdatedAt: at.UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(request_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return &domain.NotFoundError{Entity: "request", ID: requestID}
	}
	return err
}

func (r *RequestRepo) query(ctx context.Context, in *dynamodb.QueryInput) ([]domain.Request, error) {
	items, err := queryAll(ctx, r.client, in)
	if err != nil {
		return nil, err
	}
	var reqs []domain.Request
	if err := attributevalue.UnmarshalListOfMaps(items, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}
