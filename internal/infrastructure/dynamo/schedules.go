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

// ScheduleRepo provides typed DynamoDB operations for the kapon_schedules table.
type ScheduleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewScheduleRepo(client *dynamodb.Client, tableName string) *ScheduleRepo {
	return &ScheduleRepo{client: client, tableName: tableName}
}

func (r *ScheduleRepo) Put(ctx context.Context, s *domain.Schedule) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(schedule_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("schedule %s already exists: %w", s.ScheduleID, domain.ErrConflict)
	}
	return err
}

func (r *ScheduleRepo) Get(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("schedule_id", scheduleID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, &domain.NotFoundError{Entity: "schedule", ID: scheduleID}
	}
	var s domain.Schedule
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepo) List(ctx context.Context) ([]domain.Schedule, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var schedules []domain.Schedule
	if err := attributevalue.UnmarshalListOfMaps(items, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepo) SetStatus(ctx context.Context, scheduleID string, status domain.ScheduleStatus) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:    status,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("schedule_id", scheduleID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(schedule_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return &domain.NotFoundError{Entity: "schedule", ID: scheduleID}
	}
	return err
}

// Delete is a hard delete. Registrations pointing at the schedule are left in place.
func (r *ScheduleRepo) Delete(ctx context.Context, scheduleID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("schedule_id", scheduleID),
		ConditionExpression: aws.String("attribute_exists(schedule_id)"),
	})
	if isConditionFailed(err) {
		return &domain.NotFoundError{Entity: "schedule", ID: scheduleID}
	}
	return err
}

// Reserve atomically takes one slot. The condition makes the capacity check and the
// increment a single write, so registered_count can never pass capacity.
func (r *ScheduleRepo) Reserve(ctx context.Context, scheduleID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("schedule_id", scheduleID),
		UpdateExpression:    aws.String("ADD #rc :one SET #ua = :now"),
		ConditionExpression: aws.String("attribute_exists(schedule_id) AND #rc < #cap AND #st = :active"),
		ExpressionAttributeNames: map[string]string{
			"#rc":  fieldRegisteredCount,
			"#cap": fieldCapacity,
			"#st":  fieldStatus,
			"#ua":  fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":    num(1),
			":active": str(string(domain.ScheduleActive)),
			":now":    str(time.Now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionFailed(err) {
		return &domain.CapacityExceededError{ScheduleID: scheduleID}
	}
	return err
}

// Release gives one slot back. A count already at zero is left alone.
func (r *ScheduleRepo) Release(ctx context.Context, scheduleID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("schedule_id", scheduleID),
		UpdateExpression:    aws.String("ADD #rc :neg SET #ua = :now"),
		ConditionExpression: aws.String("attribute_exists(schedule_id) AND #rc > :zero"),
		ExpressionAttributeNames: map[string]string{
			"#rc": fieldRegisteredCount,
			"#ua": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":neg":  num(-1),
			":zero": num(0),
			":now":  str(time.Now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}
