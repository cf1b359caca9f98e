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

// petAPI is the part of *dynamodb.Client the pets table uses.
type petAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// PetRepo provides typed DynamoDB operations for the pets table.
type PetRepo struct {
	client    petAPI
	tableName string
}

func NewPetRepo(client petAPI, tableName string) *PetRepo {
	return &PetRepo{client: client, tableName: tableName}
}

func (r *PetRepo) Put(ctx context.Context, p *domain.Pet) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pet: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PetRepo) Get(ctx context.Context, petID string) (*domain.Pet, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("pet_id", petID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, &domain.NotFoundError{Entity: "pet", ID: petID}
	}
	var p domain.Pet
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PetRepo) List(ctx context.Context) ([]domain.Pet, error) {
	items, err := scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var pets []domain.Pet
	if err := attributevalue.UnmarshalListOfMaps(items, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

func (r *PetRepo) Update(ctx context.Context, petID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("pet_id", petID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(pet_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return &domain.NotFoundError{Entity: "pet", ID: petID}
	}
	return err
}

// MarkAdopted records the adopter. It only succeeds while the pet is available
// or already adopted by the same user; otherwise it returns domain.ErrConflict
// and the stored adopter is untouched.
func (r *PetRepo) MarkAdopted(ctx context.Context, petID, adoptedBy string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("pet_id", petID),
		UpdateExpression:    aws.String("SET #st = :adopted, #by = :by, #ua = :now"),
		ConditionExpression: aws.String("attribute_exists(pet_id) AND (#st = :available OR #by = :by)"),
		ExpressionAttributeNames: map[string]string{
			"#st": fieldStatus,
			"#by": fieldAdoptedBy,
			"#ua": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":adopted":   str(string(domain.PetAdopted)),
			":available": str(string(domain.PetAvailable)),
			":by":        str(adoptedBy),
			":now":       str(time.Now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("pet %s is not available to %s: %w", petID, adoptedBy, domain.ErrConflict)
	}
	return err
}

func (r *PetRepo) Delete(ctx context.Context, petID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("pet_id", petID),
		ConditionExpression: aws.String("attribute_exists(pet_id)"),
	})
	if isConditionFailed(err) {
		return &domain.NotFoundError{Entity: "pet", ID: petID}
	}
	return err
}
