package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const orderSessionIDIndex = "session_id-index"

type orderItem struct {
	ID            string `dynamodbav:"id"`
	ProductID     string `dynamodbav:"product_id"`
	ClientName    string `dynamodbav:"client_name"`
	ClientEmail   string `dynamodbav:"client_email"`
	ClientPhone   string `dynamodbav:"client_phone,omitempty"`
	ClientAddress string `dynamodbav:"client_address"`
	SessionID     string `dynamodbav:"session_id,omitempty"`
	Status        string `dynamodbav:"status"`
	Total         string `dynamodbav:"total"`
	Currency      string `dynamodbav:"currency"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

// OrderDynamoRepository persists Order entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: session_id-index (PK: session_id)
//
// session_id is written only once the checkout session exists; items without
// it simply never appear in the GSI.
//
// UpdateStatus is the storage half of the reconciliation mutual-exclusion
// requirement: the condition "#status = :expected" turns the status write
// into a compare-and-set, so of two racing writers exactly one succeeds and
// the other gets ConditionalCheckFailed (surfaced as a zero-value Order).
type OrderDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb *dynamodb.Client, tableName string) *OrderDynamoRepository {
	return &OrderDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *OrderDynamoRepository) Create(ctx context.Context, o entities.Order) (entities.Order, error) {
	it := toOrderItem(o)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Order{}, err
	}
	return o, nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) GetBySessionID(ctx context.Context, sessionID string) (entities.Order, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(orderSessionIDIndex),
		KeyConditionExpression: aws.String("session_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Items) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func (r *OrderDynamoRepository) List(ctx context.Context) ([]entities.Order, error) {
	out, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Order, 0, len(out.Items))
	for _, raw := range out.Items {
		var it orderItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromOrderItem(it))
	}
	return items, nil
}

func (r *OrderDynamoRepository) UpdateStatus(ctx context.Context, id string, expected, next entities.OrderStatus) (entities.Order, error) {
	return r.update(ctx, id,
		"SET #status = :next, #updated_at = :updated_at",
		"attribute_exists(#id) AND #status = :expected",
		map[string]types.AttributeValue{
			":next":     &types.AttributeValueMemberS{Value: string(next)},
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
		},
		map[string]string{"#status": "status"},
	)
}

func (r *OrderDynamoRepository) UpdateSessionID(ctx context.Context, id, sessionID string) (entities.Order, error) {
	return r.update(ctx, id,
		"SET #session_id = :sid, #updated_at = :updated_at",
		"attribute_exists(#id)",
		map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
		map[string]string{"#session_id": "session_id"},
	)
}

func (r *OrderDynamoRepository) update(
	ctx context.Context,
	id, updateExpr, conditionExpr string,
	values map[string]types.AttributeValue,
	names map[string]string,
) (entities.Order, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	values[":updated_at"] = &types.AttributeValueMemberS{Value: now}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String(conditionExpr),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id", "#updated_at": "updated_at"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Order{}, nil
		}
		return entities.Order{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Order{}, err
	}
	return fromOrderItem(it), nil
}

func toOrderItem(o entities.Order) orderItem {
	return orderItem{
		ID:            o.ID,
		ProductID:     o.ProductID,
		ClientName:    o.ClientName,
		ClientEmail:   o.ClientEmail,
		ClientPhone:   o.ClientPhone,
		ClientAddress: o.ClientAddress,
		SessionID:     o.ProviderSessionID,
		Status:        string(o.Status),
		Total:         floatToString(o.Total),
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromOrderItem(it orderItem) entities.Order {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	total, _ := strconv.ParseFloat(it.Total, 64)
	return entities.Order{
		ID:                it.ID,
		ProductID:         it.ProductID,
		ClientName:        it.ClientName,
		ClientEmail:       it.ClientEmail,
		ClientPhone:       it.ClientPhone,
		ClientAddress:     it.ClientAddress,
		ProviderSessionID: it.SessionID,
		Status:            entities.OrderStatus(it.Status),
		Total:             total,
		Currency:          it.Currency,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}
