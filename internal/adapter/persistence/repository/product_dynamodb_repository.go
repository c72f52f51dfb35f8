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

type productItem struct {
	ID          string `dynamodbav:"id"`
	Picture     string `dynamodbav:"picture,omitempty"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
	Type        string `dynamodbav:"type,omitempty"`
	Stock       int    `dynamodbav:"stock"`
	Price       string `dynamodbav:"price"`
	Currency    string `dynamodbav:"currency"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

// ProductDynamoRepository persists Product entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//
// Stock is stored as a number so DecrementStock can run an arithmetic update
// guarded by a condition expression instead of a read-modify-write from
// application memory.
type ProductDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IProductRepository = (*ProductDynamoRepository)(nil)

func NewProductDynamoRepository(ddb *dynamodb.Client, tableName string) *ProductDynamoRepository {
	return &ProductDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *ProductDynamoRepository) Create(ctx context.Context, p entities.Product) (entities.Product, error) {
	it := toProductItem(p)
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Product{}, err
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
		return entities.Product{}, err
	}
	return p, nil
}

func (r *ProductDynamoRepository) GetByID(ctx context.Context, id string) (entities.Product, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Product{}, err
	}
	if len(out.Item) == 0 {
		return entities.Product{}, nil
	}

	var it productItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Product{}, err
	}
	return fromProductItem(it), nil
}

func (r *ProductDynamoRepository) List(ctx context.Context) ([]entities.Product, error) {
	out, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}

	items := make([]entities.Product, 0, len(out.Items))
	for _, raw := range out.Items {
		var it productItem
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, err
		}
		items = append(items, fromProductItem(it))
	}
	return items, nil
}

func (r *ProductDynamoRepository) Update(ctx context.Context, p entities.Product) (entities.Product, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: p.ID},
		},
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression: aws.String("SET #picture = :picture, #name = :name, #description = :description, " +
			"#type = :type, #stock = :stock, #price = :price, #currency = :currency, #updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":picture":     &types.AttributeValueMemberS{Value: p.Picture},
			":name":        &types.AttributeValueMemberS{Value: p.Name},
			":description": &types.AttributeValueMemberS{Value: p.Description},
			":type":        &types.AttributeValueMemberS{Value: p.Type},
			":stock":       &types.AttributeValueMemberN{Value: strconv.Itoa(p.Stock)},
			":price":       &types.AttributeValueMemberS{Value: floatToString(p.Price)},
			":currency":    &types.AttributeValueMemberS{Value: p.Currency},
			":updated_at":  &types.AttributeValueMemberS{Value: now},
		},
		ExpressionAttributeNames: map[string]string{
			"#id":          "id",
			"#picture":     "picture",
			"#name":        "name",
			"#description": "description",
			"#type":        "type",
			"#stock":       "stock",
			"#price":       "price",
			"#currency":    "currency",
			"#updated_at":  "updated_at",
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Product{}, nil
		}
		return entities.Product{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Product{}, nil
	}

	var it productItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Product{}, err
	}
	return fromProductItem(it), nil
}

func (r *ProductDynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	return err
}

// DecrementStock subtracts quantity from stock only when enough stock remains.
// The condition makes concurrent decrements safe: DynamoDB rejects the write
// when stock < quantity, and the caller sees a zero-value Product instead of a
// negative stock count.
func (r *ProductDynamoRepository) DecrementStock(ctx context.Context, id string, quantity int) (entities.Product, error) {
	if quantity <= 0 {
		return entities.Product{}, errors.New("quantity must be positive")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(#id) AND #stock >= :q"),
		UpdateExpression:    aws.String("SET #stock = #stock - :q, #updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":          &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
			":updated_at": &types.AttributeValueMemberS{Value: now},
		},
		ExpressionAttributeNames: map[string]string{
			"#id":         "id",
			"#stock":      "stock",
			"#updated_at": "updated_at",
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Product{}, nil
		}
		return entities.Product{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Product{}, nil
	}

	var it productItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Product{}, err
	}
	return fromProductItem(it), nil
}

func toProductItem(p entities.Product) productItem {
	return productItem{
		ID:          p.ID,
		Picture:     p.Picture,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		Stock:       p.Stock,
		Price:       floatToString(p.Price),
		Currency:    p.Currency,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromProductItem(it productItem) entities.Product {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	price, _ := strconv.ParseFloat(it.Price, 64)
	return entities.Product{
		ID:          it.ID,
		Picture:     it.Picture,
		Name:        it.Name,
		Description: it.Description,
		Type:        it.Type,
		Stock:       it.Stock,
		Price:       price,
		Currency:    it.Currency,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}
