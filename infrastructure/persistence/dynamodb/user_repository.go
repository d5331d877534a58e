package dynamodb

import (
	"context"
	"fmt"
	"time"

	"gamegroup-backend/application/ports"
	"gamegroup-backend/domain/core/entities"
	apperrors "gamegroup-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// UserRepository implements ports.UserRepository using DynamoDB
type UserRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(client API, tableName string, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

type userItem struct {
	ID              string   `dynamodbav:"ID"`
	Username        string   `dynamodbav:"Username"`
	FavoriteGameIDs []string `dynamodbav:"FavoriteGameIDs,omitempty"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
}

func (r *UserRepository) decode(av map[string]types.AttributeValue) *entities.User {
	var item userItem
	decodeItem(r.logger, ports.CollectionUsers, av, &item)

	favorites := make([]string, 0, len(item.FavoriteGameIDs))
	for _, id := range item.FavoriteGameIDs {
		if id != "" {
			favorites = append(favorites, id)
		}
	}

	return &entities.User{
		ID:              item.ID,
		Username:        item.Username,
		FavoriteGameIDs: favorites,
		CreatedAt:       parseTime(item.CreatedAt, r.now()),
	}
}

func (r *UserRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*entities.User, error) {
	input.TableName = aws.String(r.tableName)
	items, err := scanAll(ctx, r.client, ports.CollectionUsers, input)
	if err != nil {
		return nil, err
	}

	users := make([]*entities.User, 0, len(items))
	for _, av := range items {
		users = append(users, r.decode(av))
	}
	return users, nil
}

// List returns every user
func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	return r.scan(ctx, &dynamodb.ScanInput{})
}

// ListWithFavorites returns users whose FavoriteGameIDs list is non-empty
func (r *UserRepository) ListWithFavorites(ctx context.Context) ([]*entities.User, error) {
	filter := expression.Name("FavoriteGameIDs").Size().GreaterThan(expression.Value(0))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	users, err := r.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	// Lists holding only blank ids decode to empty
	withFavorites := users[:0]
	for _, u := range users {
		if len(u.FavoriteGameIDs) > 0 {
			withFavorites = append(withFavorites, u)
		}
	}
	return withFavorites, nil
}

// GetByID retrieves a single user
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"ID": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, apperrors.FromDynamoDB("GetItem", ports.CollectionUsers, err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.NewNotFoundError("user")
	}
	return r.decode(out.Item), nil
}

// Save creates or replaces a user
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	av, err := attributevalue.MarshalMap(userItem{
		ID:              user.ID,
		Username:        user.Username,
		FavoriteGameIDs: user.FavoriteGameIDs,
		CreatedAt:       formatTime(user.CreatedAt),
	})
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal user: %v", err))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save user", zap.String("userID", user.ID), zap.Error(err))
		return apperrors.FromDynamoDB("PutItem", ports.CollectionUsers, err)
	}
	return nil
}
