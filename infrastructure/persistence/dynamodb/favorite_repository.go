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

// FavoriteRepository implements ports.FavoriteRepository. The table is keyed
// by UserID (hash) and GameID (range), so a user favorites a game at most once.
type FavoriteRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewFavoriteRepository creates a new FavoriteRepository
func NewFavoriteRepository(client API, tableName string, logger *zap.Logger) *FavoriteRepository {
	return &FavoriteRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

type favoriteItem struct {
	UserID    string `dynamodbav:"UserID"`
	GameID    string `dynamodbav:"GameID"`
	ID        string `dynamodbav:"ID"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

func (r *FavoriteRepository) decode(av map[string]types.AttributeValue) *entities.Favorite {
	var item favoriteItem
	decodeItem(r.logger, ports.CollectionFavorites, av, &item)

	return &entities.Favorite{
		ID:        item.ID,
		UserID:    item.UserID,
		GameID:    item.GameID,
		CreatedAt: parseTime(item.CreatedAt, r.now()),
	}
}

func (r *FavoriteRepository) key(userID, gameID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"UserID": &types.AttributeValueMemberS{Value: userID},
		"GameID": &types.AttributeValueMemberS{Value: gameID},
	}
}

func (r *FavoriteRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*entities.Favorite, error) {
	input.TableName = aws.String(r.tableName)
	items, err := scanAll(ctx, r.client, ports.CollectionFavorites, input)
	if err != nil {
		return nil, err
	}

	favorites := make([]*entities.Favorite, 0, len(items))
	for _, av := range items {
		favorites = append(favorites, r.decode(av))
	}
	return favorites, nil
}

// List returns every favorite
func (r *FavoriteRepository) List(ctx context.Context) ([]*entities.Favorite, error) {
	return r.scan(ctx, &dynamodb.ScanInput{})
}

// ListCreatedBetween returns favorites created inside [start, end]
func (r *FavoriteRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Favorite, error) {
	filter := expression.Name("CreatedAt").Between(
		expression.Value(formatTime(start)),
		expression.Value(formatTime(end)),
	)
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	return r.scan(ctx, &dynamodb.ScanInput{
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// Exists reports whether userID has favorited gameID
func (r *FavoriteRepository) Exists(ctx context.Context, userID, gameID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(userID, gameID),
	})
	if err != nil {
		return false, apperrors.FromDynamoDB("GetItem", ports.CollectionFavorites, err)
	}
	return len(out.Item) > 0, nil
}

// Save stores a favorite, replacing an existing one for the same user and game
func (r *FavoriteRepository) Save(ctx context.Context, favorite *entities.Favorite) error {
	av, err := attributevalue.MarshalMap(favoriteItem{
		UserID:    favorite.UserID,
		GameID:    favorite.GameID,
		ID:        favorite.ID,
		CreatedAt: formatTime(favorite.CreatedAt),
	})
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal favorite: %v", err))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save favorite",
			zap.String("userID", favorite.UserID),
			zap.String("gameID", favorite.GameID),
			zap.Error(err),
		)
		return apperrors.FromDynamoDB("PutItem", ports.CollectionFavorites, err)
	}
	return nil
}

// Delete removes a favorite
func (r *FavoriteRepository) Delete(ctx context.Context, userID, gameID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("UserID"))).
		Build()
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(userID, gameID),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("favorite")
		}
		return apperrors.FromDynamoDB("DeleteItem", ports.CollectionFavorites, err)
	}
	return nil
}
