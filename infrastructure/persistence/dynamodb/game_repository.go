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

// GameRepository implements ports.GameRepository using DynamoDB
type GameRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewGameRepository creates a new GameRepository
func NewGameRepository(client API, tableName string, logger *zap.Logger) *GameRepository {
	return &GameRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// gameItem represents the DynamoDB item structure for a game
type gameItem struct {
	ID          string `dynamodbav:"ID"`
	Name        string `dynamodbav:"Name"`
	Description string `dynamodbav:"Description,omitempty"`
	Category    string `dynamodbav:"Category,omitempty"`
	MinPlayers  int    `dynamodbav:"MinPlayers"`
	MaxPlayers  int    `dynamodbav:"MaxPlayers"`
	OwnerID     string `dynamodbav:"OwnerID,omitempty"`
	LikeCount   int    `dynamodbav:"LikeCount"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

func toGameItem(g *entities.Game) gameItem {
	return gameItem{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Category:    g.Category,
		MinPlayers:  g.MinPlayers,
		MaxPlayers:  g.MaxPlayers,
		OwnerID:     g.OwnerID,
		LikeCount:   g.LikeCount,
		CreatedAt:   formatTime(g.CreatedAt),
		UpdatedAt:   formatTime(g.UpdatedAt),
	}
}

func (r *GameRepository) decode(av map[string]types.AttributeValue) *entities.Game {
	var item gameItem
	decodeItem(r.logger, ports.CollectionGames, av, &item)

	now := r.now()
	createdAt := parseTime(item.CreatedAt, now)
	updatedAt := createdAt
	if item.UpdatedAt != "" {
		updatedAt = parseTime(item.UpdatedAt, createdAt)
	}

	return &entities.Game{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		MinPlayers:  nonNegative(item.MinPlayers),
		MaxPlayers:  nonNegative(item.MaxPlayers),
		OwnerID:     item.OwnerID,
		LikeCount:   nonNegative(item.LikeCount),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

func (r *GameRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ID": &types.AttributeValueMemberS{Value: id},
	}
}

// List returns every game
func (r *GameRepository) List(ctx context.Context) ([]*entities.Game, error) {
	items, err := scanAll(ctx, r.client, ports.CollectionGames, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}

	games := make([]*entities.Game, 0, len(items))
	for _, av := range items {
		games = append(games, r.decode(av))
	}
	return games, nil
}

// GetByIDs fetches games with BatchGetItem, 100 keys per request. Unknown ids
// are skipped and the result follows the order of ids.
func (r *GameRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Game, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	found := make(map[string]*entities.Game, len(unique))
	for _, batch := range chunk(unique, maxBatchGetKeys) {
		keys := make([]map[string]types.AttributeValue, 0, len(batch))
		for _, id := range batch {
			keys = append(keys, r.key(id))
		}

		request := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys},
		}
		for len(request) > 0 {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, apperrors.FromDynamoDB("BatchGetItem", ports.CollectionGames, err)
			}
			for _, av := range out.Responses[r.tableName] {
				game := r.decode(av)
				found[game.ID] = game
			}
			request = out.UnprocessedKeys
		}
	}

	games := make([]*entities.Game, 0, len(found))
	for _, id := range unique {
		if game, ok := found[id]; ok {
			games = append(games, game)
		}
	}

	r.logger.Debug("Fetched games by id",
		zap.Int("requested", len(unique)),
		zap.Int("found", len(games)),
	)
	return games, nil
}

// GetByID retrieves a single game
func (r *GameRepository) GetByID(ctx context.Context, id string) (*entities.Game, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(id),
	})
	if err != nil {
		return nil, apperrors.FromDynamoDB("GetItem", ports.CollectionGames, err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.NewNotFoundError("game")
	}
	return r.decode(out.Item), nil
}

// Save creates or replaces a game
func (r *GameRepository) Save(ctx context.Context, game *entities.Game) error {
	av, err := attributevalue.MarshalMap(toGameItem(game))
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal game: %v", err))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save game", zap.String("gameID", game.ID), zap.Error(err))
		return apperrors.FromDynamoDB("PutItem", ports.CollectionGames, err)
	}
	return nil
}

// Delete removes a game
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("game")
		}
		return apperrors.FromDynamoDB("DeleteItem", ports.CollectionGames, err)
	}
	return nil
}

// IncrementLikes applies an atomic ADD to LikeCount and returns the new value
func (r *GameRepository) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("LikeCount"), expression.Value(delta))).
		WithCondition(expression.AttributeExists(expression.Name("ID"))).
		Build()
	if err != nil {
		return 0, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return 0, apperrors.NewNotFoundError("game")
		}
		return 0, apperrors.FromDynamoDB("UpdateItem", ports.CollectionGames, err)
	}

	var updated struct {
		LikeCount int `dynamodbav:"LikeCount"`
	}
	decodeItem(r.logger, ports.CollectionGames, out.Attributes, &updated)
	return nonNegative(updated.LikeCount), nil
}
