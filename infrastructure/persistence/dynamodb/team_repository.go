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

// TeamRepository implements ports.TeamRepository. Open-team listings go
// through a secondary index keyed by Status and sorted by CreatedAt.
type TeamRepository struct {
	client        API
	tableName     string
	byStatusIndex string
	logger        *zap.Logger
	now           func() time.Time
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(client API, tableName, byStatusIndex string, logger *zap.Logger) *TeamRepository {
	return &TeamRepository{
		client:        client,
		tableName:     tableName,
		byStatusIndex: byStatusIndex,
		logger:        logger,
		now:           time.Now,
	}
}

type teamItem struct {
	ID         string   `dynamodbav:"ID"`
	GameID     string   `dynamodbav:"GameID"`
	LeaderID   string   `dynamodbav:"LeaderID"`
	Members    []string `dynamodbav:"Members"`
	MaxMembers int      `dynamodbav:"MaxMembers"`
	Status     string   `dynamodbav:"Status"`
	StartTime  string   `dynamodbav:"StartTime,omitempty"`
	CreatedAt  string   `dynamodbav:"CreatedAt"`
	UpdatedAt  string   `dynamodbav:"UpdatedAt"`
}

func (r *TeamRepository) decode(av map[string]types.AttributeValue) *entities.Team {
	var item teamItem
	decodeItem(r.logger, ports.CollectionTeams, av, &item)

	createdAt := parseTime(item.CreatedAt, r.now())
	members := item.Members
	if members == nil {
		members = []string{}
	}

	team := &entities.Team{
		ID:         item.ID,
		GameID:     item.GameID,
		LeaderID:   item.LeaderID,
		Members:    members,
		MaxMembers: nonNegative(item.MaxMembers),
		Status:     entities.TeamStatus(item.Status),
		StartTime:  parseTime(item.StartTime, createdAt),
		CreatedAt:  createdAt,
		UpdatedAt:  parseTime(item.UpdatedAt, createdAt),
	}
	if team.Status == "" {
		team.RecomputeStatus()
	}
	return team
}

func (r *TeamRepository) decodeAll(items []map[string]types.AttributeValue) []*entities.Team {
	teams := make([]*entities.Team, 0, len(items))
	for _, av := range items {
		teams = append(teams, r.decode(av))
	}
	return teams
}

func (r *TeamRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ID": &types.AttributeValueMemberS{Value: id},
	}
}

// GetByID retrieves a single team
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*entities.Team, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(id),
	})
	if err != nil {
		return nil, apperrors.FromDynamoDB("GetItem", ports.CollectionTeams, err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.NewNotFoundError("team")
	}
	return r.decode(out.Item), nil
}

func (r *TeamRepository) queryOpen(ctx context.Context, filter *expression.ConditionBuilder, limit int) ([]*entities.Team, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("Status").Equal(expression.Value(string(entities.TeamStatusOpen))))
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.byStatusIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if filter == nil && limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	items, err := queryUpTo(ctx, r.client, ports.CollectionTeams, input, limit)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(items), nil
}

// ListOpen returns up to limit open teams, newest first
func (r *TeamRepository) ListOpen(ctx context.Context, limit int) ([]*entities.Team, error) {
	return r.queryOpen(ctx, nil, limit)
}

// ListOpenForGames returns up to limit open teams for gameIDs that
// excludeUserID neither leads nor belongs to, newest first
func (r *TeamRepository) ListOpenForGames(ctx context.Context, gameIDs []string, excludeUserID string, limit int) ([]*entities.Team, error) {
	if len(gameIDs) == 0 {
		return []*entities.Team{}, nil
	}
	if len(gameIDs) > maxInOperands {
		gameIDs = gameIDs[:maxInOperands]
	}

	operands := make([]expression.OperandBuilder, 0, len(gameIDs))
	for _, id := range gameIDs {
		operands = append(operands, expression.Value(id))
	}
	filter := expression.Name("GameID").In(operands[0], operands[1:]...)
	if excludeUserID != "" {
		filter = filter.And(
			expression.Name("LeaderID").NotEqual(expression.Value(excludeUserID)),
			expression.Not(expression.Name("Members").Contains(excludeUserID)),
		)
	}

	return r.queryOpen(ctx, &filter, limit)
}

// ListCreatedBetween returns teams created inside [start, end]
func (r *TeamRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]*entities.Team, error) {
	filter := expression.Name("CreatedAt").Between(
		expression.Value(formatTime(start)),
		expression.Value(formatTime(end)),
	)
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	items, err := scanAll(ctx, r.client, ports.CollectionTeams, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}
	return r.decodeAll(items), nil
}

// Save creates or replaces a team
func (r *TeamRepository) Save(ctx context.Context, team *entities.Team) error {
	av, err := attributevalue.MarshalMap(teamItem{
		ID:         team.ID,
		GameID:     team.GameID,
		LeaderID:   team.LeaderID,
		Members:    team.Members,
		MaxMembers: team.MaxMembers,
		Status:     string(team.Status),
		StartTime:  formatTime(team.StartTime),
		CreatedAt:  formatTime(team.CreatedAt),
		UpdatedAt:  formatTime(team.UpdatedAt),
	})
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal team: %v", err))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save team", zap.String("teamID", team.ID), zap.Error(err))
		return apperrors.FromDynamoDB("PutItem", ports.CollectionTeams, err)
	}

	r.logger.Debug("Saved team",
		zap.String("teamID", team.ID),
		zap.String("status", string(team.Status)),
		zap.Int("members", team.MemberCount()),
	)
	return nil
}

// Delete removes a team
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
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
			return apperrors.NewNotFoundError("team")
		}
		return apperrors.FromDynamoDB("DeleteItem", ports.CollectionTeams, err)
	}
	return nil
}
