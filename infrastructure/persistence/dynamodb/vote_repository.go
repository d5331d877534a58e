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

// VoteRepository implements ports.VoteRepository. Per-user lookups go
// through a secondary index keyed by UserID and sorted by CreatedAt.
type VoteRepository struct {
	client      API
	tableName   string
	byUserIndex string
	logger      *zap.Logger
	now         func() time.Time
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(client API, tableName, byUserIndex string, logger *zap.Logger) *VoteRepository {
	return &VoteRepository{
		client:      client,
		tableName:   tableName,
		byUserIndex: byUserIndex,
		logger:      logger,
		now:         time.Now,
	}
}

type preferenceItem struct {
	GameID   string `dynamodbav:"GameID"`
	Tendency int    `dynamodbav:"Tendency"`
}

type voteItem struct {
	ID              string           `dynamodbav:"ID"`
	Date            string           `dynamodbav:"Date"`
	UserID          string           `dynamodbav:"UserID"`
	WantsToPlay     bool             `dynamodbav:"WantsToPlay"`
	SelectedGameIDs []string         `dynamodbav:"SelectedGameIDs,omitempty"`
	GamePreferences []preferenceItem `dynamodbav:"GamePreferences,omitempty"`
	CreatedAt       string           `dynamodbav:"CreatedAt"`
}

func (r *VoteRepository) decode(av map[string]types.AttributeValue) *entities.Vote {
	var item voteItem
	decodeItem(r.logger, ports.CollectionVotes, av, &item)

	preferences := make([]entities.GamePreference, 0, len(item.GamePreferences))
	for _, p := range item.GamePreferences {
		preferences = append(preferences, entities.GamePreference{GameID: p.GameID, Tendency: p.Tendency})
	}
	selected := item.SelectedGameIDs
	if selected == nil {
		selected = []string{}
	}

	return &entities.Vote{
		ID:              item.ID,
		Date:            item.Date,
		UserID:          item.UserID,
		WantsToPlay:     item.WantsToPlay,
		SelectedGameIDs: selected,
		GamePreferences: preferences,
		CreatedAt:       parseTime(item.CreatedAt, r.now()),
	}
}

func (r *VoteRepository) decodeAll(items []map[string]types.AttributeValue) []*entities.Vote {
	votes := make([]*entities.Vote, 0, len(items))
	for _, av := range items {
		votes = append(votes, r.decode(av))
	}
	return votes
}

func (r *VoteRepository) scan(ctx context.Context, filter expression.ConditionBuilder) ([]*entities.Vote, error) {
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	items, err := scanAll(ctx, r.client, ports.CollectionVotes, &dynamodb.ScanInput{
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

// ListByDates returns every vote whose Date is one of dates. Date sets larger
// than the IN operand limit are split across scans.
func (r *VoteRepository) ListByDates(ctx context.Context, dates []string) ([]*entities.Vote, error) {
	var votes []*entities.Vote
	for _, batch := range chunk(dates, maxInOperands) {
		operands := make([]expression.OperandBuilder, 0, len(batch))
		for _, d := range batch {
			operands = append(operands, expression.Value(d))
		}

		found, err := r.scan(ctx, expression.Name("Date").In(operands[0], operands[1:]...))
		if err != nil {
			return nil, err
		}
		votes = append(votes, found...)
	}

	r.logger.Debug("Fetched votes by date",
		zap.Int("dates", len(dates)),
		zap.Int("votes", len(votes)),
	)
	return votes, nil
}

// ListBetween returns votes with startDate <= Date <= endDate
func (r *VoteRepository) ListBetween(ctx context.Context, startDate, endDate string) ([]*entities.Vote, error) {
	return r.scan(ctx, expression.Name("Date").Between(expression.Value(startDate), expression.Value(endDate)))
}

func (r *VoteRepository) queryUser(ctx context.Context, userID string, filter *expression.ConditionBuilder, limit int) ([]*entities.Vote, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("UserID").Equal(expression.Value(userID)))
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build expression: %v", err))
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.byUserIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if filter == nil && limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	items, err := queryUpTo(ctx, r.client, ports.CollectionVotes, input, limit)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(items), nil
}

// ListRecentByUser returns the user's latest votes, newest first
func (r *VoteRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*entities.Vote, error) {
	return r.queryUser(ctx, userID, nil, limit)
}

// GetByUserAndDate returns the user's most recent vote for date
func (r *VoteRepository) GetByUserAndDate(ctx context.Context, userID, date string) (*entities.Vote, error) {
	filter := expression.Name("Date").Equal(expression.Value(date))
	votes, err := r.queryUser(ctx, userID, &filter, 1)
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, apperrors.NewNotFoundError("vote")
	}
	return votes[0], nil
}

// Save stores a vote
func (r *VoteRepository) Save(ctx context.Context, vote *entities.Vote) error {
	preferences := make([]preferenceItem, 0, len(vote.GamePreferences))
	for _, p := range vote.GamePreferences {
		preferences = append(preferences, preferenceItem{GameID: p.GameID, Tendency: p.Tendency})
	}

	av, err := attributevalue.MarshalMap(voteItem{
		ID:              vote.ID,
		Date:            vote.Date,
		UserID:          vote.UserID,
		WantsToPlay:     vote.WantsToPlay,
		SelectedGameIDs: vote.SelectedGameIDs,
		GamePreferences: preferences,
		CreatedAt:       formatTime(vote.CreatedAt),
	})
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to marshal vote: %v", err))
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("Failed to save vote",
			zap.String("voteID", vote.ID),
			zap.String("userID", vote.UserID),
			zap.Error(err),
		)
		return apperrors.FromDynamoDB("PutItem", ports.CollectionVotes, err)
	}
	return nil
}
