package dynamo

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"flamematch_server/models"
)

// CreateMatchIfAbsent relies on a conditional put so that two concurrent
// mutual likes produce exactly one record. The loser reads back the winner.
func (s *Storage) CreateMatchIfAbsent(ctx context.Context, match models.Match) (*models.Match, bool, error) {
	item, err := attributevalue.MarshalMap(match)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal match: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Matches),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(matchId)"),
	})
	if err == nil {
		log.Printf("✅ Match %s created", match.MatchID)
		return &match, true, nil
	}
	if !isConditionFailed(err) {
		return nil, false, fmt.Errorf("failed to put match %s: %w", match.MatchID, err)
	}

	log.Printf("⚠️ Match %s already exists, returning stored record", match.MatchID)
	existing, err := s.GetMatch(ctx, match.MatchID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *Storage) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var m models.Match
	if err := s.getItem(ctx, s.tables.Matches, stringKey("matchId", matchID), &m); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	if m.UnreadCount == nil {
		m.UnreadCount = map[string]int{}
	}
	return &m, nil
}

// ListMatchesForUser merges the two participant GSIs.
func (s *Storage) ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	var out []models.Match
	seen := map[string]bool{}

	for _, q := range []struct{ index, attr string }{
		{models.User1IDIndex, "user1Id"},
		{models.User2IDIndex, "user2Id"},
	} {
		items, err := s.queryAll(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tables.Matches),
			IndexName:              aws.String(q.index),
			KeyConditionExpression: aws.String("#k = :v"),
			ExpressionAttributeNames: map[string]string{
				"#k": q.attr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: userID},
			},
		})
		if err != nil {
			return nil, err
		}

		var page []models.Match
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
		}
		for _, m := range page {
			if seen[m.MatchID] {
				continue
			}
			seen[m.MatchID] = true
			if m.UnreadCount == nil {
				m.UnreadCount = map[string]int{}
			}
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}
