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
	"flamematch_server/storage"
)

// PutInteraction writes the record under its deterministic id, replacing
// any earlier action on the same pair.
func (s *Storage) PutInteraction(ctx context.Context, record models.InteractionRecord) error {
	record.ID = models.InteractionID(record.ActorID, record.TargetID)
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Interactions),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put interaction %s: %w", record.ID, err)
	}
	log.Printf("✅ Interaction %s (%s) saved", record.ID, record.Kind)
	return nil
}

func (s *Storage) GetInteraction(ctx context.Context, actorID, targetID string) (*models.InteractionRecord, error) {
	id := models.InteractionID(actorID, targetID)
	var rec models.InteractionRecord
	if err := s.getItem(ctx, s.tables.Interactions, stringKey("id", id), &rec); err != nil {
		return nil, fmt.Errorf("interaction %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Storage) ListByActor(ctx context.Context, actorID string) ([]models.InteractionRecord, error) {
	recs, err := s.queryInteractions(ctx, models.ActorIDIndex, "actorId", actorID)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	return recs, nil
}

func (s *Storage) ListByTarget(ctx context.Context, targetID string) ([]models.InteractionRecord, error) {
	recs, err := s.queryInteractions(ctx, models.TargetIDIndex, "targetId", targetID)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

func (s *Storage) queryInteractions(ctx context.Context, index, attr, value string) ([]models.InteractionRecord, error) {
	log.Printf("🔍 Querying %s on %s = %s", s.tables.Interactions, attr, value)
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Interactions),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return nil, err
	}

	var recs []models.InteractionRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interactions: %w", err)
	}
	return recs, nil
}

func (s *Storage) MarkMatched(ctx context.Context, actorID, targetID string) error {
	id := models.InteractionID(actorID, targetID)
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Interactions),
		Key:                 stringKey("id", id),
		UpdateExpression:    aws.String("SET matched = :t"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("interaction %s: %w", id, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to mark interaction %s matched: %w", id, err)
	}
	return nil
}
