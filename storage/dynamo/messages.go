package dynamo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"flamematch_server/models"
	"flamematch_server/storage"
)

// AppendMessage stores the message and refreshes the match summary in one
// transaction, so readers never see one without the other.
func (s *Storage) AppendMessage(ctx context.Context, msg models.Message, recipientID string) (*models.Match, error) {
	if msg.SortKey == "" {
		msg.SortKey = models.MessageSortKey(msg.CreatedAt, msg.MessageID)
	}
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	sentAt, err := attributevalue.Marshal(msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message time: %w", err)
	}

	update := "SET lastMessage = :lm, lastMessageTime = :lt, lastMessageSenderId = :sid, lastSortKey = :sk"
	var names map[string]string
	values := map[string]types.AttributeValue{
		":lm":  &types.AttributeValueMemberS{Value: msg.Summary()},
		":lt":  sentAt,
		":sid": &types.AttributeValueMemberS{Value: msg.SenderID},
		":sk":  &types.AttributeValueMemberS{Value: msg.SortKey},
	}
	if recipientID != "" {
		update += ", unreadCount.#r = if_not_exists(unreadCount.#r, :zero) + :one"
		names = map[string]string{"#r": recipientID}
		values[":zero"] = &types.AttributeValueMemberN{Value: "0"}
		values[":one"] = &types.AttributeValueMemberN{Value: "1"}
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: aws.String(s.tables.Messages),
					Item:      item,
				},
			},
			{
				Update: &types.Update{
					TableName:                 aws.String(s.tables.Matches),
					Key:                       stringKey("matchId", msg.MatchID),
					UpdateExpression:          aws.String(update),
					// the summary only moves forward, so feeds never see an older message after a newer one
					ConditionExpression:       aws.String("attribute_exists(matchId) AND (attribute_not_exists(lastSortKey) OR lastSortKey < :sk)"),
					ExpressionAttributeNames:  names,
					ExpressionAttributeValues: values,
				},
			},
		},
	})
	if err != nil {
		if cancelledByCondition(err) {
			if _, gerr := s.GetMatch(ctx, msg.MatchID); gerr != nil {
				return nil, gerr
			}
			return nil, fmt.Errorf("message %s is older than the last message of %s: %w", msg.MessageID, msg.MatchID, storage.ErrConflict)
		}
		return nil, fmt.Errorf("failed to append message to %s: %w", msg.MatchID, err)
	}
	log.Printf("📩 Message %s appended to %s", msg.MessageID, msg.MatchID)

	return s.GetMatch(ctx, msg.MatchID)
}

// ListMessages returns the conversation oldest first. With limit > 0 only the
// newest limit messages are read.
func (s *Storage) ListMessages(ctx context.Context, matchID string, limit int) ([]models.Message, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Messages),
		KeyConditionExpression: aws.String("matchId = :m"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m": &types.AttributeValueMemberS{Value: matchID},
		},
		ConsistentRead: aws.Bool(true),
	}

	var items []map[string]types.AttributeValue
	if limit > 0 {
		input.ScanIndexForward = aws.Bool(false)
		input.Limit = aws.Int32(int32(limit))
		output, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query messages for %s: %w", matchID, err)
		}
		items = output.Items
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	} else {
		var err error
		if items, err = s.queryAll(ctx, input); err != nil {
			return nil, err
		}
	}

	var msgs []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &msgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return msgs, nil
}

// MarkRead flags every unread message addressed to readerID and resets the
// reader's unread counter on the match.
func (s *Storage) MarkRead(ctx context.Context, matchID, readerID string, at time.Time) (int, error) {
	if _, err := s.GetMatch(ctx, matchID); err != nil {
		return 0, err
	}

	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Messages),
		KeyConditionExpression: aws.String("matchId = :m"),
		FilterExpression:       aws.String("senderId <> :r AND isRead = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m": &types.AttributeValueMemberS{Value: matchID},
			":r": &types.AttributeValueMemberS{Value: readerID},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return 0, err
	}

	readAt, err := attributevalue.Marshal(at)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal read time: %w", err)
	}

	for _, item := range items {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(s.tables.Messages),
			Key: map[string]types.AttributeValue{
				"matchId": item["matchId"],
				"sortKey": item["sortKey"],
			},
			UpdateExpression: aws.String("SET isRead = :t, readAt = :at"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t":  &types.AttributeValueMemberBOOL{Value: true},
				":at": readAt,
			},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to mark message read in %s: %w", matchID, err)
		}
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.tables.Matches),
		Key:              stringKey("matchId", matchID),
		UpdateExpression: aws.String("SET unreadCount.#r = :zero"),
		ExpressionAttributeNames: map[string]string{
			"#r": readerID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset unread count on %s: %w", matchID, err)
	}

	log.Printf("✅ %d messages in %s marked read by %s", len(items), matchID, readerID)
	return len(items), nil
}
