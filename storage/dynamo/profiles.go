package dynamo

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"flamematch_server/models"
	"flamematch_server/storage"
)

const quotaAttempts = 3

func (s *Storage) CreateProfile(ctx context.Context, profile models.UserProfile) error {
	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Users),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(userId)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("profile %s: %w", profile.UserID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to put profile %s: %w", profile.UserID, err)
	}
	log.Printf("✅ Profile %s stored", profile.UserID)
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.getItem(ctx, s.tables.Users, stringKey("userId", userID), &p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	return &p, nil
}

// ListProfiles scans the Users table page by page until limit profiles are read.
func (s *Storage) ListProfiles(ctx context.Context, limit int) ([]models.UserProfile, error) {
	out := make([]models.UserProfile, 0, limit)
	input := &dynamodb.ScanInput{TableName: aws.String(s.tables.Users)}

	for len(out) < limit {
		input.Limit = aws.Int32(int32(limit - len(out)))
		output, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", s.tables.Users, err)
		}

		var page []models.UserProfile
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
		}
		out = append(out, page...)

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
	return out, nil
}

func (s *Storage) UpdateProfile(ctx context.Context, userID string, u storage.ProfileUpdate) (*models.UserProfile, error) {
	fields := map[string]any{}
	set := func(attr string, v any) { fields[attr] = v }

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Age != nil {
		set("age", *u.Age)
	}
	if u.Gender != nil {
		set("gender", *u.Gender)
	}
	if u.LookingFor != nil {
		set("lookingFor", *u.LookingFor)
	}
	if u.MinAge != nil {
		set("minAge", *u.MinAge)
	}
	if u.MaxAge != nil {
		set("maxAge", *u.MaxAge)
	}
	if u.Bio != nil {
		set("bio", *u.Bio)
	}
	if u.Location != nil {
		set("location", *u.Location)
	}
	if u.Photos != nil {
		set("photos", *u.Photos)
	}
	if u.ProfilePhoto != nil {
		set("profilePhoto", *u.ProfilePhoto)
	}
	if u.VoiceVibe != nil {
		set("voiceVibe", *u.VoiceVibe)
	}
	if u.IsPremium != nil {
		set("isPremium", *u.IsPremium)
	}
	if u.PremiumPlan != nil {
		set("premiumPlan", *u.PremiumPlan)
	}
	if u.Verified != nil {
		set("verified", *u.Verified)
	}
	if u.FCMToken != nil {
		set("fcmToken", *u.FCMToken)
	}
	if u.LastActive != nil {
		set("lastActive", *u.LastActive)
	}
	if len(fields) == 0 && u.AppendPhoto == nil {
		return s.GetProfile(ctx, userID)
	}

	attrs := make([]string, 0, len(fields))
	for attr := range fields {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	clauses := make([]string, 0, len(attrs))
	for i, attr := range attrs {
		av, err := attributevalue.Marshal(fields[attr])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", attr, err)
		}
		n, v := "#f"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		names[n] = attr
		values[v] = av
		clauses = append(clauses, n+" = "+v)
	}
	if u.AppendPhoto != nil {
		// list_append keeps concurrent uploads from overwriting each other
		names["#photos"] = "photos"
		names["#pp"] = "profilePhoto"
		values[":newPhotos"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: *u.AppendPhoto},
		}}
		values[":noPhotos"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
		values[":newPhoto"] = &types.AttributeValueMemberS{Value: *u.AppendPhoto}
		clauses = append(clauses,
			"#photos = list_append(if_not_exists(#photos, :noPhotos), :newPhotos)",
			"#pp = if_not_exists(#pp, :newPhoto)",
		)
		attrs = append(attrs, "photos")
	}

	log.Printf("🔄 Updating profile %s fields %v", userID, attrs)
	output, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Users),
		Key:                       stringKey("userId", userID),
		UpdateExpression:          aws.String("SET " + strings.Join(clauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(userId)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile %s: %w", userID, err)
	}

	var p models.UserProfile
	if err := attributevalue.UnmarshalMap(output.Attributes, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

// ConsumeQuota decrements the counter with a conditional update. When the
// condition fails the stored profile decides the outcome: an older day is
// rolled over and retried, an empty counter is reported as exhausted.
func (s *Storage) ConsumeQuota(ctx context.Context, userID string, kind storage.QuotaKind, day string, allowance storage.Allowance) (int, error) {
	attr := kind.Attribute()

	for attempt := 0; attempt < quotaAttempts; attempt++ {
		output, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(s.tables.Users),
			Key:                 stringKey("userId", userID),
			UpdateExpression:    aws.String("SET #c = #c - :one"),
			ConditionExpression: aws.String("attribute_exists(userId) AND countersDay >= :day AND #c >= :one"),
			ExpressionAttributeNames: map[string]string{
				"#c": attr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":one": &types.AttributeValueMemberN{Value: "1"},
				":day": &types.AttributeValueMemberS{Value: day},
			},
			ReturnValues: types.ReturnValueUpdatedNew,
		})
		if err == nil {
			var updated map[string]int
			if err := attributevalue.UnmarshalMap(output.Attributes, &updated); err != nil {
				return 0, fmt.Errorf("failed to unmarshal %s: %w", attr, err)
			}
			return updated[attr], nil
		}
		if !isConditionFailed(err) {
			return 0, fmt.Errorf("failed to consume %s for %s: %w", kind, userID, err)
		}

		p, err := s.GetProfile(ctx, userID)
		if err != nil {
			return 0, err
		}
		if p.CountersDay < day {
			if err := s.rollover(ctx, userID, day, allowance); err != nil {
				return 0, err
			}
			continue
		}

		remaining := p.DailyLikesRemaining
		if kind == storage.QuotaSuperLikes {
			remaining = p.DailySuperLikesRemaining
		}
		if remaining < 1 {
			return 0, fmt.Errorf("%s for %s: %w", kind, userID, storage.ErrQuotaExhausted)
		}
		log.Printf("⚠️ Quota update for %s raced, retrying", userID)
	}
	return 0, fmt.Errorf("consume %s for %s: %w", kind, userID, storage.ErrConflict)
}

// rollover resets both counters for a new day. Losing the condition means
// another request already rolled the counters over, which is fine.
func (s *Storage) rollover(ctx context.Context, userID, day string, allowance storage.Allowance) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Users),
		Key:                 stringKey("userId", userID),
		UpdateExpression:    aws.String("SET countersDay = :day, dailyLikesRemaining = :likes, dailySuperLikesRemaining = :super"),
		ConditionExpression: aws.String("attribute_exists(userId) AND (attribute_not_exists(countersDay) OR countersDay < :day)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":day":   &types.AttributeValueMemberS{Value: day},
			":likes": &types.AttributeValueMemberN{Value: strconv.Itoa(allowance.Likes)},
			":super": &types.AttributeValueMemberN{Value: strconv.Itoa(allowance.SuperLikes)},
		},
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("failed to roll over counters for %s: %w", userID, err)
	}
	log.Printf("🔄 Counters for %s rolled over to %s", userID, day)
	return nil
}

func (s *Storage) RefundQuota(ctx context.Context, userID string, kind storage.QuotaKind, day string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Users),
		Key:                 stringKey("userId", userID),
		UpdateExpression:    aws.String("SET #c = #c + :one"),
		ConditionExpression: aws.String("attribute_exists(userId) AND countersDay = :day"),
		ExpressionAttributeNames: map[string]string{
			"#c": kind.Attribute(),
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":day": &types.AttributeValueMemberS{Value: day},
		},
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("failed to refund %s for %s: %w", kind, userID, err)
	}
	return nil
}
