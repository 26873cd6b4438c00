package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"flamematch_server/models"
)

// CreateTables provisions every table with its indexes. Tables that already
// exist are left untouched. Used by local runs against DynamoDB Local and
// by the integration tests.
func (s *Storage) CreateTables(ctx context.Context) error {
	for _, in := range s.tableDefinitions() {
		_, err := s.client.CreateTable(ctx, in)
		if err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				log.Printf("⚠️ Table %s already exists", aws.ToString(in.TableName))
				continue
			}
			return fmt.Errorf("failed to create table '%s': %w", aws.ToString(in.TableName), err)
		}
		log.Printf("✅ Table %s created", aws.ToString(in.TableName))
	}
	return nil
}

func (s *Storage) tableDefinitions() []*dynamodb.CreateTableInput {
	str := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
	}
	hash := func(name string) types.KeySchemaElement {
		return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}
	}
	rng := func(name string) types.KeySchemaElement {
		return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: types.KeyTypeRange}
	}
	gsi := func(index, attr string) types.GlobalSecondaryIndex {
		return types.GlobalSecondaryIndex{
			IndexName:  aws.String(index),
			KeySchema:  []types.KeySchemaElement{hash(attr)},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}
	}

	return []*dynamodb.CreateTableInput{
		{
			TableName:            aws.String(s.tables.Users),
			AttributeDefinitions: []types.AttributeDefinition{str("userId")},
			KeySchema:            []types.KeySchemaElement{hash("userId")},
			BillingMode:          types.BillingModePayPerRequest,
		},
		{
			TableName:            aws.String(s.tables.Interactions),
			AttributeDefinitions: []types.AttributeDefinition{str("id"), str("actorId"), str("targetId")},
			KeySchema:            []types.KeySchemaElement{hash("id")},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(models.ActorIDIndex, "actorId"),
				gsi(models.TargetIDIndex, "targetId"),
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName:            aws.String(s.tables.Matches),
			AttributeDefinitions: []types.AttributeDefinition{str("matchId"), str("user1Id"), str("user2Id")},
			KeySchema:            []types.KeySchemaElement{hash("matchId")},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(models.User1IDIndex, "user1Id"),
				gsi(models.User2IDIndex, "user2Id"),
			},
			BillingMode: types.BillingModePayPerRequest,
		},
		{
			TableName:            aws.String(s.tables.Messages),
			AttributeDefinitions: []types.AttributeDefinition{str("matchId"), str("sortKey")},
			KeySchema:            []types.KeySchemaElement{hash("matchId"), rng("sortKey")},
			BillingMode:          types.BillingModePayPerRequest,
		},
	}
}
