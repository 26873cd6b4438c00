// Package dynamo implements storage.Storage on Amazon DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"flamematch_server/models"
	"flamematch_server/storage"
)

var _ storage.Storage = (*Storage)(nil)

// API is the subset of the DynamoDB client used by Storage.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Tables holds the physical table names.
type Tables struct {
	Users        string
	Interactions string
	Matches      string
	Messages     string
}

// DefaultTables returns the table names declared in package models.
func DefaultTables() Tables {
	return Tables{
		Users:        models.UserProfilesTable,
		Interactions: models.InteractionsTable,
		Matches:      models.MatchesTable,
		Messages:     models.MessagesTable,
	}
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Users == "" {
		t.Users = d.Users
	}
	if t.Interactions == "" {
		t.Interactions = d.Interactions
	}
	if t.Matches == "" {
		t.Matches = d.Matches
	}
	if t.Messages == "" {
		t.Messages = d.Messages
	}
	return t
}

// Storage talks to DynamoDB through API.
type Storage struct {
	client API
	tables Tables
}

// New wraps an initialized client. Empty table names fall back to the defaults.
func New(client API, tables Tables) *Storage {
	return &Storage{client: client, tables: tables.withDefaults()}
}

// NewClient loads the AWS config for region. A non-empty endpoint points the
// client at DynamoDB Local with static credentials.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	log.Printf("✅ DynamoDB client initialized (region=%s endpoint=%q)", region, endpoint)
	return client, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Storage) Close() error { return nil }

func (s *Storage) getItem(ctx context.Context, table string, key map[string]types.AttributeValue, out any) error {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get item from table '%s': %w", table, err)
	}
	if output.Item == nil {
		return storage.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item from table '%s': %w", table, err)
	}
	return nil
}

// queryAll follows LastEvaluatedKey until the result set is exhausted.
func (s *Storage) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		output, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query table '%s': %w", aws.ToString(input.TableName), err)
		}
		items = append(items, output.Items...)
		if len(output.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// cancelledByCondition reports whether a transaction was rejected because
// one of its condition expressions failed.
func cancelledByCondition(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
