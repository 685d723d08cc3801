package store

import (
	"context"
	"fmt"

	customerrors "ivr-report/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode     DynamoMode `env:"DYNAMO_MODE" envDefault:"local" validate:"oneof=local aws"`
	Endpoint string     `env:"DYNAMO_ENDPOINT" envDefault:"http://localhost:8000"` // for local mode
	Region   string     `env:"DYNAMO_REGION" envDefault:"eu-central-1"`
	Table    string     `env:"DYNAMO_TABLE" envDefault:"ivr-report-kv"`
}

// kvItem is the stored item shape. Value holds the raw JSON document.
type kvItem struct {
	Key   string `dynamodbav:"Key"`
	Value []byte `dynamodbav:"Value"`
}

// Dynamo implements Store using AWS DynamoDB
type Dynamo struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamo creates a new DynamoDB store
func NewDynamo(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*Dynamo, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// Static credentials; LoadDefaultConfig would query IMDS.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &Dynamo{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.Mode == DynamoModeLocal {
		if err := store.createTableIfNotExist(ctx); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.Table).
		Msg("DynamoDB store initialized")

	return store, nil
}

// createTableIfNotExist creates the key-value table for local development
func (s *Dynamo) createTableIfNotExist(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.Table),
	})
	if err == nil {
		s.logger.Debug().Str("table", s.config.Table).Msg("table already exists")
		return nil
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.config.Table),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("Key"), KeyType: dbtypes.KeyTypeHash},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("Key"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.config.Table, err)
	}
	s.logger.Info().Str("table", s.config.Table).Msg("table created")
	return nil
}

func (s *Dynamo) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.Table),
		Key:            map[string]dbtypes.AttributeValue{"Key": &dbtypes.AttributeValueMemberS{Value: key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", customerrors.ErrKeyNotFound, key)
	}

	var item kvItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return item.Value, nil
}

func (s *Dynamo) Put(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(kvItem{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.Table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Dynamo) Close() error { return nil }
