package forms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the subset of the DynamoDB client the record store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoRecordStore persists submission records in a table keyed by
// submission_id.
type DynamoRecordStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoRecordStore(client DynamoAPI, table string) *DynamoRecordStore {
	return &DynamoRecordStore{client: client, table: table}
}

func (s *DynamoRecordStore) Put(ctx context.Context, record Record) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal form record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put form record: %w", err)
	}
	return nil
}

var _ RecordStore = (*DynamoRecordStore)(nil)
