package smsmeter

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore persists usage counters in a DynamoDB table keyed by
// (tenant_id, month).
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore creates a store over an existing table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) GetUsage(ctx context.Context, tenantID, month string) (int64, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       usageItemKey(tenantID, month),
	})
	if err != nil {
		return 0, fmt.Errorf("get sms usage: %w", err)
	}
	if out.Item == nil {
		return 0, nil
	}

	var count int64
	if attr, ok := out.Item["count"]; ok {
		if err := attributevalue.Unmarshal(attr, &count); err != nil {
			return 0, fmt.Errorf("unmarshal sms usage count: %w", err)
		}
	}
	return count, nil
}

func (s *DynamoStore) IncrementUsage(ctx context.Context, tenantID, month string) (int64, error) {
	// SET #count = if_not_exists(#count, 0) + 1 keeps the increment atomic
	// even when two instances race on a fresh month.
	update := expression.
		Set(expression.Name("count"),
			expression.Plus(
				expression.IfNotExists(expression.Name("count"), expression.Value(0)),
				expression.Value(1))).
		Set(expression.Name("updated_at"), expression.Value(time.Now().UTC().Format(time.RFC3339)))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("build sms usage update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       usageItemKey(tenantID, month),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment sms usage: %w", err)
	}

	var count int64
	if attr, ok := out.Attributes["count"]; ok {
		if err := attributevalue.Unmarshal(attr, &count); err != nil {
			return 0, fmt.Errorf("unmarshal sms usage count: %w", err)
		}
	}
	return count, nil
}

func usageItemKey(tenantID, month string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
		"month":     &types.AttributeValueMemberS{Value: month},
	}
}

var _ Store = (*DynamoStore)(nil)
