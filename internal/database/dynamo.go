package database

import (
	"context"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"go.uber.org/zap"
)

// DynamoClient wraps the DynamoDB API, logging failed calls.
type DynamoClient struct {
	Client dynamodbiface.DynamoDBAPI
	logger *zap.Logger
}

func NewDynamoClient(sess *session.Session) *DynamoClient {
	return &DynamoClient{
		Client: dynamodb.New(sess),
		logger: zap.NewNop(),
	}
}

func (d *DynamoClient) withLogger(l *zap.Logger) *DynamoClient {
	return &DynamoClient{Client: d.Client, logger: l}
}

func (d *DynamoClient) Query(ctx context.Context, input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	output, err := d.Client.QueryWithContext(ctx, input)
	if err != nil {
		d.logger.Error("query failed", zap.Error(err))
		return nil, err
	}
	return output, nil
}

func (d *DynamoClient) GetOne(ctx context.Context, input *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
	output, err := d.Client.GetItemWithContext(ctx, input)
	if err != nil {
		d.logger.Error("get item failed", zap.Error(err))
		return nil, err
	}
	return output, nil
}

func (d *DynamoClient) TransactWrite(ctx context.Context, input *dynamodb.TransactWriteItemsInput) error {
	if _, err := d.Client.TransactWriteItemsWithContext(ctx, input); err != nil {
		// cancellations are expected on conditional failures, the caller decides
		d.logger.Debug("transact write failed", zap.Error(err))
		return err
	}
	return nil
}

func (d *DynamoClient) BatchGet(ctx context.Context, input *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	output, err := d.Client.BatchGetItemWithContext(ctx, input)
	if err != nil {
		d.logger.Error("batch get failed", zap.Error(err))
		return nil, err
	}
	return output, nil
}

func (d *DynamoClient) BatchWrite(ctx context.Context, input *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
	output, err := d.Client.BatchWriteItemWithContext(ctx, input)
	if err != nil {
		d.logger.Error("batch write failed", zap.Error(err))
		return nil, err
	}
	return output, nil
}
