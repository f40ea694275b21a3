package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS client the wrapper calls.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client   SNSAPI
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

// NewSNSClientWithAPI wraps an existing client, mainly for tests.
func NewSNSClientWithAPI(api SNSAPI, topicARN string) *SNSClient {
	return &SNSClient{client: api, topicARN: topicARN}
}

// Publish sends message to the configured topic and returns the message id.
func (s *SNSClient) Publish(ctx context.Context, subject, message string) (string, error) {
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.topicARN),
		Subject:  awssdk.String(subject),
		Message:  awssdk.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return awssdk.ToString(out.MessageId), nil
}
