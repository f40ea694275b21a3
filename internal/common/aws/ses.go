// Package aws holds thin wrappers over the SES and SNS clients used for
// campaign notifications.
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client the wrapper calls.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESClient struct {
	client SESAPI
	from   string
}

func loadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

func NewSESClient(ctx context.Context, region, from string) (*SESClient, error) {
	cfg, err := loadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg), from: from}, nil
}

// NewSESClientWithAPI wraps an existing client, mainly for tests.
func NewSESClientWithAPI(api SESAPI, from string) *SESClient {
	return &SESClient{client: api, from: from}
}

// SendTextEmail sends a plain-text message to a single recipient and returns the message id.
func (s *SESClient) SendTextEmail(ctx context.Context, to, subject, body string) (string, error) {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject), Charset: awssdk.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: awssdk.String(body), Charset: awssdk.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send to %s: %w", to, err)
	}
	return awssdk.ToString(out.MessageId), nil
}
