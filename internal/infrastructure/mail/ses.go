package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"DigestMailer/internal/config"
	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

// SESProvider delivers digests through Amazon SES. Transient-failure
// retries are left to the SDK's own retryer.
type SESProvider struct {
	client    *sesv2.Client
	fromEmail string
}

var _ ports.EmailProvider = (*SESProvider)(nil)

// NewSESProvider builds an SES client from static credentials, falling
// back to the default credential chain when none are configured.
func NewSESProvider(ctx context.Context, cfg config.SESConfig, fromEmail string) (*SESProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SESProvider{client: sesv2.NewFromConfig(awsCfg), fromEmail: fromEmail}, nil
}

// Name identifies the provider inside the registry.
func (p *SESProvider) Name() string {
	return "ses"
}

// Send submits the digest as a simple message with HTML and text bodies.
func (p *SESProvider) Send(ctx context.Context, digest domain.Digest, recipient string) error {
	if p.client == nil || p.fromEmail == "" {
		return fmt.Errorf("ses provider misconfigured")
	}

	utf8 := aws.String("UTF-8")
	_, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(digest.Subject), Charset: utf8},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(digest.HTMLBody), Charset: utf8},
					Text: &types.Content{Data: aws.String(digest.TextBody), Charset: utf8},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	return nil
}
