// Package sqs enqueues inquiries on an Amazon SQS queue.
package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/dalemusser/landing/inquiry"
)

// API is the subset of the SQS client the sender uses.
type API interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	GetQueueAttributes(ctx context.Context, in *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
}

// Config configures the sender.
type Config struct {
	Region   string
	QueueURL string

	// Endpoint overrides the service endpoint (LocalStack, ElasticMQ).
	Endpoint string

	// AccessKey and SecretKey use static credentials instead of the
	// default credential chain.
	AccessKey string
	SecretKey string

	// GroupID is required for FIFO queues (URL ending in .fifo).
	GroupID string

	// LoadTimeout bounds loading the AWS configuration (default: 10 seconds).
	LoadTimeout time.Duration
}

// Sender sends one SQS message per inquiry.
type Sender struct {
	api      API
	queueURL string
	groupID  string
}

// Connect loads AWS configuration and returns a sender for cfg.QueueURL.
func Connect(ctx context.Context, cfg Config) (*Sender, error) {
	if cfg.QueueURL == "" {
		return nil, errors.New("sqs: queue url is required")
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("sqs: load aws config: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return New(client, cfg.QueueURL, cfg.GroupID)
}

// New wraps an existing client.
func New(api API, queueURL, groupID string) (*Sender, error) {
	if strings.HasSuffix(queueURL, ".fifo") && groupID == "" {
		groupID = "inquiries"
	}
	return &Sender{api: api, queueURL: queueURL, groupID: groupID}, nil
}

// Send enqueues in as a JSON message.
func (s *Sender) Send(ctx context.Context, in inquiry.Inquiry) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("sqs: marshal inquiry: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String("inquiry.received")},
		},
	}
	if s.groupID != "" {
		input.MessageGroupId = aws.String(s.groupID)
		input.MessageDeduplicationId = aws.String(in.ID)
	}

	if _, err := s.api.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs: send message: %w", err)
	}
	return nil
}

// Check verifies the queue is reachable with the current credentials.
func (s *Sender) Check(ctx context.Context) error {
	_, err := s.api.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(s.queueURL),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
	})
	return err
}
