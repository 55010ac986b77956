package sqs

import (
	"context"
	"fmt"

	"orderstats/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Message is one received queue entry. ReceiptHandle is the token needed
// to delete it.
type Message struct {
	MessageID     string
	Body          string
	ReceiptHandle string
}

type Client struct {
	api      *awssqs.Client
	queueURL string
	config   config.SQSConfig
}

// NewClient connects to SQS, declares the queue (idempotent, matching the
// producer side) and resolves its URL. Endpoint is only set when pointing
// at LocalStack.
func NewClient(ctx context.Context, cfg config.SQSConfig) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	api := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	// CreateQueue succeeds when the queue already exists with the same
	// attributes, so this doubles as an existence check.
	if _, err := api.CreateQueue(ctx, &awssqs.CreateQueueInput{
		QueueName: aws.String(cfg.QueueName),
	}); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	urlOut, err := api.GetQueueUrl(ctx, &awssqs.GetQueueUrlInput{
		QueueName: aws.String(cfg.QueueName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve queue URL: %w", err)
	}

	return &Client{
		api:      api,
		queueURL: *urlOut.QueueUrl,
		config:   cfg,
	}, nil
}

// ReceiveBatch long-polls for up to MaxMessages messages, blocking at most
// WaitSeconds. An empty slice means the poll timed out with nothing to do.
func (c *Client) ReceiveBatch(ctx context.Context) ([]Message, error) {
	out, err := c.api.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: c.config.MaxMessages,
		WaitTimeSeconds:     c.config.WaitSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			MessageID:     aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

// DeleteMessage acknowledges a message so it is not redelivered.
func (c *Client) DeleteMessage(ctx context.Context, receiptHandle string) error {
	_, err := c.api.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendMessage publishes a raw body to the queue. Used by the generator.
func (c *Client) SendMessage(ctx context.Context, body string) error {
	_, err := c.api.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
