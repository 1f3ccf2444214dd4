// Package queue consumes scan requests from SQS. It is the submission side
// of the external boundary: callers drop a request on the queue and poll
// job status through whatever surface fronts the jobs manager.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"secretscan/internal/logger"
)

// Request is the message body the collaborator submits.
type Request struct {
	RepoURL string `json:"git_url"`
	Mode    string `json:"mode,omitempty"`
}

type Consumer struct {
	client   *sqs.Client
	queueURL string
}

func NewConsumer(ctx context.Context, queueURL, region string) (*Consumer, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("queue url not configured")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Consumer{client: sqs.NewFromConfig(cfg), queueURL: queueURL}, nil
}

// RunLoop polls the queue until ctx is done, handing each decoded request
// to handler. Messages are deleted only after the handler accepts them;
// malformed bodies are deleted and logged so they don't loop forever.
func (c *Consumer) RunLoop(ctx context.Context, handler func(ctx context.Context, req Request) error) error {
	slog := logger.GetSugaredLogger()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 5,
			WaitTimeSeconds:     10,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Errorf("receive message: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range out.Messages {
			var req Request
			if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &req); err != nil {
				slog.Warnf("dropping malformed message: %v", err)
				c.delete(ctx, msg.ReceiptHandle)
				continue
			}

			if err := handler(ctx, req); err != nil {
				slog.Errorf("handle request for %s: %v", req.RepoURL, err)
				c.delete(ctx, msg.ReceiptHandle)
				continue
			}
			c.delete(ctx, msg.ReceiptHandle)
		}
	}
}

func (c *Consumer) delete(ctx context.Context, receipt *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receipt,
	})
	if err != nil {
		logger.GetSugaredLogger().Warnf("delete message: %v", err)
	}
}
