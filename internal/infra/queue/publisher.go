// Package queue moves recorded events between the command side and the
// projection worker over SQS.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// API is the slice of the SQS client this package touches.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Publisher pushes recorded events onto the projection queue. An empty queue
// URL turns publishing into a no-op so the command side runs without a
// projection pipeline.
type Publisher struct {
	client   API
	queueURL string
	slogger  *slog.Logger
}

func NewPublisher(client API, queueURL string, slogger *slog.Logger) *Publisher {
	return &Publisher{client: client, queueURL: queueURL, slogger: slogger}
}

func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	if p.queueURL == "" {
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return errs.Wrap(err, "marshal event message")
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return infra.WrapRepoErr(p.slogger, infra.KindStoreFailure, "send event message", err)
	}
	return nil
}
