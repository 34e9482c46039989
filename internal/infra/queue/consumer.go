package queue

import (
	"context"
	"log/slog"

	"github.com/gabpmcp/bolivar-test/internal/infra"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Delivery limits fixed by the projection contract: batches of up to ten
// messages fetched with a twenty second long poll.
const (
	maxBatchSize    = 10
	longPollSeconds = 20
)

// Message is one queued event body plus the handle needed to delete it.
type Message struct {
	Body          string
	ReceiptHandle string
}

// Consumer pulls event messages for the projection worker. Deleting a message
// acknowledges it; anything not deleted comes back on a later receive.
type Consumer struct {
	client   API
	queueURL string
	slogger  *slog.Logger
}

func NewConsumer(client API, queueURL string, slogger *slog.Logger) *Consumer {
	return &Consumer{client: client, queueURL: queueURL, slogger: slogger}
}

func (c *Consumer) Receive(ctx context.Context) ([]Message, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: maxBatchSize,
		WaitTimeSeconds:     longPollSeconds,
	})
	if err != nil {
		return nil, infra.WrapRepoErr(c.slogger, infra.KindStoreFailure, "receive event messages", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

func (c *Consumer) Delete(ctx context.Context, receiptHandle string) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return infra.WrapRepoErr(c.slogger, infra.KindStoreFailure, "delete event message", err)
	}
	return nil
}
