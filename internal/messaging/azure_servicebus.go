package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/community/services/events/config"
	"example.com/community/services/events/internal/models"
	"example.com/community/services/events/internal/tracing"
)

const receiveBatchSize = 10

// MessageHandler processes one received queue message
type MessageHandler func(ctx context.Context, message *azservicebus.ReceivedMessage, txn *newrelic.Transaction) error

// AzureServiceBus wraps the reminder queue: the sweep publishes through it
// and the worker consumes from it.
type AzureServiceBus struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
	tracer    tracing.Tracer
}

// NewAzureServiceBus creates a new Service Bus client for the reminder queue
func NewAzureServiceBus(cfg config.AzureConfig, tracer tracing.Tracer) (*AzureServiceBus, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &AzureServiceBus{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
		tracer:    tracer,
	}, nil
}

// PublishReminder sends one reminder message to the queue
func (b *AzureServiceBus) PublishReminder(ctx context.Context, msg *models.ReminderMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reminder message")
	}

	sbMsg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": "reminder-sweep",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := b.sender.SendMessage(ctx, sbMsg, nil); err != nil {
		return errors.Wrap(err, "failed to send reminder message")
	}
	return nil
}

// ProcessMessages receives from the queue until the context is canceled,
// handing each message to the handler. Handled messages are completed;
// failed ones are abandoned for redelivery.
func (b *AzureServiceBus) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	receiver, err := b.client.NewReceiverForQueue(b.queueName, &azservicebus.ReceiverOptions{
		ReceiveMode: azservicebus.ReceiveModePeekLock,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer receiver.Close(context.Background())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		messages, err := receiver.ReceiveMessages(ctx, receiveBatchSize, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			txn := b.tracer.StartTransaction("process-reminder-message")

			if err := handler(ctx, message, txn); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to process message")
				b.tracer.RecordError(txn, err)
				if abandonErr := receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Str("message_id", message.MessageID).Msg("Failed to abandon message")
				}
				b.tracer.EndTransaction(txn)
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete message")
			}
			b.tracer.EndTransaction(txn)
		}
	}
}

// Close closes the Service Bus sender and client
func (b *AzureServiceBus) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if b.sender != nil {
		if err := b.sender.Close(ctx); err != nil {
			return err
		}
	}
	if b.client != nil {
		return b.client.Close(ctx)
	}
	return nil
}
