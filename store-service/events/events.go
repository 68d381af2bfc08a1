// Package events publishes order lifecycle events to Kafka for downstream
// consumers such as the notification worker.
package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/kafka"
	"github.com/bluecodes/game-codes-store/shared/models"
)

type Publisher struct {
	createdWriter   *kafkago.Writer
	fulfilledWriter *kafkago.Writer
}

// creates a new Publisher writing to the order topics
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		createdWriter:   kafka.NewKafkaWriter(brokers, kafka.TopicOrderCreated),
		fulfilledWriter: kafka.NewKafkaWriter(brokers, kafka.TopicOrderFulfilled),
	}
}

func (p *Publisher) Close() {
	p.createdWriter.Close()
	p.fulfilledWriter.Close()
}

func (p *Publisher) OrderCreated(ctx context.Context, order *models.Order) {
	p.publish(ctx, p.createdWriter, order)
}

func (p *Publisher) OrderFulfilled(ctx context.Context, order *models.Order) {
	p.publish(ctx, p.fulfilledWriter, order)
}

// publish is fire-and-forget: a broker failure is logged, never surfaced.
func (p *Publisher) publish(ctx context.Context, writer *kafkago.Writer, order *models.Order) {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		log.WithError(err).Error("Failed to marshal order event")
		return
	}

	if err := kafka.WriteMessage(ctx, writer, []byte(order.ID.Hex()), orderJSON); err != nil {
		log.WithError(err).WithField("order_id", order.ID.Hex()).Error("Failed to publish order event")
	}
}
