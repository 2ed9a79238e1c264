package kafka

import (
	"context"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"image-compressor/internal/config"
)

type ConsumerClient struct {
	consumer *wbkafka.Consumer
}

func NewConsumerClient(cfg *config.Config) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID),
	}
}

func (c *ConsumerClient) StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy) {
	c.consumer.StartConsuming(ctx, out, strategy)
}

func (c *ConsumerClient) Commit(ctx context.Context, msg kafka.Message) error {
	return c.consumer.Commit(ctx, msg)
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}
