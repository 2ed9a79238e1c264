package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"image-compressor/internal/config"
	"image-compressor/internal/domain"
)

type ProducerClient struct {
	producer *wbkafka.Producer
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic),
	}
}

// SendTask publishes the task keyed by photo id so variants of the
// same photo land on one partition in order.
func (p *ProducerClient) SendTask(ctx context.Context, strategy retry.Strategy, task *domain.VariantTask) error {
	value, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	return p.producer.SendWithRetry(ctx, strategy, []byte(task.PhotoID), value)
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
