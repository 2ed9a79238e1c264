package broker

import (
	"context"

	kafka "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"

	"image-compressor/internal/domain"
)

type Producer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, task *domain.VariantTask) error
	Close() error
}

type Consumer interface {
	StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg kafka.Message) error
	Close() error
}
