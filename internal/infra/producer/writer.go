package producer

import (
	"context"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -destination=mock_producer/writer.go -package=mock_producer . Writer
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
