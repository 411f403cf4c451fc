package producer

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"time"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const headerEventType = "event_type"

// Publisher 付款生命週期事件的出口
// 發送失敗不影響帳本，呼叫端只記 log
type Publisher interface {
	Publish(ctx context.Context, event model.PaymentEvent) error
	Close() error
}

type PaymentProducer struct {
	writer Writer
	cfg    Config
	logger *zerolog.Logger
	closed atomic.Bool
}

var _ Publisher = (*PaymentProducer)(nil)

// New 建立連到 broker 的 producer
func New(cfg *Config, logger *zerolog.Logger) (*PaymentProducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 同一張訂單落在同一個 partition
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		// 重試交給外層
		MaxAttempts: 1,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka producer error: "+msg, args...)
		}),
	}

	return NewWithWriter(writer, cfg, logger), nil
}

func NewWithWriter(writer Writer, cfg *Config, logger *zerolog.Logger) *PaymentProducer {
	return &PaymentProducer{
		writer: writer,
		cfg:    *cfg,
		logger: logger,
	}
}

func (p *PaymentProducer) toMessage(event model.PaymentEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}, nil
}

// Publish 同步寫入，暫時性錯誤依設定重試
func (p *PaymentProducer) Publish(ctx context.Context, event model.PaymentEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	msg, err := p.toMessage(event)
	if err != nil {
		return NewKafkaError("Publish", p.cfg.Topic, err)
	}

	for attempt := 0; attempt <= p.cfg.RetryLimit; attempt++ {
		if ctx.Err() != nil {
			return NewKafkaError("Publish", p.cfg.Topic, ctx.Err())
		}

		writeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		err = p.writer.WriteMessages(writeCtx, msg)
		cancel()
		if err == nil {
			return nil
		}

		if !IsTemporaryError(err) {
			break
		}

		p.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("order_number", event.OrderNumber).
			Msg("publish payment event failed, retrying")

		select {
		case <-ctx.Done():
			return NewKafkaError("Publish", p.cfg.Topic, ctx.Err())
		case <-time.After(p.cfg.RetryDelay):
		}
	}

	return NewKafkaError("Publish", p.cfg.Topic, err)
}

func (p *PaymentProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// NoopPublisher 沒有設定 broker 時使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event model.PaymentEvent) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
