package service

import (
	"context"
	"time"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/domain/model"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/infra/producer"
	"github.com/rs/zerolog"
)

// 事件只是通知，失敗只記 log 不影響帳本
func publishEvent(ctx context.Context, publisher producer.Publisher, logger *zerolog.Logger, event model.PaymentEvent) {
	if publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("order_number", event.OrderNumber).
			Msg("publish payment event failed")
	}
}
