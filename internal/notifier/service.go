// Package notifier consumes order lifecycle events and keeps read-side
// caches honest: a status change invalidates the cached order view so the
// next GET serves current data.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/anasol/cafe-orders/internal/kafka"
	"github.com/anasol/cafe-orders/internal/orders"
	"github.com/anasol/cafe-orders/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleStatusChanged is wired as the consumer handler for status events.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil // ignore
	}

	// dedup by event id, consumer groups redeliver on rebalance
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	vkey := fmt.Sprintf(redisx.KeyOrderView, p.OrderID)
	if err := s.Redis.Del(ctx, vkey).Err(); err != nil {
		return err
	}

	s.Log.Info("order status notification",
		zap.String("order_id", p.OrderID),
		zap.String("from", string(p.OldStatus)),
		zap.String("to", string(p.NewStatus)),
		zap.Bool("stock_restored", p.StockRestored))
	return nil
}
