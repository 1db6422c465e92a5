package auditor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "pizzaria-orders/internal/kafka"
	"pizzaria-orders/internal/orders"
	"pizzaria-orders/internal/redisx"
)

// Service folds the order lifecycle stream into daily counters in
// Redis: orders created/sent/finished/removed plus finished revenue.
// It is a read model for reporting; the dashboard itself still polls
// the API, nothing here pushes to the kitchen.
type Service struct {
	Redis       *redis.Client
	Log         *slog.Logger
	ServiceName string
}

func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup by event_id so redelivered messages count once
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	day := env.OccurredAt.UTC().Format("20060102")
	key := fmt.Sprintf(redisx.KeyAuditDaily, day)

	switch env.EventType {
	case orders.EventOrderCreated:
		if err := s.Redis.HIncrBy(ctx, key, "orders_created", 1).Err(); err != nil {
			return err
		}
	case orders.EventOrderSent:
		if err := s.Redis.HIncrBy(ctx, key, "orders_sent", 1).Err(); err != nil {
			return err
		}
	case orders.EventOrderFinished:
		p, err := kafkax.UnwrapPayload[orders.OrderFinishedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.Redis.HIncrBy(ctx, key, "orders_finished", 1).Err(); err != nil {
			return err
		}
		if err := s.Redis.HIncrBy(ctx, key, "revenue_cents", int64(p.TotalCents)).Err(); err != nil {
			return err
		}
	case orders.EventOrderRemoved:
		if err := s.Redis.HIncrBy(ctx, key, "orders_removed", 1).Err(); err != nil {
			return err
		}
	default:
		// item-level events are not aggregated
		return nil
	}

	_ = s.Redis.Expire(ctx, key, redisx.TTLAudit).Err()
	if s.Log != nil {
		s.Log.Debug("audited event", "type", env.EventType, "order_id", env.CorrelationID, "day", day)
	}
	return nil
}
