package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	ScheduleWarningsKey    = "billing:schedule_warnings"
	defaultMaxWarningsKept = 1000
)

// Warning is a non-fatal failure recorded while completing a payment.
type Warning struct {
	Kind           Kind      `json:"kind"`
	PaymentID      string    `json:"payment_id"`
	TransactionKey string    `json:"transaction_key"`
	ScheduleID     string    `json:"schedule_id"`
	TimeToPay      time.Time `json:"time_to_pay"`
	Message        string    `json:"message"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// WarningSink receives warnings for monitoring. Implementations must not block
// the request for long and must not fail it.
type WarningSink interface {
	RecordWarning(ctx context.Context, w Warning)
}

// LogWarningSink writes warnings to the application log.
type LogWarningSink struct{}

func (LogWarningSink) RecordWarning(_ context.Context, w Warning) {
	log.Warnf("[Billing] %s for payment %s (transaction %s, schedule %s at %s): %s",
		w.Kind, w.PaymentID, w.TransactionKey, w.ScheduleID, w.TimeToPay.Format(time.RFC3339), w.Message)
}

// RedisWarningSink keeps the most recent warnings in a capped Redis list so
// missed schedules can be found and re-registered by an operator.
type RedisWarningSink struct {
	client  *redis.Client
	key     string
	maxKept int64
}

func NewRedisWarningSink(client *redis.Client) *RedisWarningSink {
	return &RedisWarningSink{
		client:  client,
		key:     ScheduleWarningsKey,
		maxKept: defaultMaxWarningsKept,
	}
}

func (s *RedisWarningSink) RecordWarning(ctx context.Context, w Warning) {
	if s == nil || s.client == nil {
		return
	}
	data, err := json.Marshal(w)
	if err != nil {
		log.Errorf("[Billing] Could not encode warning for payment %s: %v", w.PaymentID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.maxKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Errorf("[Billing] Could not push warning for payment %s to cache: %v", w.PaymentID, err)
	}
}

// RecentWarnings returns up to limit warnings, newest first.
func (s *RedisWarningSink) RecentWarnings(ctx context.Context, limit int64) ([]Warning, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("warning cache not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	items, err := s.client.LRange(ctx, s.key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Warning, 0, len(items))
	for _, item := range items {
		var w Warning
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// MultiWarningSink fans a warning out to several sinks.
type MultiWarningSink []WarningSink

func (m MultiWarningSink) RecordWarning(ctx context.Context, w Warning) {
	for _, s := range m {
		if s != nil {
			s.RecordWarning(ctx, w)
		}
	}
}
