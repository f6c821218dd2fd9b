package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Sequencer hands out increasing numbers per key.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// RedisSequencer counts with INCR; keys expire after TTL.
type RedisSequencer struct {
	Client *redis.Client
	TTL    time.Duration
}

func (r *RedisSequencer) Next(ctx context.Context, key string) (int64, error) {
	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if r.TTL > 0 {
		pipe.Expire(ctx, key, r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", key, err)
	}
	return incr.Val(), nil
}

func sequenceKey(now time.Time) string {
	return "booking:seq:" + now.UTC().Format("20060102")
}

// bookingNumber formats TCB<unix millis><4 digit daily sequence>.
func bookingNumber(now time.Time, seq int64) string {
	return fmt.Sprintf("TCB%d%04d", now.UnixMilli(), seq%10000)
}
