package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Producer struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewProducer appends to stream, trimming it approximately to maxLen entries
// when maxLen is positive.
func NewProducer(client redis.Cmdable, stream string, maxLen int64) *Producer {
	return &Producer{client: client, stream: stream, maxLen: maxLen}
}

func (p *Producer) Publish(ctx context.Context, values map[string]any) (string, error) {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
