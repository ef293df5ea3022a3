package abuselimiter

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ScriptRunner executes the decision script as one atomic unit. Any store
// adapter that can evaluate the script with this guarantee satisfies it; the
// limiter never depends on a concrete store type.
type ScriptRunner interface {
	Run(ctx context.Context, keys []string, args []interface{}) (interface{}, error)
}

// RedisRunner runs the decision script on a Redis-family store. The script is
// sent with EVALSHA and falls back to EVAL when the server's script cache was
// flushed, so a Redis restart never strands the limiter.
type RedisRunner struct {
	client redis.Scripter
	script *redis.Script
}

func NewRedisRunner(client redis.Scripter) *RedisRunner {
	return &RedisRunner{
		client: client,
		script: redis.NewScript(decisionScript),
	}
}

func (r *RedisRunner) Run(ctx context.Context, keys []string, args []interface{}) (interface{}, error) {
	return r.script.Run(ctx, r.client, keys, args...).Result()
}
