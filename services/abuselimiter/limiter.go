package abuselimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// attemptsLogGrace is added to the larger window when computing the attempts
// log TTL, so entries outlive the window they are counted against.
const attemptsLogGrace = 60

// Config is the two-tier rate-limiting policy for one call site. All values
// are in seconds. The burst window is meant to be nested inside the long
// window, though both are evaluated independently.
type Config struct {
	TempBlockAttempts uint // attempts allowed in the burst window
	TempBlockRange    uint // burst window length
	TempBlockDuration uint // TTL of a temporary block
	BlockRetryLimit   uint // attempts allowed in the long window
	BlockRange        uint // long window length
	BlockDuration     uint // TTL of a long block
}

// BlockScope identifies which tier triggered a block.
type BlockScope string

const (
	ScopeTemp BlockScope = "temp"
	ScopeLong BlockScope = "long"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	// Allowed reports whether the attempt may proceed.
	Allowed bool
	// Scope is set on the call that triggers a block. It is empty for
	// allowed decisions and for attempts against an already-active block,
	// where the wire reply does not carry the originating tier.
	Scope BlockScope
	// Existing is true when the attempt hit a block set by a prior call.
	Existing bool
	// RetryAfter is the remaining TTL of the block flag at decision time.
	// Zero when allowed.
	RetryAfter time.Duration
	// ShortCount and LongCount are the attempt counts over the burst and
	// long windows, including this attempt.
	ShortCount int64
	LongCount  int64
}

// Limiter evaluates the blocking policy through a ScriptRunner. It holds no
// state of its own; all bookkeeping lives in the backing store.
type Limiter struct {
	runner ScriptRunner
}

func New(runner ScriptRunner) *Limiter {
	return &Limiter{runner: runner}
}

// Check records one attempt for keyPrefix and decides whether it may proceed.
// The whole read-count-decide-block cycle executes atomically on the store.
func (l *Limiter) Check(ctx context.Context, keyPrefix string, cfg Config) (Decision, error) {
	keys := []string{
		keyPrefix + ":attempts",
		keyPrefix + ":block",
		keyPrefix + ":seq",
	}

	logTTL := cfg.TempBlockRange
	if cfg.BlockRange > logTTL {
		logTTL = cfg.BlockRange
	}
	logTTL += attemptsLogGrace

	args := []interface{}{
		cfg.TempBlockRange,
		cfg.TempBlockAttempts,
		cfg.TempBlockDuration,
		cfg.BlockRange,
		cfg.BlockRetryLimit,
		cfg.BlockDuration,
		logTTL,
	}

	reply, err := l.runner.Run(ctx, keys, args)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return decodeReply(reply)
}

// Limit is the convenience form of Check: nil when the attempt is allowed, a
// *RateLimitError when it is rate limited or the store is unreachable. Store
// failures come back as KindServiceUnavailable, so callers fail closed by
// default. Protocol errors pass through untouched; they are internal faults,
// not user-facing conditions.
func (l *Limiter) Limit(ctx context.Context, keyPrefix string, cfg Config) error {
	decision, err := l.Check(ctx, keyPrefix, cfg)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return &RateLimitError{
				Kind:    KindServiceUnavailable,
				Message: "Rate limiter is unavailable",
				cause:   err,
			}
		}
		return err
	}
	if decision.Allowed {
		return nil
	}

	retrySecs := int64(decision.RetryAfter / time.Second)
	return &RateLimitError{
		Kind:       KindTooManyAttempts,
		Message:    fmt.Sprintf("Too many attempts. Please try again in %d seconds", retrySecs),
		RetryAfter: decision.RetryAfter,
		Context:    map[string]interface{}{"retryAfter": retrySecs},
	}
}

func decodeReply(reply interface{}) (Decision, error) {
	values, ok := reply.([]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("%w: got %T, want array", ErrProtocol, reply)
	}
	if len(values) != 5 {
		return Decision{}, fmt.Errorf("%w: got %d values, want 5", ErrProtocol, len(values))
	}

	allowed, ok0 := replyInt(values[0])
	retryAfter, ok1 := replyInt(values[1])
	shortCount, ok2 := replyInt(values[2])
	longCount, ok3 := replyInt(values[3])
	reason, ok4 := values[4].(string)
	if !ok0 || !ok1 || !ok2 || !ok3 || !ok4 {
		return Decision{}, fmt.Errorf("%w: malformed tuple %v", ErrProtocol, values)
	}

	decision := Decision{
		Allowed:    allowed == 1,
		ShortCount: shortCount,
		LongCount:  longCount,
	}
	if !decision.Allowed {
		decision.RetryAfter = time.Duration(retryAfter) * time.Second
	}

	switch reason {
	case "none":
	case "existing":
		decision.Existing = true
	case "temp":
		decision.Scope = ScopeTemp
	case "long":
		decision.Scope = ScopeLong
	default:
		return Decision{}, fmt.Errorf("%w: unknown reason %q", ErrProtocol, reason)
	}

	return decision, nil
}

// replyInt converts a Lua reply element to int64. go-redis returns script
// integers as int64, but numbers that round-tripped through strings arrive
// as strings.
func replyInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case string:
		var parsed int64
		if _, err := fmt.Sscan(n, &parsed); err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
