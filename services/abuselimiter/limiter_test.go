package abuselimiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// forgotPasswordConfig mirrors the policy used for password-reset requests.
var forgotPasswordConfig = Config{
	TempBlockAttempts: 3,
	TempBlockRange:    360,
	TempBlockDuration: 3600,
	BlockRetryLimit:   5,
	BlockRange:        900,
	BlockDuration:     86400,
}

func TestCheck_AllowsAndCountsUnderThresholds(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		decision, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
		if err != nil {
			t.Fatalf("unexpected error on attempt %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("expected attempt %d to be allowed", i)
		}
		if decision.ShortCount != i || decision.LongCount != i {
			t.Fatalf("attempt %d: expected counts %d/%d, got %d/%d",
				i, i, i, decision.ShortCount, decision.LongCount)
		}
		if decision.RetryAfter != 0 {
			t.Fatalf("allowed decision must not carry a retry hint, got %v", decision.RetryAfter)
		}
	}
}

func TestCheck_TempBlockOnBurst(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig); err != nil {
			t.Fatalf("warmup attempt %d failed: %v", i+1, err)
		}
	}

	decision, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected the third rapid attempt to be blocked")
	}
	if decision.Scope != ScopeTemp {
		t.Fatalf("expected a temporary block, got scope %q", decision.Scope)
	}
	if decision.Existing {
		t.Fatal("triggering call must not report an existing block")
	}
	want := time.Duration(forgotPasswordConfig.TempBlockDuration) * time.Second
	if decision.RetryAfter <= 0 || decision.RetryAfter > want {
		t.Fatalf("expected retry hint in (0, %v], got %v", want, decision.RetryAfter)
	}
	if decision.ShortCount != 3 {
		t.Fatalf("expected short count 3 on the triggering call, got %d", decision.ShortCount)
	}
}

func TestCheck_LongBlockWithoutBurst(t *testing.T) {
	cfg := Config{
		TempBlockAttempts: 3,
		TempBlockRange:    60,
		TempBlockDuration: 600,
		BlockRetryLimit:   5,
		BlockRange:        900,
		BlockDuration:     86400,
	}

	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	// Spaced wider than the burst window, so no sub-window ever holds
	// three attempts.
	for i := 0; i < 4; i++ {
		decision, err := limiter.Check(ctx, "login:10.0.0.1", cfg)
		if err != nil {
			t.Fatalf("attempt %d failed: %v", i+1, err)
		}
		if !decision.Allowed {
			t.Fatalf("expected attempt %d to be allowed, got scope %q", i+1, decision.Scope)
		}
		store.Advance(120)
	}

	decision, err := limiter.Check(ctx, "login:10.0.0.1", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed || decision.Scope != ScopeLong {
		t.Fatalf("expected a long block on the fifth attempt, got %+v", decision)
	}
	if decision.ShortCount >= int64(cfg.TempBlockAttempts) {
		t.Fatalf("burst window should never have filled, short count %d", decision.ShortCount)
	}
	if decision.LongCount != 5 {
		t.Fatalf("expected long count 5, got %d", decision.LongCount)
	}
}

func TestCheck_BurstTakesPriorityOverLong(t *testing.T) {
	// Both thresholds trip on the same call; burst detection must win.
	cfg := Config{
		TempBlockAttempts: 3,
		TempBlockRange:    300,
		TempBlockDuration: 600,
		BlockRetryLimit:   3,
		BlockRange:        900,
		BlockDuration:     86400,
	}

	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	var decision Decision
	var err error
	for i := 0; i < 3; i++ {
		decision, err = limiter.Check(ctx, "login:10.0.0.2", cfg)
		if err != nil {
			t.Fatalf("attempt %d failed: %v", i+1, err)
		}
	}
	if decision.Allowed {
		t.Fatal("expected the third attempt to be blocked")
	}
	if decision.Scope != ScopeTemp {
		t.Fatalf("expected the temporary block to take priority, got %q", decision.Scope)
	}
}

func TestCheck_ActiveBlockPersists(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig); err != nil {
			t.Fatalf("setup attempt %d failed: %v", i+1, err)
		}
	}

	prev := time.Duration(forgotPasswordConfig.TempBlockDuration) * time.Second
	for i := 0; i < 5; i++ {
		store.Advance(30)
		decision, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.Allowed {
			t.Fatalf("call %d slipped through an active block", i+1)
		}
		if !decision.Existing {
			t.Fatalf("call %d should report the existing block", i+1)
		}
		if decision.RetryAfter > prev {
			t.Fatalf("retry hint grew from %v to %v", prev, decision.RetryAfter)
		}
		if decision.RetryAfter <= 0 {
			t.Fatalf("retry hint must stay positive while blocked, got %v", decision.RetryAfter)
		}
		prev = decision.RetryAfter
	}
}

func TestCheck_AttemptsRecordedWhileBlocked(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig); err != nil {
			t.Fatalf("setup attempt %d failed: %v", i+1, err)
		}
	}

	decision, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.ShortCount != 4 || decision.LongCount != 4 {
		t.Fatalf("blocked attempts must still be counted, got %d/%d",
			decision.ShortCount, decision.LongCount)
	}
}

func TestCheck_BlockExpiry(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig); err != nil {
			t.Fatalf("setup attempt %d failed: %v", i+1, err)
		}
	}

	store.Advance(int64(forgotPasswordConfig.TempBlockDuration) + 1)

	decision, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected the attempt after block expiry to be allowed, got %+v", decision)
	}
	if decision.ShortCount != 1 || decision.LongCount != 1 {
		t.Fatalf("stale attempts should have aged out, got counts %d/%d",
			decision.ShortCount, decision.LongCount)
	}
}

func TestCheck_PrefixIsolation(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig); err != nil {
			t.Fatalf("setup attempt %d failed: %v", i+1, err)
		}
	}

	decision, err := limiter.Check(ctx, "forgot_password:5.6.7.8", forgotPasswordConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed || decision.ShortCount != 1 || decision.LongCount != 1 {
		t.Fatalf("another prefix must start fresh, got %+v", decision)
	}
}

func TestCheck_ConcurrentBurst(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	const callers = 8 // threshold 3 plus 5 racing extras

	var wg sync.WaitGroup
	decisions := make([]Decision, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = limiter.Check(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
		}(i)
	}
	wg.Wait()

	var allowed, triggering, existing int
	for i, decision := range decisions {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		switch {
		case decision.Allowed:
			allowed++
		case decision.Existing:
			existing++
		default:
			triggering++
		}
	}

	if allowed != int(forgotPasswordConfig.TempBlockAttempts)-1 {
		t.Fatalf("expected exactly %d allowed calls, got %d",
			forgotPasswordConfig.TempBlockAttempts-1, allowed)
	}
	if triggering != 1 {
		t.Fatalf("expected exactly one caller to observe the triggering transition, got %d", triggering)
	}
	if existing != callers-allowed-1 {
		t.Fatalf("expected %d callers to hit the existing block, got %d",
			callers-allowed-1, existing)
	}
}

func TestCheck_StoreUnavailable(t *testing.T) {
	limiter := New(erroringRunner{err: errors.New("connection refused")})

	_, err := limiter.Check(context.Background(), "login:10.0.0.1", forgotPasswordConfig)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestCheck_MalformedReply(t *testing.T) {
	replies := []interface{}{
		"not an array",
		[]interface{}{int64(1), int64(0)},
		[]interface{}{int64(1), int64(0), int64(1), int64(1), int64(7)},
		[]interface{}{int64(0), int64(10), int64(3), int64(3), "frozen"},
	}

	for i, reply := range replies {
		limiter := New(staticRunner{reply: reply})
		if _, err := limiter.Check(context.Background(), "login:10.0.0.1", forgotPasswordConfig); !errors.Is(err, ErrProtocol) {
			t.Fatalf("reply %d: expected ErrProtocol, got %v", i, err)
		}
	}
}

func TestLimit_MapsDecisions(t *testing.T) {
	store := newFakeStore()
	limiter := New(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := limiter.Limit(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig); err != nil {
			t.Fatalf("expected attempt %d to pass, got %v", i+1, err)
		}
	}

	err := limiter.Limit(ctx, "forgot_password:1.2.3.4", forgotPasswordConfig)
	if err == nil {
		t.Fatal("expected the third attempt to be rejected")
	}
	if !IsTooManyAttempts(err) {
		t.Fatalf("expected a TooManyAttempts error, got %v", err)
	}

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected *RateLimitError, got %T", err)
	}
	if rle.RetryAfter <= 0 {
		t.Fatalf("expected a positive retry hint, got %v", rle.RetryAfter)
	}
	retrySecs, ok := rle.Context["retryAfter"].(int64)
	if !ok || retrySecs != int64(rle.RetryAfter/time.Second) {
		t.Fatalf("context payload mismatch: %v vs %v", rle.Context["retryAfter"], rle.RetryAfter)
	}
}

func TestLimit_StoreFailureIsServiceUnavailable(t *testing.T) {
	limiter := New(erroringRunner{err: errors.New("i/o timeout")})

	err := limiter.Limit(context.Background(), "login:10.0.0.1", forgotPasswordConfig)
	if err == nil {
		t.Fatal("expected an error")
	}
	if IsTooManyAttempts(err) {
		t.Fatal("a store failure must not look like a rate-limit rejection")
	}

	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.Kind != KindServiceUnavailable {
		t.Fatalf("expected KindServiceUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected the cause to be preserved, got %v", err)
	}
}

func TestLimit_ProtocolErrorPassesThrough(t *testing.T) {
	limiter := New(staticRunner{reply: []interface{}{int64(1), int64(0)}})

	err := limiter.Limit(context.Background(), "login:10.0.0.1", forgotPasswordConfig)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		t.Fatalf("a protocol error must not be wrapped as a rejection, got %v", err)
	}
}

// erroringRunner simulates an unreachable store.
type erroringRunner struct {
	err error
}

func (r erroringRunner) Run(context.Context, []string, []interface{}) (interface{}, error) {
	return nil, r.err
}

// staticRunner replays a canned reply.
type staticRunner struct {
	reply interface{}
}

func (r staticRunner) Run(context.Context, []string, []interface{}) (interface{}, error) {
	return r.reply, nil
}

// fakeStore reproduces the decision script's semantics in memory with a
// manually advanced clock, so window and TTL behavior can be tested without
// Redis. Each Run holds the mutex for its whole execution, matching the
// store's atomicity guarantee.
type fakeStore struct {
	mu  sync.Mutex
	now int64

	attempts map[string]map[string]int64 // key -> member -> score
	seqs     map[string]int64
	blocks   map[string]fakeBlock
	expiry   map[string]int64 // attempts/seq key -> expiry
}

type fakeBlock struct {
	value    string
	expireAt int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:      1_700_000_000,
		attempts: make(map[string]map[string]int64),
		seqs:     make(map[string]int64),
		blocks:   make(map[string]fakeBlock),
		expiry:   make(map[string]int64),
	}
}

// Advance moves the fake server clock forward by secs.
func (f *fakeStore) Advance(secs int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += secs
}

func (f *fakeStore) Run(_ context.Context, keys []string, args []interface{}) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(keys) != 3 || len(args) != 7 {
		return nil, fmt.Errorf("fake store: bad invocation: %d keys, %d args", len(keys), len(args))
	}
	attemptsKey, blockKey, seqKey := keys[0], keys[1], keys[2]

	tempRange := argInt(args[0])
	tempAttempts := argInt(args[1])
	tempDuration := argInt(args[2])
	longRange := argInt(args[3])
	retryLimit := argInt(args[4])
	longDuration := argInt(args[5])
	logTTL := argInt(args[6])

	f.expireKeys(attemptsKey, seqKey)
	now := f.now

	record := func() {
		f.seqs[seqKey]++
		if f.attempts[attemptsKey] == nil {
			f.attempts[attemptsKey] = make(map[string]int64)
		}
		member := fmt.Sprintf("%d:%d", now, f.seqs[seqKey])
		f.attempts[attemptsKey][member] = now
		f.expiry[attemptsKey] = now + logTTL
		f.expiry[seqKey] = now + logTTL
	}
	count := func(window int64) int64 {
		var n int64
		for _, score := range f.attempts[attemptsKey] {
			if score >= now-window && score <= now {
				n++
			}
		}
		return n
	}

	if block, ok := f.blocks[blockKey]; ok && block.expireAt > now {
		record()
		return []interface{}{int64(0), block.expireAt - now, count(tempRange), count(longRange), "existing"}, nil
	}

	horizon := tempRange
	if longRange > horizon {
		horizon = longRange
	}
	for member, score := range f.attempts[attemptsKey] {
		if score <= now-horizon-1 {
			delete(f.attempts[attemptsKey], member)
		}
	}

	record()
	shortCount := count(tempRange)
	longCount := count(longRange)

	setNX := func(value string, duration int64) int64 {
		if block, ok := f.blocks[blockKey]; ok && block.expireAt > now {
			return block.expireAt - now
		}
		f.blocks[blockKey] = fakeBlock{value: value, expireAt: now + duration}
		return duration
	}

	if shortCount >= tempAttempts {
		ttl := setNX("temp", tempDuration)
		return []interface{}{int64(0), ttl, shortCount, longCount, "temp"}, nil
	}
	if longCount >= retryLimit {
		ttl := setNX("long", longDuration)
		return []interface{}{int64(0), ttl, shortCount, longCount, "long"}, nil
	}
	return []interface{}{int64(1), int64(0), shortCount, longCount, "none"}, nil
}

func (f *fakeStore) expireKeys(attemptsKey, seqKey string) {
	if exp, ok := f.expiry[attemptsKey]; ok && exp <= f.now {
		delete(f.attempts, attemptsKey)
		delete(f.expiry, attemptsKey)
	}
	if exp, ok := f.expiry[seqKey]; ok && exp <= f.now {
		delete(f.seqs, seqKey)
		delete(f.expiry, seqKey)
	}
}

func argInt(v interface{}) int64 {
	switch n := v.(type) {
	case uint:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		panic(fmt.Sprintf("fake store: unexpected arg type %T", v))
	}
}
