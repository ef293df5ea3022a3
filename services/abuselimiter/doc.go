// Package abuselimiter provides distributed abuse rate limiting for
// sensitive actions (login, password reset, newsletter signup) with a
// two-tier blocking policy: a short burst window catching rapid-fire abuse
// and a long window catching sustained low-rate abuse.
//
// Every attempt for a key prefix is recorded in a sorted set scored by the
// store's server clock, counted over both rolling windows, and checked
// against the configured thresholds. Crossing the burst threshold sets a
// temporary block; crossing the long threshold sets a long block. A block is
// a TTL-bearing flag key: while it exists, every attempt is rejected with the
// flag's remaining TTL as the retry hint, and the TTL is never extended by
// further attempts.
//
// The entire read-count-decide-block cycle executes as a single Lua script,
// so it is race-free across arbitrarily many processes sharing a prefix: the
// store serializes executions, and the set-if-not-exists block write means at
// most one concurrent caller wins the transition to blocked.
//
// State lives entirely in the store under three per-prefix keys
// ("<prefix>:attempts", "<prefix>:block", "<prefix>:seq") that expire on
// their own; there is no cleanup pass and no cross-prefix coupling.
//
// On store outage Check returns an error wrapping ErrStoreUnavailable and
// Limit returns a KindServiceUnavailable error. Callers in this codebase fail
// closed: the protected action is aborted rather than performed unprotected.
package abuselimiter
