package abuselimiter

// decisionScript is the atomic rate-limit decision. It runs as a single Lua
// execution so that no concurrent caller for the same prefix can interleave
// between the threshold check and the block write.
//
// KEYS[1] = attempts log (zset scored by unix seconds)
// KEYS[2] = block flag   (string, value is the tier that set it)
// KEYS[3] = sequence counter
//
// ARGV[1] = temp window (s)    ARGV[2] = temp attempts threshold
// ARGV[3] = temp block TTL (s) ARGV[4] = long window (s)
// ARGV[5] = long attempts threshold (retry limit)
// ARGV[6] = long block TTL (s) ARGV[7] = attempts log TTL (s)
//
// Reply: {allowed 0|1, retry_after_or_ttl, short_count, long_count, reason}
// with reason one of "none", "existing", "temp", "long".
const decisionScript = `
local attemptsKey = KEYS[1]
local blockKey    = KEYS[2]
local seqKey      = KEYS[3]

local tempRange    = tonumber(ARGV[1])
local tempAttempts = tonumber(ARGV[2])
local tempDuration = tonumber(ARGV[3])
local longRange    = tonumber(ARGV[4])
local retryLimit   = tonumber(ARGV[5])
local longDuration = tonumber(ARGV[6])
local logTTL       = tonumber(ARGV[7])

-- Server clock, never the caller's: all hosts decide against one clock.
local time = redis.call("TIME")
local now = tonumber(time[1])

local function record()
  local seq = redis.call("INCR", seqKey)
  redis.call("EXPIRE", seqKey, logTTL)
  redis.call("ZADD", attemptsKey, now, now .. ":" .. seq)
  redis.call("EXPIRE", attemptsKey, logTTL)
end

-- Fast path: a block is already active. Record the attempt for counting but
-- never touch the block's TTL.
local blockTTL = redis.call("TTL", blockKey)
if blockTTL > 0 then
  record()
  local shortCount = redis.call("ZCOUNT", attemptsKey, now - tempRange, now)
  local longCount  = redis.call("ZCOUNT", attemptsKey, now - longRange, now)
  return {0, blockTTL, shortCount, longCount, "existing"}
end

-- GC against the larger window so both counts stay correct.
local horizon = tempRange
if longRange > horizon then
  horizon = longRange
end
redis.call("ZREMRANGEBYSCORE", attemptsKey, 0, now - horizon - 1)

record()

local shortCount = redis.call("ZCOUNT", attemptsKey, now - tempRange, now)
local longCount  = redis.call("ZCOUNT", attemptsKey, now - longRange, now)

-- Burst detection wins when both thresholds trip at once. SET NX so a racing
-- writer never extends a block another caller just set; the TTL read back is
-- whatever survived the race.
if shortCount >= tempAttempts then
  redis.call("SET", blockKey, "temp", "EX", tempDuration, "NX")
  return {0, redis.call("TTL", blockKey), shortCount, longCount, "temp"}
end
if longCount >= retryLimit then
  redis.call("SET", blockKey, "long", "EX", longDuration, "NX")
  return {0, redis.call("TTL", blockKey), shortCount, longCount, "long"}
end

return {1, 0, shortCount, longCount, "none"}
`
