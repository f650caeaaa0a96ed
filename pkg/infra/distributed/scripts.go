package distributed

import "github.com/go-redis/redis/v8"

// KEYS[1] counter, ARGV[1] window ms, ARGV[2] ceiling (<= 0 means none).
// Returns {count, pttl}.
var incrementScript = redis.NewScript(`
local ceiling = tonumber(ARGV[2])
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if ceiling <= 0 or current < ceiling then
  current = redis.call('INCR', KEYS[1])
  if current == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
  end
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// KEYS[1] counter. Returns the count after the refund.
var decrementScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current > 0 then
  return redis.call('DECR', KEYS[1])
end
return 0
`)

// KEYS[1] sorted set, ARGV[1] now ms, ARGV[2] window ms, ARGV[3] limit,
// ARGV[4] member. Returns {count, allowed, oldest score or -1}.
var recordScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', '(' .. (now - window))
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < limit then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', KEYS[1], window)
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local score = -1
if oldest[2] then
  score = tonumber(oldest[2])
end
return {count, allowed, score}
`)
