package services

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Each queue is a list (order) plus a set (membership). The scripts keep the
// two in step atomically.
var (
	joinScript = redis.NewScript(`
if redis.call("SADD", KEYS[2], ARGV[1]) == 1 then
	redis.call("RPUSH", KEYS[1], ARGV[1])
	return 1
end
return 0`)

	leaveScript = redis.NewScript(`
if redis.call("SREM", KEYS[2], ARGV[1]) == 1 then
	redis.call("LREM", KEYS[1], 0, ARGV[1])
	return 1
end
return 0`)

	prependScript = redis.NewScript(`
local fresh = {}
for i = 1, #ARGV do
	if redis.call("SADD", KEYS[2], ARGV[i]) == 1 then
		fresh[#fresh + 1] = ARGV[i]
	end
end
for i = #fresh, 1, -1 do
	redis.call("LPUSH", KEYS[1], fresh[i])
end
return #fresh`)

	popScript = redis.NewScript(`
local n = tonumber(ARGV[1])
if redis.call("LLEN", KEYS[1]) < n then
	return {}
end
local out = redis.call("LRANGE", KEYS[1], 0, n - 1)
redis.call("LTRIM", KEYS[1], n, -1)
for _, id in ipairs(out) do
	redis.call("SREM", KEYS[2], id)
end
return out`)
)

// RedisQueue persists a queue in Redis so it survives front-end restarts.
type RedisQueue struct {
	client     *redis.Client
	listKey    string
	membersKey string
}

// NewRedisQueue namespaces the keys by league, e.g. "my-league:queue:normal".
func NewRedisQueue(client *redis.Client, league string, kind QueueKind) *RedisQueue {
	prefix := fmt.Sprintf("%s:queue:%s", slug.Make(league), kind)
	return &RedisQueue{
		client:     client,
		listKey:    prefix,
		membersKey: prefix + ":members",
	}
}

func (q *RedisQueue) keys() []string {
	return []string{q.listKey, q.membersKey}
}

func (q *RedisQueue) Join(ctx context.Context, id string) (bool, error) {
	n, err := joinScript.Run(ctx, q.client, q.keys(), id).Int()
	if err != nil {
		return false, eris.Wrap(err, "failed to join queue")
	}
	return n == 1, nil
}

func (q *RedisQueue) Leave(ctx context.Context, id string) (bool, error) {
	n, err := leaveScript.Run(ctx, q.client, q.keys(), id).Int()
	if err != nil {
		return false, eris.Wrap(err, "failed to leave queue")
	}
	return n == 1, nil
}

func (q *RedisQueue) Prepend(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	err := prependScript.Run(ctx, q.client, q.keys(), args...).Err()
	return eris.Wrap(err, "failed to prepend to queue")
}

func (q *RedisQueue) PopIfFull(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, eris.Errorf("invalid lobby size %d", n)
	}
	out, err := popScript.Run(ctx, q.client, q.keys(), n).StringSlice()
	if err != nil {
		return nil, eris.Wrap(err, "failed to pop queue")
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (q *RedisQueue) Members(ctx context.Context) ([]string, error) {
	out, err := q.client.LRange(ctx, q.listKey, 0, -1).Result()
	return out, eris.Wrap(err, "failed to read queue")
}

func (q *RedisQueue) Clear(ctx context.Context) error {
	return eris.Wrap(q.client.Del(ctx, q.listKey, q.membersKey).Err(), "failed to clear queue")
}
