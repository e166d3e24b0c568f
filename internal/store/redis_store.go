package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string // e.g. "batepapo"
}

// Redis key patterns:
// {prefix}:participants   ZSET<name> score=lastActivity (unix ms)
// {prefix}:messages       LIST<json message>, RPUSH order = log order

// touchScript updates the score only when the member already exists.
var touchScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
  return 1
end
return 0
`)

// expireOneScript pops the stalest member scored strictly below ARGV[1].
// Running as one script makes find+delete a single atomic step.
var expireOneScript = redis.NewScript(`
local victims = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1], 'LIMIT', 0, 1)
if #victims == 0 then
  return false
end
local score = redis.call('ZSCORE', KEYS[1], victims[1])
redis.call('ZREM', KEYS[1], victims[1])
return {victims[1], score}
`)

// recentPageSize bounds how many log entries one LRANGE pulls while filtering.
const recentPageSize = 100

// redisStore implements Store using Redis.
type redisStore struct {
	client          *redis.Client
	participantsKey string
	messagesKey     string
}

// NewRedisStore creates a new Redis-backed store and pings the server.
func NewRedisStore(cfg RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(client, cfg.KeyPrefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *redisStore {
	if prefix == "" {
		prefix = "batepapo"
	}
	return &redisStore{
		client:          client,
		participantsKey: prefix + ":participants",
		messagesKey:     prefix + ":messages",
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

func (s *redisStore) Join(ctx context.Context, name string, now time.Time) error {
	added, err := s.client.ZAddNX(ctx, s.participantsKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: name,
	}).Result()
	if err != nil {
		return unavailable("join", err)
	}
	if added == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (s *redisStore) Touch(ctx context.Context, name string, now time.Time) error {
	hit, err := touchScript.Run(ctx, s.client, []string{s.participantsKey}, name, now.UnixMilli()).Int()
	if err != nil {
		return unavailable("touch", err)
	}
	if hit == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, name string) (domain.Participant, error) {
	score, err := s.client.ZScore(ctx, s.participantsKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Participant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Participant{}, unavailable("get participant", err)
	}
	return domain.Participant{Name: name, LastActivity: time.UnixMilli(int64(score))}, nil
}

func (s *redisStore) List(ctx context.Context) ([]domain.Participant, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.participantsKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable("list participants", err)
	}

	out := make([]domain.Participant, 0, len(members))
	for _, z := range members {
		name, _ := z.Member.(string)
		out = append(out, domain.Participant{Name: name, LastActivity: time.UnixMilli(int64(z.Score))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *redisStore) ExpireOne(ctx context.Context, threshold time.Time) (domain.Participant, error) {
	res, err := expireOneScript.Run(ctx, s.client, []string{s.participantsKey}, threshold.UnixMilli()).StringSlice()
	if errors.Is(err, redis.Nil) {
		return domain.Participant{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Participant{}, unavailable("expire participant", err)
	}
	if len(res) != 2 {
		return domain.Participant{}, unavailable("expire participant", fmt.Errorf("unexpected script reply %v", res))
	}

	score, err := strconv.ParseFloat(res[1], 64)
	if err != nil {
		return domain.Participant{}, unavailable("expire participant", err)
	}
	return domain.Participant{Name: res[0], LastActivity: time.UnixMilli(int64(score))}, nil
}

func (s *redisStore) Append(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.messagesKey, data).Err(); err != nil {
		return unavailable("append message", err)
	}
	return nil
}

// Recent walks the list backwards from a length snapshot. Entries are never
// removed, so positive indices below the snapshot stay stable while newer
// appends land after it.
func (s *redisStore) Recent(ctx context.Context, viewer string, limit int) ([]domain.Message, error) {
	n, err := s.client.LLen(ctx, s.messagesKey).Result()
	if err != nil {
		return nil, unavailable("count messages", err)
	}

	out := make([]domain.Message, 0, min(int64(limit), n))
	for end := n - 1; end >= 0 && len(out) < limit; end -= recentPageSize {
		start := max(end-recentPageSize+1, 0)

		page, err := s.client.LRange(ctx, s.messagesKey, start, end).Result()
		if err != nil {
			return nil, unavailable("read messages", err)
		}

		for i := len(page) - 1; i >= 0 && len(out) < limit; i-- {
			var msg domain.Message
			if err := json.Unmarshal([]byte(page[i]), &msg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message: %w", err)
			}
			if domain.Visible(viewer, msg) {
				out = append(out, msg)
			}
		}
	}
	return out, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
