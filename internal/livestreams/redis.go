package livestreams

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamTTL keeps a channel's hash around for a week; upcoming streams can be
// days away. Every update refreshes it.
const StreamTTL = 7 * 24 * time.Hour

type RedisStore struct {
	Client *redis.Client
}

// LiveChannelsKey is a sorted set of channels that had a live stream at
// their last check, scored by that check's time in unix seconds.
const LiveChannelsKey = "ytlive_live_channels"

func KeyForChannel(channelID string) string {
	// Use {...} so Redis Cluster users get stable hash slotting per channel key.
	return fmt.Sprintf("ytlive_streams:{%s}", channelID)
}

// UpsertChannelStreams makes the channel's hash hold exactly streams, keyed
// by video ID, and keeps the channel's entry in LiveChannelsKey in step with
// whether any of them is live.
func (s *RedisStore) UpsertChannelStreams(ctx context.Context, channelID string, streams []Stream) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("nil redis client")
	}

	key := KeyForChannel(channelID)

	existing, err := s.Client.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis HKEYS %s: %w", key, err)
	}

	fields := make(map[string]any, len(streams))
	var liveAt time.Time
	for _, st := range streams {
		b, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal stream %s: %w", st.VideoID, err)
		}
		fields[st.VideoID] = string(b)
		if st.Status == StatusLive && st.UpdatedAt.After(liveAt) {
			liveAt = st.UpdatedAt
		}
	}

	var stale []string
	for _, field := range existing {
		if _, ok := fields[field]; !ok {
			stale = append(stale, field)
		}
	}

	pipe := s.Client.Pipeline()
	if len(stale) > 0 {
		pipe.HDel(ctx, key, stale...)
	}
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, StreamTTL)
	}
	if liveAt.IsZero() {
		pipe.ZRem(ctx, LiveChannelsKey, channelID)
	} else {
		pipe.ZAdd(ctx, LiveChannelsKey, redis.Z{Score: float64(liveAt.Unix()), Member: channelID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec %s: %w", key, err)
	}
	return nil
}

// ListLiveChannels returns the channels found live by a check at or after
// since, most recently confirmed first.
func (s *RedisStore) ListLiveChannels(ctx context.Context, since time.Time) ([]string, error) {
	if s == nil || s.Client == nil {
		return nil, fmt.Errorf("nil redis client")
	}

	ids, err := s.Client.ZRevRangeByScore(ctx, LiveChannelsKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ZREVRANGEBYSCORE %s: %w", LiveChannelsKey, err)
	}
	return ids, nil
}

// ListChannelStreams returns the stored streams of a channel: live ones
// first, then upcoming ones by start time. Unknown channels yield an empty list.
func (s *RedisStore) ListChannelStreams(ctx context.Context, channelID string) ([]Stream, error) {
	if s == nil || s.Client == nil {
		return nil, fmt.Errorf("nil redis client")
	}

	key := KeyForChannel(channelID)
	fields, err := s.Client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", key, err)
	}

	out := make([]Stream, 0, len(fields))
	for videoID, raw := range fields {
		var st Stream
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("decode stream %s: %w", videoID, err)
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status != b.Status {
			return a.Status == StatusLive
		}
		as, bs := startOrZero(a), startOrZero(b)
		if !as.Equal(bs) {
			return as.Before(bs)
		}
		return a.VideoID < b.VideoID
	})
	return out, nil
}

func startOrZero(st Stream) time.Time {
	if st.ScheduledStartTime == nil {
		return time.Time{}
	}
	return *st.ScheduledStartTime
}
