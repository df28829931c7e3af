package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/livestreams"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

type staticSource []Target

func (s staticSource) Targets(context.Context) ([]Target, error) { return s, nil }

type fakeChecker struct {
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu     sync.Mutex
	starts []time.Time
}

func (f *fakeChecker) Check(ctx context.Context, identifier string) (*livestatus.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	f.mu.Lock()
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	switch identifier {
	case "@broken":
		return nil, youtube.ErrResolutionFailed
	case "UCbrokenbrokenbroken0000":
		return nil, &youtube.FetchError{URL: "streams", Status: 503}
	case "UClivelivelivelivelive00":
		return &livestatus.Result{
			IsLive:    true,
			ChannelID: identifier,
			Streams: livestatus.Streams{Live: []ytdata.StreamEntry{
				{VideoID: "vid1", WatchURL: ytdata.WatchURLPrefix + "vid1", IsLive: true},
			}},
			CheckedAt: livestatus.ISOTime(time.Now()),
		}, nil
	default:
		return &livestatus.Result{
			ChannelID: "UCofflineofflineoffline0",
			Streams:   livestatus.Streams{Live: []ytdata.StreamEntry{}},
			CheckedAt: livestatus.ISOTime(time.Now()),
		}, nil
	}
}

type record struct {
	channelID string
	failed    bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []record
}

func (f *fakeRecorder) RecordCheck(_ context.Context, channelID string, _ *livestatus.Result, checkErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record{channelID: channelID, failed: checkErr != nil})
	return nil
}

func newRedisStore(t *testing.T) (*livestreams.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &livestreams.RedisStore{Client: client}, mr
}

func TestRunOnce_StoresAndRecords(t *testing.T) {
	store, mr := newRedisStore(t)
	rec := &fakeRecorder{}
	p := New(Config{Concurrency: 2}, Deps{
		Source: staticSource{
			{Identifier: "UClivelivelivelivelive00"},
			{Identifier: "@quiet"},
			{Identifier: "@broken"},
			{Identifier: "UCbrokenbrokenbroken0000"},
		},
		Checker:  &fakeChecker{},
		Store:    store,
		Recorder: rec,
		Logger:   zerolog.Nop(),
	})

	sum, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2/4 channel failures")
	assert.Equal(t, Summary{Channels: 4, Live: 1, Failed: 2}, sum)

	fields, err := mr.HKeys(livestreams.KeyForChannel("UClivelivelivelivelive00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"vid1"}, fields)

	assert.ElementsMatch(t, []record{
		{channelID: "UClivelivelivelivelive00"},
		{channelID: "UCofflineofflineoffline0"},
		{channelID: "UCbrokenbrokenbroken0000", failed: true},
	}, rec.records, "a failed handle check has no channel ID to record")
}

func TestRunOnce_RespectsConcurrency(t *testing.T) {
	store, _ := newRedisStore(t)
	checker := &fakeChecker{delay: 20 * time.Millisecond}
	targets := make(staticSource, 8)
	for i := range targets {
		targets[i] = Target{Identifier: "@quiet"}
	}
	p := New(Config{Concurrency: 3}, Deps{Source: targets, Checker: checker, Store: store, Logger: zerolog.Nop()})

	sum, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Channels)
	assert.LessOrEqual(t, checker.maxSeen.Load(), int32(3))
	assert.GreaterOrEqual(t, checker.maxSeen.Load(), int32(2))
}

func TestRunOnce_PacesRequests(t *testing.T) {
	store, _ := newRedisStore(t)
	checker := &fakeChecker{}
	p := New(Config{Concurrency: 4, RequestDelay: 30 * time.Millisecond}, Deps{
		Source:  staticSource{{Identifier: "@a"}, {Identifier: "@b"}, {Identifier: "@c"}},
		Checker: checker,
		Store:   store,
		Logger:  zerolog.Nop(),
	})

	start := time.Now()
	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
	require.Len(t, checker.starts, 3)
}

func TestRunOnce_CheckTimeout(t *testing.T) {
	store, _ := newRedisStore(t)
	p := New(Config{CheckTimeout: 10 * time.Millisecond}, Deps{
		Source:  staticSource{{Identifier: "@slow"}},
		Checker: &fakeChecker{delay: time.Second},
		Store:   store,
		Logger:  zerolog.Nop(),
	})

	sum, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, sum.Failed)
}

func TestRunOnce_NoTargets(t *testing.T) {
	p := New(Config{}, Deps{Source: staticSource{}, Checker: &fakeChecker{}, Logger: zerolog.Nop()})

	sum, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

type failingSource struct{}

func (failingSource) Targets(context.Context) ([]Target, error) {
	return nil, errors.New("connection refused")
}

func TestRunOnce_SourceError(t *testing.T) {
	p := New(Config{}, Deps{Source: failingSource{}, Checker: &fakeChecker{}, Logger: zerolog.Nop()})

	_, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list channels")
}

func TestRun_StopsOnCancel(t *testing.T) {
	store, _ := newRedisStore(t)
	checker := &fakeChecker{}
	p := New(Config{Interval: 10 * time.Millisecond}, Deps{
		Source:  staticSource{{Identifier: "@quiet"}},
		Checker: checker,
		Store:   store,
		Logger:  zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		checker.mu.Lock()
		defer checker.mu.Unlock()
		return len(checker.starts) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
