package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/livestreams"
	"nasfaqv2/brokerbot/ytlive/internal/metrics"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
)

// Target is one channel to poll. Identifier is anything the checker can
// resolve: a channel ID, a handle or a channel URL.
type Target struct {
	Identifier string
	Name       string
}

type Source interface {
	Targets(ctx context.Context) ([]Target, error)
}

type Checker interface {
	Check(ctx context.Context, identifier string) (*livestatus.Result, error)
}

type StreamStore interface {
	UpsertChannelStreams(ctx context.Context, channelID string, streams []livestreams.Stream) error
}

type CheckRecorder interface {
	RecordCheck(ctx context.Context, channelID string, res *livestatus.Result, checkErr error) error
}

type Config struct {
	Interval     time.Duration
	Concurrency  int
	RequestDelay time.Duration // minimum spacing between two check starts
	CheckTimeout time.Duration
}

type Deps struct {
	Source   Source
	Checker  Checker
	Store    StreamStore
	Recorder CheckRecorder // optional
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

type Poller struct {
	cfg     Config
	deps    Deps
	limiter *rate.Limiter
}

// Summary counts the outcome of one pass.
type Summary struct {
	Channels int
	Live     int
	Failed   int
}

func New(cfg Config, deps Deps) *Poller {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 20 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}

	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}
	return &Poller{
		cfg:     cfg,
		deps:    deps,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run polls immediately, then once per interval, until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	run := func() {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.deps.Logger.Error().Err(err).Msg("livestreams: poll failed")
		}
	}
	p.deps.Logger.Info().
		Dur("interval", p.cfg.Interval).
		Int("concurrency", p.cfg.Concurrency).
		Msg("livestreams: polling enabled")
	run()

	t := time.NewTicker(p.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}

// RunOnce checks every target once. Individual channel failures are logged
// and counted; the returned error reports how many failed.
func (p *Poller) RunOnce(ctx context.Context) (Summary, error) {
	targets, err := p.deps.Source.Targets(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list channels: %w", err)
	}
	sum := Summary{Channels: len(targets)}
	if len(targets) == 0 {
		p.deps.Logger.Info().Msg("livestreams: no tracked channels")
		return sum, nil
	}

	var live, failed, done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, target := range targets {
		target := target
		g.Go(func() error {
			if err := p.limiter.Wait(gctx); err != nil {
				return err
			}

			isLive, err := p.pollOne(gctx, target)
			n := done.Add(1)
			if err != nil {
				failed.Add(1)
				p.deps.Logger.Warn().Err(err).Str("channel", target.Identifier).Msg("livestreams: channel check failed")
				return nil
			}
			if isLive {
				live.Add(1)
			}
			p.deps.Logger.Info().
				Str("channel", target.Identifier).
				Bool("live", isLive).
				Msgf("livestreams: ok (%d/%d)", n, len(targets))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	sum.Live = int(live.Load())
	sum.Failed = int(failed.Load())
	p.deps.Metrics.IncPollCycles()
	p.deps.Metrics.SetLiveChannels(sum.Live)

	if sum.Failed > 0 {
		return sum, fmt.Errorf("livestream poll completed with %d/%d channel failures", sum.Failed, sum.Channels)
	}
	return sum, nil
}

func (p *Poller) pollOne(ctx context.Context, target Target) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.CheckTimeout)
	res, checkErr := p.deps.Checker.Check(cctx, target.Identifier)
	cancel()

	// History is keyed by canonical channel ID. A failed check of a handle
	// or URL never learned it, so that failure is only logged.
	channelID := target.Identifier
	if res != nil {
		channelID = res.ChannelID
	}
	if p.deps.Recorder != nil && youtube.IsChannelID(channelID) {
		if err := p.deps.Recorder.RecordCheck(ctx, channelID, res, checkErr); err != nil {
			p.deps.Logger.Warn().Err(err).Str("channel", channelID).Msg("livestreams: record check failed")
		}
	}
	if checkErr != nil {
		return false, fmt.Errorf("check %s: %w", target.Identifier, checkErr)
	}

	if err := p.deps.Store.UpsertChannelStreams(ctx, channelID, livestreams.FromResult(res)); err != nil {
		return false, fmt.Errorf("store %s: %w", channelID, err)
	}
	return res.IsLive, nil
}
