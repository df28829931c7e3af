package livestatus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	applog "nasfaqv2/brokerbot/ytlive/internal/log"
	"nasfaqv2/brokerbot/ytlive/internal/metrics"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

type Options struct {
	// SaveHTML writes the fetched streams page, or the error body of a
	// failed fetch, to DiagDir.
	SaveHTML bool
	// Logger replaces the default sinks entirely when set.
	Logger *zerolog.Logger
	// EnableLogging turns on console output in production.
	EnableLogging bool
	// DiagDir defaults to the working directory.
	DiagDir string
	// Timeout bounds one upstream check, independent of any caller's
	// context. Defaults to DefaultTimeout.
	Timeout time.Duration
	Client  *youtube.Client
	Metrics *metrics.Metrics
}

// DefaultTimeout bounds a check when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Checker runs live-status checks. It is safe for concurrent use; checks
// for the same identifier that overlap share one upstream round trip.
type Checker struct {
	client   *youtube.Client
	logger   zerolog.Logger
	closeLog func() error
	saveHTML bool
	diagDir  string
	timeout  time.Duration
	metrics  *metrics.Metrics

	group singleflight.Group
	now   func() time.Time
}

func New(opts Options) (*Checker, error) {
	c := &Checker{
		client:   opts.Client,
		saveHTML: opts.SaveHTML,
		diagDir:  opts.DiagDir,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		closeLog: func() error { return nil },
		now:      time.Now,
	}
	if c.client == nil {
		c.client = youtube.New(youtube.DefaultBaseURL)
	}
	if c.diagDir == "" {
		c.diagDir = "."
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	if opts.Logger != nil {
		c.logger = *opts.Logger
	} else {
		l, closer, err := applog.New(applog.Config{
			Production:    applog.ProductionFromEnv(),
			EnableLogging: opts.EnableLogging,
		})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		c.logger = l
		c.closeLog = closer.Close
	}
	c.logger = applog.Component(c.logger, "livestatus")

	// The client logs through the checker unless it was given its own logger.
	if c.client.Logger.GetLevel() == zerolog.Disabled {
		withLogger := *c.client
		withLogger.Logger = applog.Component(c.logger, "youtube")
		c.client = &withLogger
	}
	return c, nil
}

// Close releases the default log file, if one was opened.
func (c *Checker) Close() error {
	return c.closeLog()
}

// CheckChannelLiveStatus runs a single check with a throwaway Checker.
func CheckChannelLiveStatus(ctx context.Context, identifier string, opts Options) (*Result, error) {
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Check(ctx, identifier)
}

// Check resolves identifier, fetches the channel's streams page and
// classifies what is on it. Errors wrap youtube.ErrInvalidIdentifier,
// youtube.ErrResolutionFailed, youtube.ErrFetchFailed or
// ytdata.ErrDataNotFound, or are ctx's error when ctx ends first.
//
// Overlapping checks of one identifier share a single upstream round trip.
// That work runs detached from every caller's cancellation and is bounded
// by the checker's own timeout; each caller stops waiting when its own ctx
// is done and gets a private copy of the result.
func (c *Checker) Check(ctx context.Context, identifier string) (*Result, error) {
	key := strings.TrimSpace(identifier)
	ch := c.group.DoChan(key, func() (any, error) {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.observe(wctx, identifier)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("check %s: %w", key, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Result).clone(), nil
	}
}

func (c *Checker) observe(ctx context.Context, identifier string) (*Result, error) {
	start := c.now()
	res, err := c.check(ctx, identifier)

	outcome := metrics.OutcomeOffline
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case res.IsLive:
		outcome = metrics.OutcomeLive
	}
	c.metrics.ObserveCheck(outcome, c.now().Sub(start))
	return res, err
}

func (c *Checker) check(ctx context.Context, identifier string) (*Result, error) {
	resolved, err := c.client.ResolveChannel(ctx, identifier)
	if err != nil {
		return nil, err
	}

	streamsURL := c.client.StreamsURL(resolved.ChannelID)
	target := resolved.ChannelID
	if resolved.Handle != "" {
		target = fmt.Sprintf("%s (from %s)", resolved.ChannelID, resolved.Handle)
	}
	c.logger.Info().Str("channel", target).Str("url", streamsURL).Msg("livestatus: checking live status")

	page, err := c.client.FetchStreamsPage(ctx, resolved.ChannelID)
	if err != nil {
		return nil, c.fail(err)
	}
	c.logger.Debug().Int("bytes", len(page.Body)).Msg("livestatus: streams page fetched, parsing")

	if c.saveHTML {
		if err := c.writeDiagnostic(LastResponseFile, page.Body); err != nil {
			return nil, c.fail(err)
		}
	}

	snap, err := ytdata.ParseStreamsPage(page.Body)
	if err != nil {
		return nil, c.fail(err)
	}
	for _, videoID := range snap.Ignored {
		c.logger.Debug().Str("video_id", videoID).Msg("livestatus: ignoring entry that is neither live nor upcoming")
	}

	res := buildResult(resolved, snap, c.now())
	if res.IsLive {
		c.logger.Info().
			Str("channel_id", res.ChannelID).
			Int("live", len(res.Streams.Live)).
			Msgf("livestatus: channel is live with %s", plural(len(res.Streams.Live), "stream"))
	} else {
		c.logger.Info().Str("channel_id", res.ChannelID).Msg("livestatus: channel is not live")
		if n := len(res.Streams.Scheduled); n > 0 {
			c.logger.Info().Str("channel_id", res.ChannelID).Msgf("livestatus: found %s", plural(n, "upcoming stream"))
		}
	}
	return res, nil
}

// fail logs err and, with SaveHTML, keeps the upstream error body.
func (c *Checker) fail(err error) error {
	c.logger.Error().Err(err).Msg("livestatus: error checking live status")

	if !c.saveHTML {
		return err
	}
	body, ok := youtube.ResponseBody(err)
	if !ok {
		return err
	}
	if werr := c.writeDiagnostic(ErrorResponseFile, body); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
