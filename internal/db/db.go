package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/poller"
)

type Channel struct {
	YouTubeChannelID string
	Name             string
	Handle           *string
}

// LiveCheck is one row of check history. Error is set, and the counts are
// zero, when the check failed.
type LiveCheck struct {
	ID               uuid.UUID
	YouTubeChannelID string
	CheckedAt        time.Time

	IsLive         bool
	LiveCount      int
	ScheduledCount int
	PrimaryVideoID *string
	ViewerCount    *int64

	Error *string
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	normalizedURL, schema := normalizeDatabaseURL(databaseURL)
	cfg, err := pgxpool.ParseConfig(normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		if cfg.ConnConfig.RuntimeParams == nil {
			cfg.ConnConfig.RuntimeParams = map[string]string{}
		}
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	// SimpleProtocol so SchemaSQL can run as a multi-statement exec.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return p, nil
}

// normalizeDatabaseURL moves a "schema" query parameter out of the URL, since
// Postgres does not understand it, and returns it for use as search_path.
func normalizeDatabaseURL(databaseURL string) (string, string) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL, ""
	}
	q := u.Query()
	schema := q.Get("schema")
	if schema == "" {
		return databaseURL, ""
	}
	q.Del("schema")
	u.RawQuery = q.Encode()
	return u.String(), schema
}

func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("nil pool")
	}
	if _, err := pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func ListActiveChannels(ctx context.Context, pool *pgxpool.Pool) ([]Channel, error) {
	rows, err := pool.Query(ctx, `
		SELECT youtube_channel_id, name, handle
		FROM yt.tracked_channels
		WHERE is_active = true
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.YouTubeChannelID, &c.Name, &c.Handle); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate channels: %w", rows.Err())
	}
	return out, nil
}

func UpsertChannel(ctx context.Context, pool *pgxpool.Pool, c Channel) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO yt.tracked_channels (
			youtube_channel_id,
			name,
			handle,
			is_active,
			updated_at
		) VALUES ($1,$2,$3,TRUE,now())
		ON CONFLICT (youtube_channel_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			handle = COALESCE(EXCLUDED.handle, yt.tracked_channels.handle),
			is_active = TRUE,
			updated_at = now()
	`, c.YouTubeChannelID, c.Name, c.Handle)
	if err != nil {
		return fmt.Errorf("upsert channel (id=%s): %w", c.YouTubeChannelID, err)
	}
	return nil
}

func DeactivateChannel(ctx context.Context, pool *pgxpool.Pool, channelID string) (bool, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE yt.tracked_channels
		SET is_active = FALSE, updated_at = now()
		WHERE youtube_channel_id = $1 AND is_active = TRUE
	`, channelID)
	if err != nil {
		return false, fmt.Errorf("deactivate channel (id=%s): %w", channelID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// NewLiveCheck summarises a check outcome for the history table. res is
// ignored when checkErr is set.
func NewLiveCheck(channelID string, res *livestatus.Result, checkErr error, now time.Time) LiveCheck {
	lc := LiveCheck{
		ID:               uuid.Must(uuid.NewV7()),
		YouTubeChannelID: channelID,
		CheckedAt:        now.UTC(),
	}
	if checkErr != nil {
		msg := checkErr.Error()
		lc.Error = &msg
		return lc
	}

	lc.CheckedAt = res.CheckedAt.Time()
	lc.IsLive = res.IsLive
	lc.LiveCount = len(res.Streams.Live)
	lc.ScheduledCount = len(res.Streams.Scheduled)
	if res.IsLive {
		first := res.Streams.Live[0]
		lc.PrimaryVideoID = &first.VideoID
		lc.ViewerCount = first.ViewerCount
	}
	return lc
}

func InsertLiveCheck(ctx context.Context, pool *pgxpool.Pool, lc LiveCheck) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO yt.live_checks (
			id,
			youtube_channel_id,
			checked_at,
			is_live,
			live_count,
			scheduled_count,
			primary_video_id,
			viewer_count,
			error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, lc.ID, lc.YouTubeChannelID, lc.CheckedAt, lc.IsLive, lc.LiveCount, lc.ScheduledCount,
		lc.PrimaryVideoID, lc.ViewerCount, lc.Error)
	if err != nil {
		return fmt.Errorf("insert live check (channel=%s time=%s): %w", lc.YouTubeChannelID, lc.CheckedAt.Format(time.RFC3339), err)
	}
	return nil
}

// Recorder adapts a pool to the poller's channel source and check history.
type Recorder struct {
	Pool *pgxpool.Pool
}

func (r *Recorder) Targets(ctx context.Context) ([]poller.Target, error) {
	channels, err := ListActiveChannels(ctx, r.Pool)
	if err != nil {
		return nil, err
	}
	out := make([]poller.Target, 0, len(channels))
	for _, c := range channels {
		out = append(out, poller.Target{Identifier: c.YouTubeChannelID, Name: c.Name})
	}
	return out, nil
}

func (r *Recorder) RecordCheck(ctx context.Context, channelID string, res *livestatus.Result, checkErr error) error {
	return InsertLiveCheck(ctx, r.Pool, NewLiveCheck(channelID, res, checkErr, time.Now()))
}
