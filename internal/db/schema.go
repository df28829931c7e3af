package db

// SchemaSQL is idempotent and runs as one multi-statement exec.
const SchemaSQL = `
CREATE SCHEMA IF NOT EXISTS yt;

CREATE TABLE IF NOT EXISTS yt.tracked_channels (
	youtube_channel_id TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	handle             TEXT,
	is_active          BOOLEAN NOT NULL DEFAULT TRUE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS yt.live_checks (
	id                 UUID PRIMARY KEY,
	youtube_channel_id TEXT NOT NULL,
	checked_at         TIMESTAMPTZ NOT NULL,
	is_live            BOOLEAN NOT NULL,
	live_count         INTEGER NOT NULL DEFAULT 0,
	scheduled_count    INTEGER NOT NULL DEFAULT 0,
	primary_video_id   TEXT,
	viewer_count       BIGINT,
	error              TEXT
);

CREATE INDEX IF NOT EXISTS live_checks_channel_checked_at_idx
	ON yt.live_checks (youtube_channel_id, checked_at DESC);
`
