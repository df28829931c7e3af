package livestreams

import (
	"time"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

type StreamStatus string

const (
	StatusLive     StreamStatus = "live"
	StatusUpcoming StreamStatus = "upcoming"
)

// Stream is the stored form of one live or upcoming video.
type Stream struct {
	VideoID       string       `json:"video_id"`
	VideoURL      string       `json:"video_url"`
	Status        StreamStatus `json:"status"`
	Title         string       `json:"title"`
	ViewCountText string       `json:"view_count_text,omitempty"`
	Badges        []string     `json:"badges,omitempty"`

	ChannelID     string `json:"channel_id"`
	ChannelName   string `json:"channel_name"`
	ChannelHandle string `json:"channel_handle,omitempty"`

	ScheduledStartTime *time.Time `json:"scheduled_start_time,omitempty"`
	ConcurrentViewers  *int64     `json:"concurrent_viewers,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// FromResult flattens a check result into the streams worth storing: every
// live entry followed by every upcoming one.
func FromResult(res *livestatus.Result) []Stream {
	updatedAt := res.CheckedAt.Time()
	out := make([]Stream, 0, len(res.Streams.Live)+len(res.Streams.Scheduled))
	for _, e := range res.Streams.Live {
		out = append(out, fromEntry(res, e, StatusLive, updatedAt))
	}
	for _, e := range res.Streams.Scheduled {
		out = append(out, fromEntry(res, e, StatusUpcoming, updatedAt))
	}
	return out
}

func fromEntry(res *livestatus.Result, e ytdata.StreamEntry, status StreamStatus, updatedAt time.Time) Stream {
	st := Stream{
		VideoID:           e.VideoID,
		VideoURL:          e.WatchURL,
		Status:            status,
		Title:             e.Title,
		ViewCountText:     e.ViewCountText,
		Badges:            e.Badges,
		ChannelID:         res.ChannelID,
		ChannelName:       res.ChannelName,
		ChannelHandle:     res.ChannelHandle,
		ConcurrentViewers: e.ViewerCount,
		UpdatedAt:         updatedAt,
	}
	if start, ok := e.ScheduledStart(); ok {
		st.ScheduledStartTime = &start
	}
	return st
}
