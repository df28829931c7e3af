package livestatus

import (
	"fmt"
	"strings"
	"time"

	"nasfaqv2/brokerbot/ytlive/internal/youtube"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ISOTime is a UTC timestamp that marshals with millisecond precision.
type ISOTime time.Time

func (t ISOTime) Time() time.Time { return time.Time(t) }

func (t ISOTime) String() string {
	return time.Time(t).UTC().Format(isoMillis)
}

func (t ISOTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *ISOTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*t = ISOTime(parsed.UTC())
	return nil
}

// Streams holds the classified entries of one check. Scheduled is nil, and
// marshals as null, when nothing is upcoming. Live is never nil.
type Streams struct {
	Live      []ytdata.StreamEntry `json:"live"`
	Scheduled []ytdata.StreamEntry `json:"scheduled"`
}

// Primary mirrors the first live stream at the top level of a Result.
type Primary struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	ViewCount string `json:"viewCount"`
	VideoURL  string `json:"videoUrl"`
}

// Result is the outcome of one live-status check.
type Result struct {
	IsLive        bool    `json:"isLive"`
	ChannelID     string  `json:"channelId"`
	ChannelName   string  `json:"channelName"`
	ChannelHandle string  `json:"channelHandle,omitempty"`
	Streams       Streams `json:"streams"`
	CheckedAt     ISOTime `json:"checkedAt"`

	// Set only when IsLive.
	*Primary
}

func buildResult(resolved youtube.ResolvedChannel, snap *ytdata.ChannelSnapshot, checkedAt time.Time) *Result {
	channelID := snap.ChannelID
	if channelID == "" {
		channelID = resolved.ChannelID
	}

	live := snap.LiveStreams
	if live == nil {
		live = []ytdata.StreamEntry{}
	}
	var scheduled []ytdata.StreamEntry
	if len(snap.ScheduledStreams) > 0 {
		scheduled = snap.ScheduledStreams
	}

	res := &Result{
		IsLive:        len(live) > 0,
		ChannelID:     channelID,
		ChannelName:   snap.ChannelName,
		ChannelHandle: resolved.Handle,
		Streams:       Streams{Live: live, Scheduled: scheduled},
		CheckedAt:     ISOTime(checkedAt.UTC().Truncate(time.Millisecond)),
	}
	if res.IsLive {
		first := live[0]
		res.Primary = &Primary{
			VideoID:   first.VideoID,
			Title:     first.Title,
			ViewCount: first.ViewCountText,
			VideoURL:  first.WatchURL,
		}
	}
	return res
}

// clone returns a deep copy, so callers sharing one check can't see each
// other's edits.
func (r *Result) clone() *Result {
	cp := *r
	cp.Streams = Streams{
		Live:      cloneEntries(r.Streams.Live),
		Scheduled: cloneEntries(r.Streams.Scheduled),
	}
	if r.Primary != nil {
		p := *r.Primary
		cp.Primary = &p
	}
	return &cp
}

// cloneEntries keeps nil as nil and empty as empty.
func cloneEntries(in []ytdata.StreamEntry) []ytdata.StreamEntry {
	if in == nil {
		return nil
	}
	out := make([]ytdata.StreamEntry, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
