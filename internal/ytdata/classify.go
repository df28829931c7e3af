package ytdata

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// WatchURLPrefix builds a playable link from a video ID.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// StreamEntry is one classified video from a channel's streams tab.
type StreamEntry struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	ViewCountText string `json:"viewCountText"`
	WatchURL      string `json:"watchUrl"`
	IsLive        bool   `json:"isLive"`
	IsUpcoming    bool   `json:"isUpcoming"`

	Badges []string `json:"badges,omitempty"`
	// Unix seconds, present only for upcoming entries that announce a start.
	ScheduledStartTime *int64 `json:"scheduledStartTime,omitempty"`
	ViewerCount        *int64 `json:"viewerCount,omitempty"`
}

// Clone returns a copy that shares no memory with e.
func (e StreamEntry) Clone() StreamEntry {
	if e.Badges != nil {
		e.Badges = append([]string(nil), e.Badges...)
	}
	if e.ScheduledStartTime != nil {
		v := *e.ScheduledStartTime
		e.ScheduledStartTime = &v
	}
	if e.ViewerCount != nil {
		v := *e.ViewerCount
		e.ViewerCount = &v
	}
	return e
}

// ScheduledStart returns the announced start time, if any.
func (e StreamEntry) ScheduledStart() (time.Time, bool) {
	if e.ScheduledStartTime == nil {
		return time.Time{}, false
	}
	return time.Unix(*e.ScheduledStartTime, 0).UTC(), true
}

const (
	overlayStyleLive     = "LIVE"
	overlayStyleUpcoming = "UPCOMING"
)

// ClassifyRenderer turns a video renderer into a StreamEntry. It reports
// false when the renderer has no video ID.
func ClassifyRenderer(r map[string]any) (StreamEntry, bool) {
	videoID := stringAt(r, "videoId")
	if videoID == "" {
		return StreamEntry{}, false
	}

	entry := StreamEntry{
		VideoID:       videoID,
		Title:         textOf(r["title"]),
		ViewCountText: textOf(r["viewCountText"]),
		WatchURL:      WatchURLPrefix + videoID,
		Badges:        badgeLabels(r),
	}

	overlayStyle, overlayText := timeStatusOverlay(r)
	upcomingEvent := object(r, "upcomingEventData")

	statusText := entry.ViewCountText
	if statusText == "" {
		statusText = overlayText
	}
	lower := strings.ToLower(statusText)

	entry.IsUpcoming = upcomingEvent != nil ||
		overlayStyle == overlayStyleUpcoming ||
		strings.Contains(lower, "scheduled") ||
		strings.Contains(lower, "waiting")

	entry.IsLive = !entry.IsUpcoming &&
		(overlayStyle == overlayStyleLive ||
			hasLiveBadge(entry.Badges) ||
			strings.Contains(lower, "watching"))

	if upcomingEvent != nil {
		if ts, ok := startTime(upcomingEvent["startTime"]); ok {
			entry.ScheduledStartTime = &ts
		}
	}
	if n, ok := ParseViewerCount(statusText); ok {
		entry.ViewerCount = &n
	}
	return entry, true
}

func badgeLabels(r map[string]any) []string {
	var labels []string
	for _, badge := range list(r, "badges") {
		if label := stringAt(badge, "metadataBadgeRenderer", "label"); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

func hasLiveBadge(badges []string) bool {
	for _, b := range badges {
		if strings.EqualFold(b, "live") {
			return true
		}
	}
	return false
}

// timeStatusOverlay reads the first thumbnail time-status overlay.
func timeStatusOverlay(r map[string]any) (style, text string) {
	for _, overlay := range list(r, "thumbnailOverlays") {
		status := object(overlay, "thumbnailOverlayTimeStatusRenderer")
		if status == nil {
			continue
		}
		return stringAt(status, "style"), textOf(status["text"])
	}
	return "", ""
}

// startTime accepts the numeric string YouTube sends as well as a plain
// number. Zero and unparseable values mean no start time.
func startTime(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	default:
		return 0, false
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
