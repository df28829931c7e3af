package ytdata

import "strings"

// UnknownChannelName is reported when the page metadata carries no title.
const UnknownChannelName = "Unknown Channel"

// contentRoots are the tab containers that can hold the video grid, in
// preference order. The first one present is used even if it is empty.
var contentRoots = []string{"richGridRenderer", "sectionListRenderer"}

// ChannelSnapshot is the parsed state of a channel's streams tab.
type ChannelSnapshot struct {
	ChannelName string
	// ChannelID is empty when the page metadata carries no canonical ID.
	ChannelID        string
	LiveStreams      []StreamEntry
	ScheduledStreams []StreamEntry
	// Ignored holds IDs of entries that are neither live nor upcoming.
	Ignored []string
}

// ParseStreamsPage extracts the channel metadata and classified entries
// from a streams tab document. Entries are deduplicated by video ID, keeping
// the first occurrence.
func ParseStreamsPage(html string) (*ChannelSnapshot, error) {
	data, err := ExtractInitialData(html)
	if err != nil {
		return nil, err
	}

	meta := object(data, "metadata", "channelMetadataRenderer")
	snap := &ChannelSnapshot{
		ChannelName:      stringAt(meta, "title"),
		ChannelID:        stringAt(meta, "externalId"),
		LiveStreams:      []StreamEntry{},
		ScheduledStreams: []StreamEntry{},
	}
	if snap.ChannelName == "" {
		snap.ChannelName = UnknownChannelName
	}
	if snap.ChannelID == "" {
		snap.ChannelID = stringAt(meta, "channelId")
	}

	seen := make(map[string]struct{})
	for _, renderer := range CollectVideoRenderers(contentRoot(activeTab(data))) {
		entry, ok := ClassifyRenderer(renderer)
		if !ok {
			continue
		}
		if _, dup := seen[entry.VideoID]; dup {
			continue
		}
		seen[entry.VideoID] = struct{}{}

		switch {
		case entry.IsLive:
			snap.LiveStreams = append(snap.LiveStreams, entry)
		case entry.IsUpcoming:
			snap.ScheduledStreams = append(snap.ScheduledStreams, entry)
		default:
			snap.Ignored = append(snap.Ignored, entry.VideoID)
		}
	}
	return snap, nil
}

// activeTab picks the selected tab, falling back to the one titled "Live".
func activeTab(data map[string]any) map[string]any {
	tabs := list(data, "contents", "twoColumnBrowseResultsRenderer", "tabs")
	for _, tab := range tabs {
		if selected, _ := field(tab, "tabRenderer", "selected").(bool); selected {
			return object(tab, "tabRenderer")
		}
	}
	for _, tab := range tabs {
		if strings.EqualFold(stringAt(tab, "tabRenderer", "title"), "live") {
			return object(tab, "tabRenderer")
		}
	}
	return nil
}

func contentRoot(tab map[string]any) any {
	content := object(tab, "content")
	for _, key := range contentRoots {
		if container := object(content, key); container != nil {
			return list(container, "contents")
		}
	}
	return nil
}
