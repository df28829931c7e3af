package watchlist

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"nasfaqv2/brokerbot/ytlive/internal/poller"
	"nasfaqv2/brokerbot/ytlive/internal/youtube"
)

// Entry names one channel by ID, handle or channel URL.
type Entry struct {
	Channel string `yaml:"channel"`
	Name    string `yaml:"name,omitempty"`
}

// Watchlist is the YAML channel list used when no database is configured:
//
//	channels:
//	  - channel: "@eons"
//	    name: PBS Eons
//	  - channel: UCz8QaiQxApLq8sLNcszYyJw
type Watchlist struct {
	Channels []Entry `yaml:"channels"`
}

func Parse(data []byte) (*Watchlist, error) {
	var w Watchlist
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}

	seen := make(map[string]struct{}, len(w.Channels))
	out := w.Channels[:0]
	for i, e := range w.Channels {
		e.Channel = strings.TrimSpace(e.Channel)
		if !isIdentifier(e.Channel) {
			return nil, fmt.Errorf("watchlist entry %d: %q is not a channel ID, handle or channel URL", i+1, e.Channel)
		}
		if _, dup := seen[e.Channel]; dup {
			continue
		}
		seen[e.Channel] = struct{}{}
		out = append(out, e)
	}
	w.Channels = out
	return &w, nil
}

func Load(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return Parse(data)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if _, ok := youtube.ChannelIDFromURL(s); ok {
		return true
	}
	return youtube.IsChannelID(s) || youtube.ExtractHandle(s) != ""
}

func (w *Watchlist) Targets(context.Context) ([]poller.Target, error) {
	out := make([]poller.Target, 0, len(w.Channels))
	for _, e := range w.Channels {
		out = append(out, poller.Target{Identifier: e.Channel, Name: e.Name})
	}
	return out, nil
}

// FileSource re-reads the watchlist on every poll, so edits apply without
// a restart.
type FileSource struct {
	Path string
}

func (s FileSource) Targets(ctx context.Context) ([]poller.Target, error) {
	w, err := Load(s.Path)
	if err != nil {
		return nil, err
	}
	return w.Targets(ctx)
}
