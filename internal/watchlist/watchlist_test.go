package watchlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasfaqv2/brokerbot/ytlive/internal/poller"
)

func TestParse(t *testing.T) {
	w, err := Parse([]byte(`
channels:
  - channel: "@eons"
    name: PBS Eons
  - channel: " UCz8QaiQxApLq8sLNcszYyJw "
  - channel: https://www.youtube.com/channel/UCCkmgsl8W18oR6c_W7UZ1lQ
  - channel: "@eons"
    name: duplicate
`))
	require.NoError(t, err)

	targets, err := w.Targets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []poller.Target{
		{Identifier: "@eons", Name: "PBS Eons"},
		{Identifier: "UCz8QaiQxApLq8sLNcszYyJw"},
		{Identifier: "https://www.youtube.com/channel/UCCkmgsl8W18oR6c_W7UZ1lQ"},
	}, targets)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("channels:\n  - channel: \"not a channel!\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")

	_, err = Parse([]byte("channels:\n  - name: missing\n"))
	require.Error(t, err)

	_, err = Parse([]byte("channels: [unterminated"))
	require.Error(t, err)
}

func TestFileSource_ReloadsEachTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channels:\n  - channel: \"@one\"\n"), 0o644))
	src := FileSource{Path: path}

	targets, err := src.Targets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 1)

	require.NoError(t, os.WriteFile(path, []byte("channels:\n  - channel: \"@one\"\n  - channel: \"@two\"\n"), 0o644))
	targets, err = src.Targets(context.Background())
	require.NoError(t, err)
	assert.Len(t, targets, 2)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Targets(context.Background())
	require.Error(t, err)
}
