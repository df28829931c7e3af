package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasfaqv2/brokerbot/ytlive/internal/livestatus"
	"nasfaqv2/brokerbot/ytlive/internal/ytdata"
)

func TestNormalizeDatabaseURL(t *testing.T) {
	got, schema := normalizeDatabaseURL("postgres://u:p@localhost:5432/app?schema=yt&sslmode=disable")
	assert.Equal(t, "postgres://u:p@localhost:5432/app?sslmode=disable", got)
	assert.Equal(t, "yt", schema)

	in := "postgres://u:p@localhost:5432/app?sslmode=disable"
	got, schema = normalizeDatabaseURL(in)
	assert.Equal(t, in, got)
	assert.Empty(t, schema)
}

func TestNewLiveCheck_Live(t *testing.T) {
	viewers := int64(4356)
	checked := time.Date(2025, 10, 20, 9, 30, 0, 0, time.UTC)
	res := &livestatus.Result{
		IsLive:    true,
		ChannelID: "UCCkmgsl8W18oR6c_W7UZ1lQ",
		Streams: livestatus.Streams{
			Live: []ytdata.StreamEntry{{VideoID: "Q7zImoEl0YQ", ViewerCount: &viewers}},
		},
		CheckedAt: livestatus.ISOTime(checked),
	}

	lc := NewLiveCheck("UCCkmgsl8W18oR6c_W7UZ1lQ", res, nil, time.Now())
	assert.NotEqual(t, uuid.Nil, lc.ID)
	assert.Equal(t, checked, lc.CheckedAt)
	assert.True(t, lc.IsLive)
	assert.Equal(t, 1, lc.LiveCount)
	assert.Equal(t, 0, lc.ScheduledCount)
	require.NotNil(t, lc.PrimaryVideoID)
	assert.Equal(t, "Q7zImoEl0YQ", *lc.PrimaryVideoID)
	require.NotNil(t, lc.ViewerCount)
	assert.Equal(t, int64(4356), *lc.ViewerCount)
	assert.Nil(t, lc.Error)
}

func TestNewLiveCheck_Failed(t *testing.T) {
	now := time.Date(2025, 10, 20, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	lc := NewLiveCheck("UCzR-rom72PHN9Zg7RML9EbA", nil, errors.New("fetch failed: HTTP 503"), now)
	assert.Equal(t, now.UTC(), lc.CheckedAt)
	assert.False(t, lc.IsLive)
	assert.Nil(t, lc.PrimaryVideoID)
	require.NotNil(t, lc.Error)
	assert.Equal(t, "fetch failed: HTTP 503", *lc.Error)
}

func TestNewLiveCheck_IDsAreUnique(t *testing.T) {
	a := NewLiveCheck("x", nil, errors.New("e"), time.Now())
	b := NewLiveCheck("x", nil, errors.New("e"), time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}
