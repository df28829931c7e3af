package ytdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseViewerCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1,234 watching", 1234, true},
		{"1.2K watching", 1200, true},
		{"0.5B watching", 500000000, true},
		{"1.234 watching", 1234, true},
		{"1.234.567 watching", 1234567, true},
		{"3.5M waiting", 3500000, true},
		{"12k Watching", 12000, true},
		{"4,356 watching now", 4356, true},
		{"38 waiting", 38, true},
		{"1.25 watching", 1, true},
		{"1 234 watching", 234, true},
		{"2,5 K watching", 25000, true},
		{"Members only", 0, false},
		{"1.2M views", 0, false},
		{"", 0, false},
		{". watching", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseViewerCount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLeadingFloat(t *testing.T) {
	f, ok := parseLeadingFloat("1.2.3")
	assert.True(t, ok)
	assert.InDelta(t, 1.2, f, 1e-9)

	f, ok = parseLeadingFloat(".5")
	assert.True(t, ok)
	assert.InDelta(t, 0.5, f, 1e-9)

	f, ok = parseLeadingFloat("7.")
	assert.True(t, ok)
	assert.InDelta(t, 7, f, 1e-9)

	_, ok = parseLeadingFloat("..")
	assert.False(t, ok)
}
