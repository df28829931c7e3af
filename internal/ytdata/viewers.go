package ytdata

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	viewerCountRe  = regexp.MustCompile(`(?i)([\d.,]+)\s*(K|M|B)?\s*(watching|waiting)`)
	leadingFloatRe = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)

	// YouTube localises counts with no-break and narrow no-break spaces.
	spaceNormalizer = strings.NewReplacer("\u00a0", " ", "\u202f", " ")
)

var suffixMultiplier = map[string]float64{
	"":  1,
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
}

// ParseViewerCount extracts the number from texts like "1,234 watching" or
// "1.2K waiting". It reports false when the text carries no count.
func ParseViewerCount(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}

	normalized := strings.TrimSpace(spaceNormalizer.Replace(text))
	m := viewerCountRe.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}

	numeric := strings.TrimSpace(m[1])
	suffix := strings.ToUpper(m[2])

	// "1.234 watching" uses the dot as a thousands separator, "1.2K" does not.
	if suffix == "" && strings.Contains(numeric, ".") && !strings.Contains(numeric, ",") {
		if parts := strings.Split(numeric, "."); len(parts[1]) == 3 {
			numeric = strings.ReplaceAll(numeric, ".", "")
		}
	}

	base, ok := parseLeadingFloat(strings.ReplaceAll(numeric, ",", ""))
	if !ok {
		return 0, false
	}

	value := math.Round(base * suffixMultiplier[suffix])
	if math.IsInf(value, 0) || math.IsNaN(value) || value > math.MaxInt64 {
		return 0, false
	}
	return int64(value), true
}

// parseLeadingFloat parses the longest numeric prefix of s, so "1.2.3" reads as 1.2.
func parseLeadingFloat(s string) (float64, bool) {
	prefix := leadingFloatRe.FindString(s)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(prefix, "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
