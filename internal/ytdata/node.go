package ytdata

import "strings"

// The decoded page data is a plain encoding/json tree: map[string]any,
// []any, string, float64, bool and nil. These helpers walk it without
// panicking on missing or differently shaped nodes.

func field(v any, path ...string) any {
	for _, key := range path {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[key]
	}
	return v
}

func object(v any, path ...string) map[string]any {
	obj, _ := field(v, path...).(map[string]any)
	return obj
}

func list(v any, path ...string) []any {
	arr, _ := field(v, path...).([]any)
	return arr
}

func stringAt(v any, path ...string) string {
	s, _ := field(v, path...).(string)
	return s
}

// textStrategy pulls display text out of a YouTube text object.
type textStrategy func(obj map[string]any) string

// textStrategies are tried in order and the first non-empty result wins.
var textStrategies = []textStrategy{
	simpleText,
	joinedRuns,
}

func simpleText(obj map[string]any) string {
	return stringAt(obj, "simpleText")
}

func joinedRuns(obj map[string]any) string {
	var b strings.Builder
	for _, run := range list(obj, "runs") {
		b.WriteString(stringAt(run, "text"))
	}
	return b.String()
}

func textOf(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, strategy := range textStrategies {
		if text := strategy(obj); text != "" {
			return text
		}
	}
	return ""
}
