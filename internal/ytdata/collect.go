package ytdata

import (
	"slices"
)

// rendererKeys name the objects that describe one displayable video.
var rendererKeys = []string{"videoRenderer", "gridVideoRenderer"}

func isRendererKey(key string) bool {
	return slices.Contains(rendererKeys, key)
}

// CollectVideoRenderers returns every video renderer object found anywhere
// under root, in document order. Matched renderers are not searched further.
//
// The walk uses an explicit stack; channel pages nest deep enough that
// recursion is not an option.
func CollectVideoRenderers(root any) []map[string]any {
	var out []map[string]any
	stack := []any{root}

	for len(stack) > 0 {
		last := len(stack) - 1
		current := stack[last]
		stack = stack[:last]

		switch node := current.(type) {
		case []any:
			for i := len(node) - 1; i >= 0; i-- {
				if isContainer(node[i]) {
					stack = append(stack, node[i])
				}
			}
		case map[string]any:
			for _, key := range rendererKeys {
				if r, ok := node[key].(map[string]any); ok {
					out = append(out, r)
				}
			}

			keys := make([]string, 0, len(node))
			for key, child := range node {
				if isRendererKey(key) || !isContainer(child) {
					continue
				}
				keys = append(keys, key)
			}
			// Pushed in reverse so that keys pop in sorted order.
			slices.Sort(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, node[keys[i]])
			}
		}
	}
	return out
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}
