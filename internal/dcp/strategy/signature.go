package strategy

import (
	"encoding/json"
	"sort"
)

// signature builds the dedup key:
// "tool::JSON(sortedKeys(normalized(parameters)))" where normalization
// drops null/undefined fields and sorts keys recursively, retaining
// array order. encoding/json already sorts map[string]any keys when
// marshaling, so canonicalize only needs to drop nils.
func signature(tool string, params map[string]any) string {
	canon := canonicalize(params)
	data, err := json.Marshal(canon)
	if err != nil {
		// Unmarshalable parameters (shouldn't happen for decoded JSON
		// input) fall back to the tool name alone, which never groups
		// with anything — safer than a panic or a false duplicate.
		return tool + "::" + "<unmarshalable>"
	}
	return tool + "::" + string(data)
}

func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if vv == nil {
				continue
			}
			out[k] = canonicalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = canonicalize(vv)
		}
		return out
	default:
		return val
	}
}

// sortedKeys returns m's keys in sorted order. Nothing calls it:
// signature relies on encoding/json's own key sorting.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
