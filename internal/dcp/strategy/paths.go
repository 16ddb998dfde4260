package strategy

import "regexp"

var applyPatchFileHeader = regexp.MustCompile(`(?m)^\*\*\* (?:Add|Delete|Update) File: (.+)$`)

// ExtractPaths returns every file path a tool call touches:
// read/write/edit.filePath, multiedit.filePath plus each nested edit,
// and apply_patch.patchText scanned for
// "*** {Add|Delete|Update} File: <path>" headers.
func ExtractPaths(tool string, params map[string]any) []string {
	str := func(key string) string {
		v, ok := params[key]
		if !ok {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	switch tool {
	case "read", "write", "edit":
		if p := str("filePath"); p != "" {
			return []string{p}
		}
	case "multiedit":
		var out []string
		if p := str("filePath"); p != "" {
			out = append(out, p)
		}
		if edits, ok := params["edits"].([]any); ok {
			for _, e := range edits {
				if em, ok := e.(map[string]any); ok {
					if p, ok := em["filePath"].(string); ok && p != "" {
						out = append(out, p)
					}
				}
			}
		}
		return out
	case "apply_patch":
		text := str("patchText")
		if text == "" {
			return nil
		}
		matches := applyPatchFileHeader.FindAllStringSubmatch(text, -1)
		out := make([]string, 0, len(matches))
		for _, m := range matches {
			out = append(out, m[1])
		}
		return out
	}
	return nil
}
