package extract

import "strings"

// CleanText collapses runs of whitespace (including control characters) to
// single spaces and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func uniqueStrings(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = CleanText(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// pruneEmpty recursively drops nil, empty-string, empty-list, and
// empty-object members. It returns nil when nothing survives, so it is
// idempotent: pruning twice equals pruning once.
func pruneEmpty(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, member := range val {
			if pruned := pruneEmpty(member); pruned != nil {
				out[k] = pruned
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, member := range val {
			if pruned := pruneEmpty(member); pruned != nil {
				out = append(out, pruned)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return val
	case nil:
		return nil
	default:
		return val
	}
}
