package codec

import "strings"

// FindPath walks a decoded JSON value and returns every value reachable by
// the given slash-separated path, e.g. "/apps/opensrf.math/stateless". A
// leading double slash ("//key/...") switches to an any-depth search: the
// first segment after it is looked up recursively at every depth of the
// tree rather than just at the root, mirroring jsonObjectFindPath's
// any-depth mode. Array segments are not indexed by key; FindPath descends
// through arrays transparently when searching any-depth, and treats a
// numeric segment as an index for a root-relative path.
func FindPath(v any, path string) []any {
	if path == "" {
		return []any{cloneValue(v)}
	}

	if strings.HasPrefix(path, "//") {
		rest := strings.TrimPrefix(path, "//")
		segs := strings.Split(rest, "/")
		return findAnyDepth(v, segs)
	}

	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	return findExact(v, segs)
}

func findExact(v any, segs []string) []any {
	if len(segs) == 0 || (len(segs) == 1 && segs[0] == "") {
		return []any{cloneValue(v)}
	}

	head, tail := segs[0], segs[1:]

	switch t := v.(type) {
	case map[string]any:
		child, ok := t[head]
		if !ok {
			return nil
		}
		return findExact(child, tail)
	case []any:
		idx, ok := parseIndex(head)
		if !ok || idx < 0 || idx >= len(t) {
			return nil
		}
		return findExact(t[idx], tail)
	default:
		return nil
	}
}

// findAnyDepth implements the recursive "search everywhere, then once found
// resolve the remaining path exactly" behavior of
// _jsonObjectFindPathRecurse/__jsonObjectFindPathRecurse: the first segment
// is matched at any depth; once matched, the remaining segments are
// resolved relative to that match.
func findAnyDepth(v any, segs []string) []any {
	if len(segs) == 0 {
		return nil
	}
	head, tail := segs[0], segs[1:]

	var out []any
	var walk func(node any)
	walk = func(node any) {
		switch t := node.(type) {
		case map[string]any:
			if child, ok := t[head]; ok {
				out = append(out, findExact(child, tail)...)
			}
			for _, child := range t {
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(v)
	return out
}

// cloneValue deep-copies a decoded JSON value, mirroring jsonObjectClone:
// every matched value FindPath returns is a fresh copy, not a live
// reference into the tree it was found in, so a caller mutating a result
// cannot corrupt the source. Scalars (string, float64, bool, nil) are
// immutable in Go and returned as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = cloneValue(child)
		}
		return out
	default:
		return v
	}
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
