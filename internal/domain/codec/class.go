package codec

// FoldClass flattens a tagged-value tree so that every object carrying a
// class tag with a "data" sub-object becomes that sub-object, with the
// class tag attached as metadata on a sibling key instead of wrapping it.
// This is a pure tree transform, applied recursively; non-object values and
// objects without a class tag pass through unchanged (but are still
// recursed into, so nested tagged values anywhere in the tree are folded).
//
// It is the inverse of UnfoldClass and is used by applications preparing
// result content: decoded wire values carry class tags the way the
// envelope itself does (see classKey/dataKey in envelope.go), and application code
// wants the plain value with the tag available as metadata rather than
// nested inside a wrapper object.
func FoldClass(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if class, ok := t[classKey].(string); ok {
			data, hasData := t[dataKey]
			if !hasData {
				return nil
			}
			folded := FoldClass(data)
			return attachClass(folded, class)
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = FoldClass(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = FoldClass(child)
		}
		return out
	default:
		return v
	}
}

// attachClass stamps a class tag onto an already-folded value. Scalars and
// arrays cannot carry a sibling key, so the tag is recorded in a wrapper
// object with a "value" key; objects get the tag set directly as a key.
func attachClass(v any, class string) any {
	if obj, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(obj)+1)
		for k, val := range obj {
			out[k] = val
		}
		out[metaClassKey] = class
		return out
	}
	return map[string]any{
		metaClassKey: class,
		"value":      v,
	}
}

const metaClassKey = "__class"

// UnfoldClass is the inverse of FoldClass: it takes a value whose class
// metadata lives on the "__class" key (or, for a bare wrapper produced by
// attachClass, the "value" key) and re-wraps it into the class/data tagged
// shape the wire format expects.
func UnfoldClass(v any) any {
	switch t := v.(type) {
	case map[string]any:
		class, hasClass := t[metaClassKey].(string)
		if hasClass {
			if val, ok := t["value"]; ok && len(t) == 2 {
				return map[string]any{classKey: class, dataKey: UnfoldClass(val)}
			}
			data := make(map[string]any, len(t)-1)
			for k, child := range t {
				if k == metaClassKey {
					continue
				}
				data[k] = UnfoldClass(child)
			}
			return map[string]any{classKey: class, dataKey: data}
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = UnfoldClass(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = UnfoldClass(child)
		}
		return out
	default:
		return v
	}
}
