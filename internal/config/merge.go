package config

// Merge deep-merges patch into base and returns a new configuration, leaving
// both arguments untouched. Maps are unioned recursively, lists are
// concatenated and for any other value the patch wins. Nil patch values are
// treated as absent.
func Merge(base, patch Configuration) Configuration {
	return Configuration(mergeMaps(base, patch))
}

// Clone returns a deep copy of the configuration containers
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	return Configuration(cloneMap(c))
}

func mergeMaps(dst, src map[string]any) map[string]any {
	out := cloneMap(dst)

	for k, v := range src {
		if v == nil {
			continue
		}
		if cur, ok := out[k]; ok && cur != nil {
			out[k] = mergeValue(cur, v)
			continue
		}
		out[k] = cloneValue(v)
	}

	return out
}

func mergeValue(dst, src any) any {
	if dm, ok := asMap(dst); ok {
		if sm, ok := asMap(src); ok {
			return mergeMaps(dm, sm)
		}
	}

	if ds, ok := asSlice(dst); ok {
		if ss, ok := asSlice(src); ok {
			out := make([]any, 0, len(ds)+len(ss))
			for _, v := range ds {
				out = append(out, cloneValue(v))
			}
			for _, v := range ss {
				out = append(out, cloneValue(v))
			}
			return out
		}
	}

	return cloneValue(src)
}

func cloneValue(v any) any {
	if m, ok := asMap(v); ok {
		return cloneMap(m)
	}
	if s, ok := asSlice(v); ok {
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Configuration:
		return m, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}
