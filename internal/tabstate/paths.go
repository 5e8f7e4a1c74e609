package tabstate

// Record is the state record kept for one tracked tab. Well-known keys are
// "url" and "styleIds"; collaborators may attach arbitrary nested metadata
// under their own keys via path mutation.
type Record map[string]any

const (
	// KeyURL holds the tab's last known top-frame URL.
	KeyURL = "url"
	// KeyStyleIDs holds the per-frame applied style identifiers.
	KeyStyleIDs = "styleIds"
)

// getPath walks rec through the ordered key path. A missing tab field or a
// non-container intermediate yields ok=false.
func getPath(rec Record, path ...string) (any, bool) {
	var cur any = map[string]any(rec)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath writes value at the final key of path, creating intermediate
// containers as needed. An intermediate holding a non-container value is
// replaced by a fresh container. path must not be empty.
func setPath(rec Record, value any, path ...string) {
	m := map[string]any(rec)
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// copyRecord deep-copies a record so readers can hold it outside the cache
// lock while writers keep mutating the original.
func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies the containers a record can hold after a JSON round
// trip: nested maps and slices. Scalars pass through.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case Record:
		return copyRecord(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// deletePath removes the final key of path. A missing intermediate makes the
// whole operation a no-op; no structure is ever created. Reports whether a
// key was actually removed.
func deletePath(rec Record, path ...string) bool {
	m := map[string]any(rec)
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			return false
		}
		m = next
	}
	last := path[len(path)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}
