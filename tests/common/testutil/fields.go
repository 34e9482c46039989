//go:build unit || e2e

package testutil

// a helper function for dynamically modifying map fields in tests
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
		} else {
			m[key] = value
		}
	}
}

// FieldAt mutates a field nested under the given object path, for command
// envelopes like {"command":{"payload":{...}}}. A nil value deletes the key.
func FieldAt(path []string, key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		cur := m
		for _, p := range path {
			next, ok := cur[p].(map[string]any)
			if !ok {
				return
			}
			cur = next
		}
		if value == nil {
			delete(cur, key)
		} else {
			cur[key] = value
		}
	}
}
