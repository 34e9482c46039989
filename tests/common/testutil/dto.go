//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// DtoMap converts a request DTO into its JSON map form so tests can bend
// fields the typed struct would not allow, such as dropping a required key
// or sending the wrong type.
func DtoMap(t *testing.T, v any, muts ...func(map[string]any)) map[string]any {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err, "marshal dto")

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), "unmarshal dto into map")

	for _, f := range muts {
		f(m)
	}
	return m
}
