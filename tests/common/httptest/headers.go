//go:build unit || e2e

package httptest

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertHeaders checks each expected header against the recorded response.
func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for k, v := range expected {
		assert.Equal(t, v, w.Header().Get(k), "header %s mismatch", k)
	}
}

// AssertReplay checks that a replayed response matches the original byte for
// byte, the contract for mutation routes behind an idempotency key.
func AssertReplay(t *testing.T, original, replay *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, original.Code, replay.Code, "replay status mismatch")
	assert.Equal(t, original.Body.Bytes(), replay.Body.Bytes(), "replay body mismatch")
	AssertHeaders(t, replay, map[string]string{"Content-Type": original.Header().Get("Content-Type")})
}
