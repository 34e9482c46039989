//go:build unit

package queries

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	lastKey := map[string]string{"reservationId": "0190b2f0-1111-7000-8000-000000000001"}

	encoded, err := EncodeCursor(lastKey)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, lastKey, decoded)
}

func TestEncodeCursorEmptyKeyMeansNoCursor(t *testing.T) {
	encoded, err := EncodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, encoded)
}

func TestDecodeCursor(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
		errIs  error
	}{
		{name: "empty cursor starts from the beginning"},
		{name: "not base64url", cursor: "!!not-base64!!", errIs: ErrInvalidCursor},
		{
			name:   "unsupported version",
			cursor: base64.URLEncoding.EncodeToString([]byte(`v2:{"reservationId":"x"}`)),
			errIs:  ErrInvalidCursor,
		},
		{
			name:   "garbage payload",
			cursor: base64.URLEncoding.EncodeToString([]byte(`v1:not-json`)),
			errIs:  ErrInvalidCursor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeCursor(tt.cursor)

			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, decoded)
		})
	}
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0, 20))
	assert.Equal(t, 20, ValidateLimit(-5, 20))
	assert.Equal(t, 50, ValidateLimit(50, 20))
	assert.Equal(t, MaxListLimit, ValidateLimit(10_000, 20))
}
