package queries

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

const (
	MaxListLimit    = 200
	CursorVersionV1 = "v1"
)

var ErrInvalidCursor = errs.New("invalid cursor")

// Cursor is an opaque continuation token. The payload is the read store's
// last evaluated key, so clients must treat it as a black box.
type Cursor struct {
	After string
}

// EncodeCursor wraps a last evaluated key as a versioned base64url token.
func EncodeCursor(lastKey map[string]string) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}
	payload, err := json.Marshal(lastKey)
	if err != nil {
		return "", errs.Wrap(err, "marshal cursor payload")
	}
	return base64.URLEncoding.EncodeToString([]byte(CursorVersionV1 + ":" + string(payload))), nil
}

// DecodeCursor reverses EncodeCursor. An empty cursor means "from the start".
func DecodeCursor(cursor string) (map[string]string, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode cursor"), ErrInvalidCursor)
	}

	payload, ok := strings.CutPrefix(string(decoded), CursorVersionV1+":")
	if !ok {
		return nil, errs.Mark(errs.Newf("unsupported cursor version"), ErrInvalidCursor)
	}

	var lastKey map[string]string
	if err := json.Unmarshal([]byte(payload), &lastKey); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "unmarshal cursor payload"), ErrInvalidCursor)
	}
	return lastKey, nil
}

func ValidateLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
