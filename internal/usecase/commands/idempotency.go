package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/canonicaljson"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

// ErrIdempotencyKeyReuse means the key arrived again with different content.
// The stored reply belongs to another request, so nothing can be replayed.
var ErrIdempotencyKeyReuse = errs.New("idempotency key reused with different content")

// Content is what a request's fingerprint covers: the route, the decoded
// body, and the authenticated actor when there is one. Two requests with the
// same fingerprint are the same mutation.
type Content struct {
	Path  string `json:"path"`
	Body  any    `json:"body"`
	Actor string `json:"actor,omitempty"`
}

// Fingerprint hashes the canonical JSON form of the content, so key order
// and whitespace in the original request never change the outcome.
func Fingerprint(c Content) (string, error) {
	raw, err := canonicaljson.Marshal(c)
	if err != nil {
		return "", errs.Wrap(err, "fingerprint content")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Gate guards mutations behind the idempotency ledger. Decide classifies an
// incoming key before the command runs; Record stores the finished reply.
type Gate struct {
	store IdempotencyStore
}

func NewGate(store IdempotencyStore) *Gate {
	return &Gate{store: store}
}

// Decide resolves a key against the ledger. A nil record means the request
// is new and must execute; a non-nil record is the reply to return verbatim.
// A key reused with different content fails with ErrIdempotencyKeyReuse.
func (g *Gate) Decide(ctx context.Context, key, contentHash string) (*IdempotencyRecord, error) {
	rec, err := g.store.Find(ctx, key)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "consult idempotency ledger")
	}
	if rec.ContentHash != contentHash {
		return nil, errs.Mark(
			errs.Newf("key %s already bound to another request", key),
			ErrIdempotencyKeyReuse,
		)
	}
	return rec, nil
}

// Record persists the reply for future replays. Losing the insert race is
// fine: the winner stored an equivalent reply for the same content.
func (g *Gate) Record(ctx context.Context, rec IdempotencyRecord) error {
	if err := g.store.Save(ctx, rec); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return nil
		}
		return errs.Wrap(err, "record idempotency reply")
	}
	return nil
}
