package canonicaljson

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

// Marshal renders v as JSON with object keys sorted lexicographically and no
// insignificant whitespace. The value is round-tripped through encoding/json
// with UseNumber so numbers keep one textual form regardless of which
// serializer produced the input. Equal content therefore always yields equal
// bytes, which is what the idempotency fingerprint depends on.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(err, "canonicaljson: marshal input")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, errs.Wrap(err, "canonicaljson: reparse")
	}

	var buf bytes.Buffer
	if err := write(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(t.String())
	case string:
		return writeString(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := write(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return errs.Newf("canonicaljson: unsupported type %T", v)
	}
	return nil
}

// encoding/json escaping is deterministic, so strings reuse it as-is.
func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return errs.Wrap(err, "canonicaljson: encode string")
	}
	buf.Write(b)
	return nil
}
