package gorelay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/samber/lo"
)

var _encoder = base64.RawURLEncoding

type (
	// PaginationFilter is one (column, value) pair of a cursor.
	PaginationFilter struct {
		Column string
		Value  any
	}

	// PaginationFilters is the decoded content of a cursor: sort-key values of
	// a boundary row, ordered like the active key list.
	//
	// On the wire it is a JSON object {"<table>.<column>": value, ...} whose key
	// order follows the slice order. Timestamps are written as {"$t": RFC3339}
	// and floats as {"$f": number}, so strings, floats and times keep their
	// kind. Integers come back as int64 (uint64 above MaxInt64), floats as
	// float64.
	PaginationFilters []PaginationFilter
)

// EncodeCursor encodes filters into an opaque cursor token. Empty filters
// produce an empty token.
func EncodeCursor(filters PaginationFilters) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	jTok, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("cannot marshal cursor value: %w", err)
	}

	return _encoder.EncodeToString(jTok), nil
}

// DecodeCursor parses a cursor token produced by EncodeCursor. An empty token
// decodes to nil filters. Any structural problem yields *MalformedCursorError
// and no partial data.
func DecodeCursor(cursor string) (PaginationFilters, error) {
	if len(cursor) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(cursor)
	if err != nil {
		return nil, newMalformedCursorError(cursor, fmt.Errorf("failed to decode base64 encoded cursor: %w", err))
	}

	var filters PaginationFilters
	if err = json.Unmarshal(jsonData, &filters); err != nil {
		return nil, newMalformedCursorError(cursor, fmt.Errorf("failed to unmarshal json encoded cursor: %w", err))
	}

	if len(filters) == 0 {
		return nil, newMalformedCursorError(cursor, errors.New("cursor carries no columns"))
	}

	return filters, nil
}

// String implements fmt.Stringer. Panics if a value cannot be marshaled.
func (f PaginationFilters) String() string {
	tok, err := EncodeCursor(f)
	if err != nil {
		panic(err)
	}

	return tok
}

// Columns returns cursor columns in order.
func (f PaginationFilters) Columns() []string {
	return lo.Map(f, func(item PaginationFilter, _ int) string {
		return item.Column
	})
}

// Get returns the value stored for column.
func (f PaginationFilters) Get(column string) (any, bool) {
	item, ok := lo.Find(f, func(item PaginationFilter) bool {
		return item.Column == column
	})

	return item.Value, ok
}

// matches reports whether the cursor carries exactly the given columns in order.
func (f PaginationFilters) matches(columns []string) error {
	if len(f) != len(columns) {
		return fmt.Errorf("cursor column number mismatch: got %d, want %d", len(f), len(columns))
	}

	for i := range f {
		if f[i].Column != columns[i] {
			return fmt.Errorf("unexpected cursor column '%s' at position %d", f[i].Column, i)
		}
	}

	return nil
}

// Tags mark values whose JSON form alone would lose their Go type.
const (
	_tagTime  = "$t"
	_tagFloat = "$f"
)

type (
	taggedTime struct {
		T time.Time `json:"$t"`
	}
	taggedFloat struct {
		F float64 `json:"$f"`
	}
)

// MarshalJSON writes the filters as a JSON object preserving slice order.
// Timestamps and floats are wrapped in single-key tag objects.
func (f PaginationFilters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, item := range f {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(item.Column)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(tagCursorValue(item.Value))
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", item.Column, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func tagCursorValue(v any) any {
	switch vt := v.(type) {
	case time.Time:
		return taggedTime{T: vt}
	case *time.Time:
		if vt == nil {
			return nil
		}

		return taggedTime{T: *vt}
	case float64:
		return taggedFloat{F: vt}
	case float32:
		return taggedFloat{F: float64(vt)}
	default:
		return v
	}
}

// UnmarshalJSON reads a flat JSON object of scalars and tagged values
// preserving key order.
func (f *PaginationFilters) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("cursor must be a JSON object")
	}

	ret := PaginationFilters{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}

		column, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected cursor key %v", tok)
		}
		if _, dup := seen[column]; dup {
			return fmt.Errorf("duplicate cursor column '%s'", column)
		}
		seen[column] = struct{}{}

		value, err := decodeCursorValue(dec)
		if err != nil {
			return fmt.Errorf("column '%s': %w", column, err)
		}

		ret = append(ret, PaginationFilter{Column: column, Value: value})
	}

	// Closing brace, then nothing else.
	if _, err = dec.Token(); err != nil {
		return err
	}
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after cursor object")
	}

	*f = ret

	return nil
}

// decodeCursorValue reads one value. Integers come back as int64, or uint64
// when they do not fit. Strings are never reinterpreted.
func decodeCursorValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		if v != '{' {
			return nil, fmt.Errorf("cursor values must be scalars")
		}

		return decodeTaggedValue(dec)
	case json.Number:
		return decodeInteger(v)
	default:
		// string, bool or nil
		return v, nil
	}
}

func decodeInteger(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}

	u, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("untagged number '%s' is not an integer", n)
	}

	return u, nil
}

func decodeTaggedValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	tag, ok := tok.(string)
	if !ok {
		return nil, fmt.Errorf("cursor values must be scalars")
	}

	tok, err = dec.Token()
	if err != nil {
		return nil, err
	}

	var value any
	switch tag {
	case _tagTime:
		s, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("timestamp must be a string")
		}

		if value, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return nil, err
		}
	case _tagFloat:
		n, ok := tok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("float must be a number")
		}

		if value, err = n.Float64(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown value tag '%s'", tag)
	}

	if tok, err = dec.Token(); err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '}' {
		return nil, fmt.Errorf("tagged value must have exactly one key")
	}

	return value, nil
}
