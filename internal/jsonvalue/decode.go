package jsonvalue

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyDocument is returned when the input holds no JSON value at all.
var ErrEmptyDocument = errors.New("empty JSON document")

// Decode reads exactly one JSON value from r. A leading byte order mark is
// honoured, so UTF-8 files saved with a BOM and UTF-16 files decode the same
// way as plain UTF-8. The whole document is checked against the JSON grammar
// before any value is built.
func Decode(r io.Reader) (*Value, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := checkSyntax(data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	v, err := decodeToken(dec, tok)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// Anything after the top-level value is an error.
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid JSON: unexpected data after top-level value")
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// checkSyntax reports the first grammar error in data with its offset. The
// token decoder does not check separators or number grammar.
func checkSyntax(data []byte) error {
	if stdjson.Valid(data) {
		return nil
	}
	var discard interface{}
	if err := stdjson.Unmarshal(data, &discard); err != nil {
		var serr *stdjson.SyntaxError
		if errors.As(err, &serr) {
			return fmt.Errorf("%s at offset %d", serr.Error(), serr.Offset)
		}
		return err
	}
	return errors.New("malformed document")
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*Value, error) {
	return Decode(bytes.NewReader(data))
}

// MustDecode decodes a literal document and panics on error. Tests only.
func MustDecode(doc string) *Value {
	v, err := DecodeBytes([]byte(doc))
	if err != nil {
		panic(err)
	}
	return v
}

func decodeNext(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return String(t), nil
	case json.Number:
		return Number(string(t)), nil
	case float64:
		return Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}

func decodeObject(dec *json.Decoder) (*Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		val, err := decodeNext(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (*Value, error) {
	items := []*Value{}
	for dec.More() {
		item, err := decodeNext(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return Array(items...), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", rune(want), tok)
	}
	return nil
}
