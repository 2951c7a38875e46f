// Package boundary converts between the raw byte spans that cross the
// module boundary and the text and envelopes the dispatcher works with.
package boundary

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/reglet-dev/evaluator/wireformat"
)

// EncodingError reports input bytes that are not valid UTF-8.
type EncodingError struct {
	Err    error
	Offset int // offset of the first invalid byte
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid utf-8 sequence at byte offset %d", e.Offset)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Decode interprets raw as UTF-8 text. The returned string is a copy; raw
// may be released as soon as Decode returns.
func Decode(raw []byte) (string, error) {
	_, n, err := transform.Bytes(encoding.UTF8Validator, raw)
	if err != nil {
		return "", &EncodingError{Offset: n, Err: err}
	}
	return string(raw), nil
}

// Encode serialises a response as compact JSON without a trailing newline.
func Encode(resp wireformat.Response) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
