package wireformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/evaluator/timestate"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so messages match what the caller sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestWire mirrors Request with pointer fields so that absent keys can
// be told apart from zero values.
type requestWire struct {
	Expression    *string         `json:"expression" validate:"required"`
	Value         json.RawMessage `json:"value" validate:"required"`
	PreviousValue json.RawMessage `json:"previousValue"`
	Now           *instant        `json:"now" validate:"required"`
	Date          *timestate.Date `json:"date" validate:"required"`
}

// requestFields holds the exact top-level keys of a request envelope.
var requestFields = jsonFieldNames(reflect.TypeOf(requestWire{}))

func jsonFieldNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		names[name] = true
	}
	return names
}

// instant is an RFC 3339 timestamp. The T separator and Z suffix may be
// lowercase.
type instant time.Time

func (t *instant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("now must be a string: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		upper, upperErr := time.Parse(time.RFC3339, strings.ToUpper(s))
		if upperErr != nil {
			return err
		}
		parsed = upper
	}
	*t = instant(parsed)
	return nil
}

// checkFields rejects top-level keys that differ from the envelope's field
// names, including by case, and keys given more than once. Malformed input
// is left to the struct decoder to report.
func checkFields(text string) error {
	dec := json.NewDecoder(strings.NewReader(text))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	seen := make(map[string]bool, len(requestFields))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil
		}
		if !requestFields[key] {
			return fmt.Errorf("json: unknown field %q", key)
		}
		if seen[key] {
			return fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = true
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
	}
	return nil
}

// DecodeRequest strictly decodes a request envelope. Unknown or miscased
// fields, duplicate fields, trailing data and missing required fields are
// errors.
func DecodeRequest(text string) (Request, error) {
	if err := checkFields(text); err != nil {
		return Request{}, err
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var wire requestWire
	if err := dec.Decode(&wire); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, errors.New("empty input")
		}
		return Request{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Request{}, fmt.Errorf("unexpected data after request at offset %d", dec.InputOffset())
	}
	if err := validate.Struct(&wire); err != nil {
		return Request{}, describeValidation(err)
	}

	req := Request{
		Expression: *wire.Expression,
		Value:      wire.Value,
		Now:        time.Time(*wire.Now),
		Date:       *wire.Date,
	}
	if !isNull(wire.PreviousValue) {
		req.PreviousValue = wire.PreviousValue
	}
	return req, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, fmt.Sprintf("missing field %q", fe.Field()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("field %q failed %q validation", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, ", "))
}

// DecodeDocument decodes a JSON document into the generic shapes the
// expression engine reads, keeping numbers as json.Number.
func DecodeDocument(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeDocument encodes an evaluation result as JSON.
func EncodeDocument(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
