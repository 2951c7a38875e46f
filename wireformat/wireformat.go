// Package wireformat defines the JSON envelopes exchanged between the host
// and the evaluator module. These types are the ABI contract of the module
// and must remain stable.
package wireformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reglet-dev/evaluator/timestate"
)

// Request is the envelope the host writes into module memory before calling
// run.
type Request struct {
	// Expression is the RCP19 expression to evaluate.
	Expression string `json:"expression"`
	// Value is the document the expression is evaluated against. JSON null
	// is a valid document.
	Value json.RawMessage `json:"value"`
	// PreviousValue is the prior version of the document, read by LAST.
	PreviousValue json.RawMessage `json:"previousValue,omitempty"`
	// Now is the caller's current instant, with an explicit UTC offset.
	Now time.Time `json:"now"`
	// Date is the caller's local calendar date.
	Date timestate.Date `json:"date"`
}

// HasPrevious reports whether a previous document was supplied. An explicit
// JSON null counts as absent.
func (r Request) HasPrevious() bool {
	return len(r.PreviousValue) > 0 && !isNull(r.PreviousValue)
}

// State returns the time snapshot carried by the request.
func (r Request) State() timestate.State {
	return timestate.New(r.Now, r.Date)
}

// Response is the envelope the module hands back through the output import.
// Exactly one of Data and Error is set.
type Response struct {
	Data  *json.RawMessage `json:"data,omitempty"`
	Error *string          `json:"error,omitempty"`
}

// ErrMalformedResponse is returned when a response envelope does not carry
// exactly one of data and error.
var ErrMalformedResponse = errors.New("response must carry exactly one of data or error")

// Success returns a response carrying data. A nil or empty data is the JSON
// null result.
func Success(data json.RawMessage) Response {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Response{Data: &data}
}

// Failure returns a response carrying msg as its error.
func Failure(msg string) Response {
	return Response{Error: &msg}
}

// IsError reports whether the response carries an error.
func (r Response) IsError() bool {
	return r.Error != nil
}

// Result returns the data of a successful response, or nil.
func (r Response) Result() json.RawMessage {
	if r.Data == nil {
		return nil
	}
	return *r.Data
}

// Err returns the carried error message as an error, or nil on success.
func (r Response) Err() error {
	if r.Error == nil {
		return nil
	}
	return errors.New(*r.Error)
}

// UnmarshalJSON decodes a response envelope, keeping "data":null distinct
// from an absent data key.
func (r *Response) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var out Response
	for key, raw := range fields {
		switch key {
		case "data":
			data := append(json.RawMessage(nil), raw...)
			out.Data = &data
		case "error":
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				return fmt.Errorf("response error must be a string: %w", err)
			}
			out.Error = &msg
		default:
			return fmt.Errorf("unknown response field %q", key)
		}
	}
	if (out.Data == nil) == (out.Error == nil) {
		return ErrMalformedResponse
	}
	*r = out
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
