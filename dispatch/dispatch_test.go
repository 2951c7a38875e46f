package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/evaluator/internal/boundary"
	"github.com/reglet-dev/evaluator/internal/testutil"
	"github.com/reglet-dev/evaluator/rcp19"
	"github.com/reglet-dev/evaluator/wireformat"
)

func request(expr, value, previous string) []byte {
	r := fmt.Sprintf(`{"expression":%q,"value":%s,"now":"1985-04-21T01:35:57.123+00:00","date":"1985-04-21"`, expr, value)
	if previous != "" {
		r += `,"previousValue":` + previous
	}
	return []byte(r + "}")
}

func encode(t *testing.T, resp wireformat.Response) string {
	t.Helper()
	out, err := boundary.Encode(resp)
	require.NoError(t, err)
	return string(out)
}

func TestDispatch_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "now",
			raw:  `{"expression":".NOW.","value":{},"now":"1985-04-21T01:35:57.123+00:00","date":"1985-04-21"}`,
			want: `{"data":"1985-04-21T01:35:57.123Z"}`,
		},
		{
			name: "today",
			raw:  `{"expression":".TODAY.","value":{},"now":"1985-04-21T00:00:00Z","date":"1985-04-21"}`,
			want: `{"data":"1985-04-21"}`,
		},
		{
			name: "field comparison with previous value",
			raw:  string(request("ListPrice < LAST ListPrice", `{"ListPrice":100}`, `{"ListPrice":200}`)),
			want: `{"data":true}`,
		},
		{
			name: "null previous value is absent",
			raw:  string(request("LAST ListPrice = .EMPTY.", `{"ListPrice":100}`, `null`)),
			want: `{"data":true}`,
		},
		{
			name: "missing field evaluates to null",
			raw:  string(request("Missing", `{}`, "")),
			want: `{"data":null}`,
		},
		{
			name: "list result",
			raw:  string(request(`(1, "a")`, `null`, "")),
			want: `{"data":[1,"a"]}`,
		},
		{
			name: "large integers keep precision",
			raw:  string(request("Id + 1", `{"Id":9007199254740993}`, "")),
			want: `{"data":9007199254740994}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Dispatch([]byte(tt.raw))
			assert.Equal(t, tt.want, encode(t, resp))
		})
	}
}

func TestDispatch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		prefix string
		detail string
	}{
		{"invalid utf8", []byte{'{', 0xFF, '}'}, "Input is not valid utf8: ", "byte offset 1"},
		{"missing now", []byte(`{"expression":"a","value":{},"date":"1985-04-21"}`), "Input is not in the correct json format: ", `missing field "now"`},
		{"extra field", []byte(`{"expression":"a","value":{},"now":"1985-04-21T00:00:00Z","date":"1985-04-21","x":1}`), "Input is not in the correct json format: ", `unknown field "x"`},
		{"miscased fields", []byte(`{"Expression":".TODAY.","VALUE":{},"Now":"1985-04-21T00:00:00Z","DATE":"1985-04-21"}`), "Input is not in the correct json format: ", `unknown field "Expression"`},
		{"duplicate field", []byte(`{"expression":"1","expression":"2","value":{},"now":"1985-04-21T00:00:00Z","date":"1985-04-21"}`), "Input is not in the correct json format: ", `duplicate field "expression"`},
		{"not json", []byte(`expression=a`), "Input is not in the correct json format: ", "invalid character"},
		{"unbalanced expression", request("(1 + 2", `{}`, ""), "Failed to parse expression: ", "expected )"},
		{"empty expression", request("", `{}`, ""), "Failed to parse expression: ", "unexpected end of expression"},
		{"division by zero", request("1 / 0", `{}`, ""), "Failed to evaluate expression: ", "division by zero"},
		{"type mismatch", request(`Name + 1`, `{"Name":"x"}`, ""), "Failed to evaluate expression: ", "cannot apply +"},
		{"unknown special", request(".USERID.", `{}`, ""), "Failed to evaluate expression: ", ".USERID.: unknown function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Dispatch(tt.raw)
			require.True(t, resp.IsError())
			assert.Nil(t, resp.Data)
			assert.Contains(t, *resp.Error, tt.prefix)
			assert.Contains(t, *resp.Error, tt.detail)
			assert.True(t, len(*resp.Error) > len(tt.prefix))
			assert.Equal(t, tt.prefix, (*resp.Error)[:len(tt.prefix)])
		})
	}
}

func TestEvaluate_TypedErrors(t *testing.T) {
	_, err := Evaluate([]byte{0xC0})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	var boundaryErr *boundary.EncodingError
	assert.ErrorAs(t, err, &boundaryErr)

	_, err = Evaluate([]byte(`{}`))
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)

	_, err = Evaluate(request("a =", `{}`, ""))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	var syntaxErr *rcp19.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)

	_, err = Evaluate(request("NOPE()", `{}`, ""))
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.True(t, errors.Is(err, rcp19.ErrUnknownFunction))
}

func TestDispatch_IsDeterministic(t *testing.T) {
	raw := request(`IIF(.NOW. > "1985", (.TODAY., Doc), .EMPTY.)`, `{"Doc":{"z":1,"a":[true,null],"m":"x"}}`, `{"Doc":0}`)

	first := encode(t, Dispatch(raw))
	for range 5 {
		assert.Equal(t, first, encode(t, Dispatch(raw)))
	}
	assert.Equal(t, `{"data":["1985-04-21",{"a":[true,null],"m":"x","z":1}]}`, first)
}

func TestDispatch_LowercaseTimestamp(t *testing.T) {
	raw := []byte(`{"expression":".NOW.","value":{},"now":"1985-04-21t01:35:57.123z","date":"1985-04-21"}`)
	assert.Equal(t, `{"data":"1985-04-21T01:35:57.123Z"}`, encode(t, Dispatch(raw)))
}

func TestDispatch_UsesSuppliedTimeNotClock(t *testing.T) {
	raw := []byte(`{"expression":".NOW. || \" \" || .TODAY.","value":{},"now":"2001-02-03T04:05:06.789-08:00","date":"2001-02-02"}`)
	assert.Equal(t, `{"data":"2001-02-03T04:05:06.789-08:00 2001-02-02"}`, encode(t, Dispatch(raw)))
}

func TestDispatch_ExactlyOneKey(t *testing.T) {
	inputs := [][]byte{
		request("1", `{}`, ""),
		request("Missing", `{}`, ""),
		request("1 / 0", `{}`, ""),
		{0xFF},
	}
	for _, raw := range inputs {
		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(encode(t, Dispatch(raw))), &fields))
		assert.Len(t, fields, 1)
	}
}

type recordingEmitter struct {
	calls [][]byte
	err   error
}

func (e *recordingEmitter) Emit(buf []byte) error {
	e.calls = append(e.calls, append([]byte(nil), buf...))
	return e.err
}

func TestRun_EmitsOnce(t *testing.T) {
	emitter := &recordingEmitter{}
	require.NoError(t, Run(request(".TODAY.", `{}`, ""), emitter))

	require.Len(t, emitter.calls, 1)
	assert.Equal(t, `{"data":"1985-04-21"}`, string(emitter.calls[0]))
}

func TestRun_EmitsErrors(t *testing.T) {
	emitter := &recordingEmitter{}
	require.NoError(t, Run([]byte{0xFF}, emitter))

	require.Len(t, emitter.calls, 1)
	msg := testutil.AssertResponseError(t, "Input is not valid utf8: ", emitter.calls[0])
	assert.Contains(t, msg, "byte offset 0")
}

func TestRun_ReturnsEmitterError(t *testing.T) {
	emitter := &recordingEmitter{err: errors.New("host gone")}
	err := Run(request("1", `{}`, ""), emitter)
	assert.EqualError(t, err, "host gone")
	assert.Len(t, emitter.calls, 1)
}

func TestRun_RecoversPanic(t *testing.T) {
	orig := dispatchFn
	dispatchFn = func([]byte) wireformat.Response { panic("boom") }
	t.Cleanup(func() { dispatchFn = orig })

	emitter := &recordingEmitter{}
	require.NoError(t, Run(request("1", `{}`, ""), emitter))

	require.Len(t, emitter.calls, 1)
	assert.Equal(t, `{"error":"Evaluation panicked: boom"}`, string(emitter.calls[0]))
}
