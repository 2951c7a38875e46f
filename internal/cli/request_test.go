package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/evaluator/internal/testutil"
	"github.com/reglet-dev/evaluator/wireformat"
	"github.com/reglet-dev/evaluator/wireformat/schema"
)

var fixedClock = func() time.Time {
	return time.Date(1985, time.April, 21, 1, 35, 57, 123e6, time.FixedZone("", -7*3600))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRequestOptions_FromFlags(t *testing.T) {
	opts := requestOptions{
		Expression: "ListPrice < LAST ListPrice",
		Value:      `{"ListPrice": 100}`,
		Previous:   `{"ListPrice": 200}`,
	}
	raw, err := opts.build(fixedClock)
	require.NoError(t, err)
	require.NoError(t, schema.ValidateRequest(raw))

	req, err := wireformat.DecodeRequest(string(raw))
	require.NoError(t, err)
	assert.Equal(t, opts.Expression, req.Expression)
	testutil.AssertJSONEqual(t, opts.Value, string(req.Value))
	testutil.AssertJSONEqual(t, opts.Previous, string(req.PreviousValue))
	assert.True(t, req.Now.Equal(fixedClock()))
	assert.Equal(t, "1985-04-21", req.Date.String())
}

func TestRequestOptions_ExplicitTime(t *testing.T) {
	opts := requestOptions{
		Expression: ".TODAY.",
		Value:      `null`,
		Now:        "2001-02-03T04:05:06Z",
		Date:       "2001-02-02",
	}
	raw, err := opts.build(fixedClock)
	require.NoError(t, err)

	req, err := wireformat.DecodeRequest(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "2001-02-03T04:05:06Z", req.Now.Format(time.RFC3339))
	assert.Equal(t, "2001-02-02", req.Date.String())
	assert.False(t, req.HasPrevious())
}

func TestRequestOptions_DateFollowsNow(t *testing.T) {
	opts := requestOptions{Expression: "1", Value: "{}", Now: "2001-02-03T23:30:00-05:00"}
	raw, err := opts.build(fixedClock)
	require.NoError(t, err)

	req, err := wireformat.DecodeRequest(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "2001-02-03", req.Date.String())
}

func TestRequestOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts requestOptions
		msg  string
	}{
		{"invalid value", requestOptions{Expression: "1", Value: "{"}, "--value is not valid JSON"},
		{"invalid previous", requestOptions{Expression: "1", Value: "{}", Previous: "nope"}, "--previous is not valid JSON"},
		{"invalid now", requestOptions{Expression: "1", Value: "{}", Now: "yesterday"}, "invalid --now"},
		{"invalid date", requestOptions{Expression: "1", Value: "{}", Date: "21/04/1985"}, "invalid --date"},
		{"missing file", requestOptions{File: filepath.Join(t.TempDir(), "none.json")}, "failed to read request file"},
		{"unsupported extension", requestOptions{File: writeFile(t, "req.toml", "x = 1")}, "unsupported request file extension"},
		{"not an object", requestOptions{File: writeFile(t, "req.json", "[1]")}, "must contain an object"},
		{"bad yaml", requestOptions{File: writeFile(t, "req.yaml", "a: [1")}, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.build(fixedClock)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRequestOptions_YAMLFile(t *testing.T) {
	path := writeFile(t, "request.yaml", `
expression: Status = "Active" .AND. Beds >= 3
value:
  Status: Active
  Beds: 3
  Ratio: 0.5
  Tags: [pool, garage]
  Listed: 2024-01-31
  Note: ~
previousValue:
  Status: Pending
now: 1985-04-21T01:35:57.123Z
date: 1985-04-21
`)
	raw, err := requestOptions{File: path}.build(fixedClock)
	require.NoError(t, err)
	require.NoError(t, schema.ValidateRequest(raw))

	req, err := wireformat.DecodeRequest(string(raw))
	require.NoError(t, err)
	assert.Equal(t, `Status = "Active" .AND. Beds >= 3`, req.Expression)
	testutil.AssertJSONEqual(t,
		`{"Status":"Active","Beds":3,"Ratio":0.5,"Tags":["pool","garage"],"Listed":"2024-01-31","Note":null}`,
		string(req.Value))
	assert.True(t, req.HasPrevious())
	assert.Equal(t, "1985-04-21", req.Date.String())
	assert.Equal(t, "1985-04-21T01:35:57.123Z", req.Now.Format(time.RFC3339Nano))
}

func TestRequestOptions_FileFillsMissingTime(t *testing.T) {
	path := writeFile(t, "request.json", `{"expression":"Id + 1","value":{"Id":9007199254740993}}`)

	raw, err := requestOptions{File: path}.build(fixedClock)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	testutil.AssertMapContains(t, map[string]any{
		"expression": "Id + 1",
		"now":        "1985-04-21T01:35:57.123-07:00",
		"date":       "1985-04-21",
	}, fields)
	assert.Contains(t, string(raw), "9007199254740993")
}

func TestRequestOptions_FlagsOverrideFileTime(t *testing.T) {
	path := writeFile(t, "request.yml", "expression: .TODAY.\nvalue: {}\nnow: 1985-04-21T00:00:00Z\ndate: 1985-04-21\n")

	raw, err := requestOptions{File: path, Date: "1999-12-31"}.build(fixedClock)
	require.NoError(t, err)

	req, err := wireformat.DecodeRequest(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "1999-12-31", req.Date.String())
	assert.Equal(t, "1985-04-21T00:00:00Z", req.Now.Format(time.RFC3339))
}

func TestDecodeYAML_Anchors(t *testing.T) {
	doc, err := decodeYAML([]byte("base: &b {x: 1}\ncopy: *b\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"base": map[string]any{"x": 1},
		"copy": map[string]any{"x": 1},
	}, doc)
}

func TestDecodeYAML_Empty(t *testing.T) {
	_, err := decodeYAML(nil)
	assert.EqualError(t, err, "empty document")
}
