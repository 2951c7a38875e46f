// Package testutil provides assertions shared by the evaluator tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/evaluator/wireformat"
)

// DecodeJSON decodes a JSON document keeping numbers as json.Number.
func DecodeJSON(t *testing.T, doc string) any {
	t.Helper()

	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v), "invalid JSON: %s", doc)
	return v
}

// AssertJSONEqual compares two JSON documents, ignoring formatting and key
// order. Numbers are compared by their literal text.
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, DecodeJSON(t, expected), DecodeJSON(t, actual), msgAndArgs...)
}

// AssertMapContains asserts that a map contains all expected key-value pairs.
func AssertMapContains(t *testing.T, expectedMap, actualMap map[string]interface{}, msgAndArgs ...interface{}) {
	t.Helper()

	for key, expectedValue := range expectedMap {
		actualValue, ok := actualMap[key]
		assert.True(t, ok, "map should contain key %q", key)
		assert.Equal(t, expectedValue, actualValue, msgAndArgs...)
	}
}

// AssertResponseData asserts that raw is a success envelope whose data
// equals the JSON document want.
func AssertResponseData(t *testing.T, want string, raw []byte) {
	t.Helper()

	var resp wireformat.Response
	require.NoError(t, json.Unmarshal(raw, &resp), "malformed response: %s", raw)
	require.False(t, resp.IsError(), "unexpected error response: %s", raw)
	AssertJSONEqual(t, want, string(resp.Result()))
}

// AssertResponseError asserts that raw is an error envelope whose message
// starts with prefix, and returns the message.
func AssertResponseError(t *testing.T, prefix string, raw []byte) string {
	t.Helper()

	var resp wireformat.Response
	require.NoError(t, json.Unmarshal(raw, &resp), "malformed response: %s", raw)
	require.True(t, resp.IsError(), "expected an error response: %s", raw)
	assert.Truef(t, strings.HasPrefix(*resp.Error, prefix), "error %q should start with %q", *resp.Error, prefix)
	return *resp.Error
}
