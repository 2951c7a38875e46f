// Package schema generates JSON Schema documents for the wire envelopes and
// validates request documents against them. It is host-side tooling; the
// evaluator module itself never links it.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/evaluator/timestate"
	"github.com/reglet-dev/evaluator/wireformat"
)

const requestSchemaURL = "evaluator://request.schema.json"

var dateType = reflect.TypeOf(timestate.Date{})

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		ExpandedStruct: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == dateType {
				return &jsonschema.Schema{Type: "string", Format: "date"}
			}
			return nil
		},
	}
}

// anyDocument is the schema of an arbitrary JSON document.
func anyDocument(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Description: description}
}

// Request returns the JSON Schema of the request envelope.
func Request() *jsonschema.Schema {
	s := reflector().Reflect(&wireformat.Request{})
	s.Title = "Evaluation request"
	s.Properties.Set("value", anyDocument("Document the expression is evaluated against"))
	s.Properties.Set("previousValue", anyDocument("Previous version of the document, read by LAST"))
	if p, ok := s.Properties.Get("expression"); ok {
		p.Description = "RCP19 expression"
	}
	if p, ok := s.Properties.Get("now"); ok {
		p.Description = "Current instant with an explicit UTC offset"
	}
	// Struct tags override Mapper descriptions, so set it here.
	if p, ok := s.Properties.Get("date"); ok {
		p.Description = "Calendar date of the caller, YYYY-MM-DD"
	}
	return s
}

// Response returns the JSON Schema of the response envelope.
func Response() *jsonschema.Schema {
	s := &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                "Evaluation response",
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
		OneOf: []*jsonschema.Schema{
			{Required: []string{"data"}},
			{Required: []string{"error"}},
		},
	}
	s.Properties.Set("data", anyDocument("Result of a successful evaluation"))
	s.Properties.Set("error", &jsonschema.Schema{Type: "string", Description: "Reason the evaluation failed"})
	return s
}

// Generate marshals a schema as indented JSON.
func Generate(s *jsonschema.Schema) ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

var (
	compileOnce     sync.Once
	compiledRequest *sjsonschema.Schema
	compileErr      error
)

func compiledRequestSchema() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(Request())
		if err != nil {
			compileErr = fmt.Errorf("failed to marshal request schema: %w", err)
			return
		}
		compiler := sjsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(requestSchemaURL, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("failed to add request schema: %w", err)
			return
		}
		compiledRequest, compileErr = compiler.Compile(requestSchemaURL)
	})
	return compiledRequest, compileErr
}

// ValidateRequest checks a request document against the request schema.
// It is a host-side pre-flight; the module performs its own strict decoding.
func ValidateRequest(doc []byte) error {
	sch, err := compiledRequestSchema()
	if err != nil {
		return err
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("request is not valid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("request does not match schema: %w", err)
	}
	return nil
}
