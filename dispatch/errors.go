package dispatch

// Each stage of a dispatch fails with its own error type. The Error text of
// each is the exact message placed in the response envelope.

// EncodingError reports request bytes that are not valid UTF-8.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return "Input is not valid utf8: " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// SchemaError reports request text that does not match the request
// envelope: malformed JSON, missing, extra or mistyped fields.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return "Input is not in the correct json format: " + e.Err.Error()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ParseError reports an expression that does not conform to the grammar.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "Failed to parse expression: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EvaluationError reports a parsed expression that failed against the
// supplied documents.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return "Failed to evaluate expression: " + e.Err.Error()
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
