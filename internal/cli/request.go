package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/evaluator/timestate"
	"github.com/reglet-dev/evaluator/wireformat"
)

// requestOptions holds the flags a request is built from.
type requestOptions struct {
	Expression string
	Value      string
	Previous   string
	Now        string
	Date       string
	File       string
}

// build returns the request envelope as JSON. A request file is used as-is,
// except that missing now and date keys are filled from the flags or clock.
func (o requestOptions) build(clock func() time.Time) ([]byte, error) {
	now, date, err := o.snapshot(clock)
	if err != nil {
		return nil, err
	}
	if o.File != "" {
		return o.buildFromFile(now, date)
	}

	if !json.Valid([]byte(o.Value)) {
		return nil, fmt.Errorf("--value is not valid JSON")
	}
	req := wireformat.Request{
		Expression: o.Expression,
		Value:      json.RawMessage(o.Value),
		Now:        now,
		Date:       date,
	}
	if o.Previous != "" {
		if !json.Valid([]byte(o.Previous)) {
			return nil, fmt.Errorf("--previous is not valid JSON")
		}
		req.PreviousValue = json.RawMessage(o.Previous)
	}
	return json.Marshal(req)
}

// snapshot resolves the time fields. The date defaults to the calendar date
// of now in now's own location.
func (o requestOptions) snapshot(clock func() time.Time) (time.Time, timestate.Date, error) {
	now := clock()
	if o.Now != "" {
		parsed, err := time.Parse(time.RFC3339Nano, o.Now)
		if err != nil {
			return time.Time{}, timestate.Date{}, fmt.Errorf("invalid --now: %w", err)
		}
		now = parsed
	}
	date := timestate.DateOf(now)
	if o.Date != "" {
		parsed, err := timestate.ParseDate(o.Date)
		if err != nil {
			return time.Time{}, timestate.Date{}, fmt.Errorf("invalid --date: %w", err)
		}
		date = parsed
	}
	return now, date, nil
}

func (o requestOptions) buildFromFile(now time.Time, date timestate.Date) ([]byte, error) {
	data, err := os.ReadFile(o.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var doc any
	switch ext := strings.ToLower(filepath.Ext(o.File)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", o.File, err)
		}
	case ".yaml", ".yml":
		doc, err = decodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", o.File, err)
		}
	default:
		return nil, fmt.Errorf("unsupported request file extension %q: use .json, .yaml or .yml", ext)
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("request file %s must contain an object", o.File)
	}
	if _, ok := fields["now"]; !ok || o.Now != "" {
		fields["now"] = now.Format(time.RFC3339Nano)
	}
	if _, ok := fields["date"]; !ok || o.Date != "" {
		fields["date"] = date.String()
	}
	return json.Marshal(fields)
}

// decodeYAML converts a YAML document into the shapes encoding/json
// produces. Timestamps keep their source text so that dates are not
// widened into instants.
func decodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, errors.New("empty document")
	}
	return yamlValue(&root)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key.Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str", "!!timestamp", "!!binary":
			return n.Value, nil
		case "!!null":
			return nil, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
