package display

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmespath/go-jmespath"
)

// MarshalPretty encodes v as two-space indented JSON.
func MarshalPretty(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteJSON writes v to w as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	out, err := MarshalPretty(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Filter applies a JMESPath expression to a decoded JSON value. An empty
// expression returns v unchanged.
func Filter(v any, expression string) (any, error) {
	if expression == "" {
		return v, nil
	}

	// Typed values are round-tripped so the search sees plain maps and slices.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for filtering: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("invalid JSON value: %w", err)
	}

	result, err := jmespath.Search(expression, generic)
	if err != nil {
		return nil, fmt.Errorf("invalid jmespath expression: %w", err)
	}
	return result, nil
}
