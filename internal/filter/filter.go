// Package filter narrows JSON response bodies with JMESPath expressions.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Apply evaluates a JMESPath expression against a JSON body and returns the
// result as indented JSON. An empty expression returns body unchanged.
func Apply(body, expression string) (string, error) {
	if strings.TrimSpace(expression) == "" {
		return body, nil
	}

	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return "", fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return "", fmt.Errorf("JMESPath search failed: %w", err)
	}

	if result == nil {
		return "null", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// Chain applies each expression to the output of the previous one, e.g. a
// filter narrowing items followed by a query selecting fields
func Chain(body string, expressions ...string) (string, error) {
	result := body
	for i, expr := range expressions {
		out, err := Apply(result, expr)
		if err != nil {
			return "", fmt.Errorf("expression %d: %w", i+1, err)
		}
		result = out
	}
	return result, nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}
