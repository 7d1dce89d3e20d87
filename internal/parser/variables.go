package parser

import (
	"regexp"
	"strings"

	"github.com/studiowebux/apiprobe/internal/types"
)

var (
	// Variable placeholder pattern: {{varName}}. Names exclude braces so
	// "{{{name}}}" matches the innermost pair.
	varPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
)

// Substitute replaces every {{name}} found in env. Unknown placeholders are kept verbatim.
func Substitute(input string, env map[string]string) string {
	if len(env) == 0 || !strings.Contains(input, "{{") {
		return input
	}
	return varPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if value, ok := env[name]; ok {
			return value
		}
		return match
	})
}

// VariableResolver handles variable resolution for requests
type VariableResolver struct {
	// Variables are resolved in order: cliVars (highest) -> environment -> collection vars (lowest)
	collectionVars map[string]string
	environment    map[string]string
	cliVars        map[string]string // CLI vars from -e flag
	unresolved     []string
}

// NewVariableResolver creates a new variable resolver. Any map may be nil.
func NewVariableResolver(collectionVars, environment, cliVars map[string]string) *VariableResolver {
	if collectionVars == nil {
		collectionVars = make(map[string]string)
	}
	if environment == nil {
		environment = make(map[string]string)
	}
	if cliVars == nil {
		cliVars = make(map[string]string)
	}

	return &VariableResolver{
		collectionVars: collectionVars,
		environment:    environment,
		cliVars:        cliVars,
	}
}

// Merged flattens all layers into a single environment
func (vr *VariableResolver) Merged() types.Environment {
	merged := make(types.Environment, len(vr.collectionVars)+len(vr.environment)+len(vr.cliVars))
	for k, v := range vr.collectionVars {
		merged[k] = v
	}
	for k, v := range vr.environment {
		merged[k] = v
	}
	for k, v := range vr.cliVars {
		merged[k] = v
	}
	return merged
}

// GetUnresolvedVariables returns a list of variable names that couldn't be resolved
func (vr *VariableResolver) GetUnresolvedVariables() []string {
	seen := make(map[string]bool)
	unique := []string{}
	for _, v := range vr.unresolved {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}

// Resolve resolves {{varName}} placeholders in a string
func (vr *VariableResolver) Resolve(input string) string {
	return varPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := strings.TrimSpace(match[2 : len(match)-2])

		if value, ok := vr.cliVars[varName]; ok {
			return value
		}
		if value, ok := vr.environment[varName]; ok {
			return value
		}
		if value, ok := vr.collectionVars[varName]; ok {
			return value
		}

		vr.unresolved = append(vr.unresolved, varName)
		return match
	})
}

// ResolveRequest resolves the URL, enabled header values and body of a request.
// Disabled headers are copied untouched; the input is never modified.
func (vr *VariableResolver) ResolveRequest(req *types.Request) *types.Request {
	resolved := req.Clone()
	resolved.URL = vr.Resolve(req.URL)

	for i, h := range resolved.Headers {
		if !h.Enabled {
			continue
		}
		resolved.Headers[i].Value = vr.Resolve(h.Value)
	}

	if resolved.Body != nil {
		if resolved.Body.Raw != "" {
			resolved.Body.Raw = vr.Resolve(resolved.Body.Raw)
		}
		for i, f := range resolved.Body.Fields {
			if !f.Enabled {
				continue
			}
			resolved.Body.Fields[i].Value = vr.Resolve(f.Value)
		}
	}

	return &resolved
}

// ExtractVariableNames extracts all unique variable names from a string
// Returns variable names without the {{ }} brackets
func ExtractVariableNames(input string) []string {
	matches := varPattern.FindAllStringSubmatch(input, -1)
	seen := make(map[string]bool)
	var names []string
	for _, match := range matches {
		if len(match) > 1 {
			name := strings.TrimSpace(match[1])
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// ExtractRequestVariables extracts all unique variable names from a request
// Includes variables from URL, enabled headers, and body
func ExtractRequestVariables(req *types.Request) []string {
	seen := make(map[string]bool)
	var names []string

	addNames := func(vars []string) {
		for _, name := range vars {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	addNames(ExtractVariableNames(req.URL))

	for _, h := range req.Headers {
		if h.Enabled {
			addNames(ExtractVariableNames(h.Value))
		}
	}

	if req.Body != nil {
		addNames(ExtractVariableNames(req.Body.Raw))
		for _, f := range req.Body.Fields {
			if f.Enabled {
				addNames(ExtractVariableNames(f.Value))
			}
		}
	}

	return names
}

// ParseAssignments parses key=value pairs from the -e flag. A bare key maps to "".
func ParseAssignments(pairs []string) map[string]string {
	vars := make(map[string]string, len(pairs))
	for _, ev := range pairs {
		parts := strings.SplitN(ev, "=", 2)
		if len(parts) == 2 {
			vars[parts[0]] = parts[1]
		} else if parts[0] != "" {
			vars[parts[0]] = ""
		}
	}
	return vars
}
