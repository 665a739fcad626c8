package rnx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry is the static lookup from tool name to descriptor plus the
// compiled argument schema for each tool. Built once at startup; read-only
// afterwards.
type Registry struct {
	tools   map[ToolID]ToolDescriptor
	schemas map[ToolID]*jsonschema.Schema
}

// NewRegistry compiles the built-in tool table. Compilation failures are
// programming errors in the table itself.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		tools:   make(map[ToolID]ToolDescriptor, len(toolTable)),
		schemas: make(map[ToolID]*jsonschema.Schema, len(toolTable)),
	}
	for _, d := range toolTable {
		if _, dup := r.tools[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %s in table", d.Name)
		}
		s, err := compileSchema(parametersSchema(d))
		if err != nil {
			return nil, fmt.Errorf("tool %s schema: %w", d.Name, err)
		}
		r.tools[d.Name] = d
		r.schemas[d.Name] = s
	}
	return r, nil
}

// Lookup returns the descriptor for name, or UnknownToolError.
func (r *Registry) Lookup(name string) (ToolDescriptor, error) {
	d, ok := r.tools[ToolID(name)]
	if !ok {
		return ToolDescriptor{}, &UnknownToolError{Name: name}
	}
	return d, nil
}

// Descriptors returns all descriptors sorted by tool name.
func (r *Registry) Descriptors() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks args against the tool's declared schema. Required
// arguments are checked first so the error names the missing field; the
// compiled schema then catches type mismatches and unknown arguments.
func (r *Registry) Validate(d ToolDescriptor, args map[string]any) error {
	for _, a := range d.Args {
		if !a.Required {
			continue
		}
		if _, ok := args[a.Name]; !ok {
			return &SchemaValidationError{Tool: string(d.Name), Field: a.Name}
		}
	}
	schema := r.schemas[d.Name]
	if schema == nil {
		return &UnknownToolError{Name: string(d.Name)}
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(normalizeForSchema(args)); err != nil {
		return &SchemaValidationError{Tool: string(d.Name), Detail: err.Error()}
	}
	return nil
}

func compileSchema(params map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", strings.NewReader(string(b))); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

// normalizeForSchema round-trips args through JSON so that typed Go values
// (int, []string, map[string]string) validate the same as values decoded
// from a wire request.
func normalizeForSchema(args map[string]any) any {
	b, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return args
	}
	return v
}
