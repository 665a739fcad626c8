package rnx

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-envparse"
)

// InvocationContext carries the per-process settings shared by every tool
// call: where the binary lives, which config/node it talks to, and whether
// structured output is requested. Constructed once, never mutated.
type InvocationContext struct {
	BinaryPath string
	ConfigFile string // optional; rnx discovers ~/.rnx/rnx-config.yml when empty
	NodeName   string
	JSONOutput bool
}

// BuildCommand maps a validated argument set onto an argv for the external
// binary. Token order is fixed: binary, sub-command path, global flags
// (--config when set, --node, --json), then tool arguments in the
// descriptor's declared order. The function is pure: identical inputs
// produce byte-identical output.
func BuildCommand(d ToolDescriptor, args map[string]any, ictx InvocationContext) ([]string, error) {
	argv := make([]string, 0, 8+2*len(args))
	argv = append(argv, ictx.BinaryPath)
	argv = append(argv, d.Subcommand...)

	if ictx.ConfigFile != "" {
		argv = append(argv, "--config", ictx.ConfigFile)
	}
	argv = append(argv, "--node", ictx.NodeName)
	if ictx.JSONOutput {
		argv = append(argv, "--json")
	}

	for _, a := range d.Args {
		v, ok := args[a.Name]
		if !ok {
			if a.Required {
				return nil, &SchemaValidationError{Tool: string(d.Name), Field: a.Name}
			}
			continue
		}
		tokens, err := renderArg(d, a, v)
		if err != nil {
			return nil, err
		}
		argv = append(argv, tokens...)
	}
	return argv, nil
}

func renderArg(d ToolDescriptor, a ArgSpec, v any) ([]string, error) {
	badArg := func(detail string) error {
		return &SchemaValidationError{Tool: string(d.Name), Field: a.Name, Detail: detail}
	}

	switch a.Kind {
	case KindVirtual:
		return nil, nil

	case KindPositional:
		s, err := renderScalar(v)
		if err != nil {
			return nil, badArg(err.Error())
		}
		return []string{s}, nil

	case KindPositionalList:
		items, err := stringSlice(v)
		if err != nil {
			return nil, badArg(err.Error())
		}
		return items, nil

	case KindFlag:
		s, err := renderScalar(v)
		if err != nil {
			return nil, badArg(err.Error())
		}
		return []string{a.Flag, s}, nil

	case KindBoolFlag:
		b, ok := v.(bool)
		if !ok {
			return nil, badArg(fmt.Sprintf("expected boolean, got %T", v))
		}
		if !b {
			return nil, nil
		}
		return []string{a.Flag}, nil

	case KindRepeatedFlag:
		items, err := stringSlice(v)
		if err != nil {
			return nil, badArg(err.Error())
		}
		tokens := make([]string, 0, 2*len(items))
		for _, it := range items {
			tokens = append(tokens, a.Flag, it)
		}
		return tokens, nil

	case KindMapFlag:
		m, err := stringMap(v)
		if err != nil {
			return nil, badArg(err.Error())
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tokens := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			tokens = append(tokens, a.Flag, k+"="+m[k])
		}
		return tokens, nil

	default:
		return nil, badArg(fmt.Sprintf("unhandled argument kind %d", a.Kind))
	}
}

// renderScalar renders a scalar argument value as its command-line token.
// Numbers use their decimal form; JSON decoding hands us float64 for what
// callers mean as integers, so whole floats render without a fraction.
func renderScalar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10), nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("expected scalar, got %T", v)
	}
}

func stringSlice(v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, err := renderScalar(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

func stringMap(v any) (map[string]string, error) {
	switch x := v.(type) {
	case map[string]string:
		return x, nil
	case map[string]any:
		out := make(map[string]string, len(x))
		for k, e := range x {
			s, err := renderScalar(e)
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected map, got %T", v)
	}
}

// expandArguments resolves the argument forms that need filesystem work
// before the pure build step: env_file entries are parsed and merged into
// environment (explicit environment keys win), and upload globs expand to
// concrete paths. Returns a fresh map; the caller's map is not mutated.
func expandArguments(d ToolDescriptor, args map[string]any) (map[string]any, error) {
	if d.Name != ToolRunJob {
		return args, nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}

	if raw, ok := out["env_file"]; ok {
		path, err := renderScalar(raw)
		if err != nil {
			return nil, &SchemaValidationError{Tool: string(d.Name), Field: "env_file", Detail: err.Error()}
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, &SchemaValidationError{Tool: string(d.Name), Field: "env_file", Detail: err.Error()}
		}
		parsed, err := envparse.Parse(f)
		f.Close()
		if err != nil {
			return nil, &SchemaValidationError{Tool: string(d.Name), Field: "env_file", Detail: err.Error()}
		}
		merged := make(map[string]string, len(parsed))
		for k, v := range parsed {
			merged[k] = v
		}
		if env, ok := out["environment"]; ok {
			m, err := stringMap(env)
			if err != nil {
				return nil, &SchemaValidationError{Tool: string(d.Name), Field: "environment", Detail: err.Error()}
			}
			for k, v := range m {
				merged[k] = v
			}
		}
		out["environment"] = merged
		delete(out, "env_file")
	}

	if raw, ok := out["uploads"]; ok {
		patterns, err := stringSlice(raw)
		if err != nil {
			return nil, &SchemaValidationError{Tool: string(d.Name), Field: "uploads", Detail: err.Error()}
		}
		var paths []string
		for _, p := range patterns {
			if !strings.ContainsAny(p, "*?[{") {
				paths = append(paths, p)
				continue
			}
			matches, err := doublestar.FilepathGlob(p)
			if err != nil {
				return nil, &SchemaValidationError{Tool: string(d.Name), Field: "uploads", Detail: err.Error()}
			}
			if len(matches) == 0 {
				return nil, &SchemaValidationError{Tool: string(d.Name), Field: "uploads", Detail: fmt.Sprintf("pattern %q matched no files", p)}
			}
			paths = append(paths, matches...)
		}
		out["uploads"] = paths
	}

	return out, nil
}
