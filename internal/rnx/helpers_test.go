package rnx

import (
	"os"
	"path/filepath"
	"testing"
)

func testContext() InvocationContext {
	return InvocationContext{
		BinaryPath: "/usr/local/bin/rnx",
		ConfigFile: "/test/config.yaml",
		NodeName:   "test-node",
		JSONOutput: true,
	}
}

// synthArgs builds a valid argument map for a descriptor, covering every
// declared argument unless requiredOnly is set.
func synthArgs(d ToolDescriptor, requiredOnly bool) map[string]any {
	args := map[string]any{}
	for _, a := range d.Args {
		if requiredOnly && !a.Required {
			continue
		}
		if a.Kind == KindVirtual {
			// Needs a real file; exercised separately.
			continue
		}
		switch a.Type {
		case "integer":
			args[a.Name] = 7
		case "boolean":
			args[a.Name] = true
		case "array":
			args[a.Name] = []string{"one", "two"}
		case "object":
			args[a.Name] = map[string]string{"K": "V"}
		default:
			args[a.Name] = "value-" + a.Name
		}
	}
	return args
}

// writeScript drops an executable shell script into dir and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func indexOf(tokens []string, want string) int {
	for i, tok := range tokens {
		if tok == want {
			return i
		}
	}
	return -1
}
