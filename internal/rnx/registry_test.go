package rnx

import (
	"errors"
	"testing"
)

func TestRegistry_LookupUnknownTool(t *testing.T) {
	r := mustRegistry(t)
	_, err := r.Lookup("joblet_frob_job")
	var ut *UnknownToolError
	if !errors.As(err, &ut) {
		t.Fatalf("err = %v, want UnknownToolError", err)
	}
	if ut.Name != "joblet_frob_job" {
		t.Fatalf("name = %q", ut.Name)
	}
}

func TestRegistry_LookupKnownTools(t *testing.T) {
	r := mustRegistry(t)
	for _, name := range []ToolID{
		ToolRunJob, ToolListJobs, ToolGetJobStatus, ToolGetJobLogs,
		ToolStopJob, ToolCancelJob, ToolDeleteJob, ToolDeleteAllJobs,
		ToolRunWorkflow, ToolCreateVolume, ToolListVolumes, ToolRemoveVolume,
		ToolCreateNetwork, ToolListNetworks, ToolRemoveNetwork,
		ToolGetSystemStatus, ToolGetSystemTop, ToolGetGPUStatus,
		ToolListNodes, ToolListRuntimes, ToolInstallRuntime, ToolRemoveRuntime,
	} {
		d, err := r.Lookup(string(name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(d.Subcommand) == 0 {
			t.Fatalf("%s: empty subcommand path", name)
		}
	}
}

// Every required argument, omitted one at a time, must fail naming exactly
// the omitted field; the full argument set must pass.
func TestRegistry_RequiredArgumentEnforcement(t *testing.T) {
	r := mustRegistry(t)
	for _, d := range r.Descriptors() {
		full := synthArgs(d, false)
		if err := r.Validate(d, full); err != nil {
			t.Fatalf("%s: full args rejected: %v", d.Name, err)
		}
		for _, a := range d.Args {
			if !a.Required {
				continue
			}
			partial := synthArgs(d, false)
			delete(partial, a.Name)
			err := r.Validate(d, partial)
			var sv *SchemaValidationError
			if !errors.As(err, &sv) {
				t.Fatalf("%s: omitting %s: err = %v, want SchemaValidationError", d.Name, a.Name, err)
			}
			if sv.Field != a.Name {
				t.Fatalf("%s: omitting %s: error names %q", d.Name, a.Name, sv.Field)
			}
		}
	}
}

func TestRegistry_ValidateTypeMismatch(t *testing.T) {
	r := mustRegistry(t)
	d, _ := r.Lookup(string(ToolRunJob))
	err := r.Validate(d, map[string]any{
		"command": "echo",
		"max_cpu": "lots",
	})
	var sv *SchemaValidationError
	if !errors.As(err, &sv) {
		t.Fatalf("err = %v, want SchemaValidationError", err)
	}
}

func TestRegistry_ValidateRejectsUnknownArgument(t *testing.T) {
	r := mustRegistry(t)
	d, _ := r.Lookup(string(ToolListJobs))
	err := r.Validate(d, map[string]any{"verbose": true})
	var sv *SchemaValidationError
	if !errors.As(err, &sv) {
		t.Fatalf("err = %v, want SchemaValidationError", err)
	}
}

func TestRegistry_ValidateAcceptsWireDecodedValues(t *testing.T) {
	// Integers arrive as float64 after JSON decoding; lists as []any.
	r := mustRegistry(t)
	d, _ := r.Lookup(string(ToolRunJob))
	err := r.Validate(d, map[string]any{
		"command":     "echo",
		"args":        []any{"a", "b"},
		"max_cpu":     float64(25),
		"environment": map[string]any{"K": "V"},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRegistry_DescriptorsSorted(t *testing.T) {
	r := mustRegistry(t)
	descs := r.Descriptors()
	if len(descs) != 22 {
		t.Fatalf("descriptor count = %d", len(descs))
	}
	for i := 1; i < len(descs); i++ {
		if descs[i-1].Name >= descs[i].Name {
			t.Fatalf("descriptors not sorted at %d: %s >= %s", i, descs[i-1].Name, descs[i].Name)
		}
	}
}
