package rnx

// ToolID identifies one operation exposed to a calling agent. The set is
// closed: every ID maps to exactly one descriptor in the table below, and
// lookups of anything else fail with UnknownToolError.
type ToolID string

const (
	ToolRunJob          ToolID = "joblet_run_job"
	ToolListJobs        ToolID = "joblet_list_jobs"
	ToolGetJobStatus    ToolID = "joblet_get_job_status"
	ToolGetJobLogs      ToolID = "joblet_get_job_logs"
	ToolStopJob         ToolID = "joblet_stop_job"
	ToolCancelJob       ToolID = "joblet_cancel_job"
	ToolDeleteJob       ToolID = "joblet_delete_job"
	ToolDeleteAllJobs   ToolID = "joblet_delete_all_jobs"
	ToolRunWorkflow     ToolID = "joblet_run_workflow"
	ToolCreateVolume    ToolID = "joblet_create_volume"
	ToolListVolumes     ToolID = "joblet_list_volumes"
	ToolRemoveVolume    ToolID = "joblet_remove_volume"
	ToolCreateNetwork   ToolID = "joblet_create_network"
	ToolListNetworks    ToolID = "joblet_list_networks"
	ToolRemoveNetwork   ToolID = "joblet_remove_network"
	ToolGetSystemStatus ToolID = "joblet_get_system_status"
	ToolGetSystemTop    ToolID = "joblet_get_system_metrics"
	ToolGetGPUStatus    ToolID = "joblet_get_gpu_status"
	ToolListNodes       ToolID = "joblet_list_nodes"
	ToolListRuntimes    ToolID = "joblet_list_runtimes"
	ToolInstallRuntime  ToolID = "joblet_install_runtime"
	ToolRemoveRuntime   ToolID = "joblet_remove_runtime"
)

// ArgKind determines how one argument is rendered onto the command line.
type ArgKind int

const (
	// KindPositional emits the value as a single bare token.
	KindPositional ArgKind = iota
	// KindPositionalList emits each element of a list as a bare token.
	KindPositionalList
	// KindFlag emits a flag/value token pair.
	KindFlag
	// KindBoolFlag emits the bare flag when the value is true, nothing
	// otherwise.
	KindBoolFlag
	// KindRepeatedFlag emits one flag/value pair per list element,
	// preserving caller order.
	KindRepeatedFlag
	// KindMapFlag emits one flag/KEY=VALUE pair per map entry, keys sorted
	// for determinism.
	KindMapFlag
	// KindVirtual is accepted by the schema but consumed during argument
	// expansion; it never emits tokens itself.
	KindVirtual
)

// ArgSpec declares one argument of a tool: its wire name, how it renders,
// and its JSON-schema type. Declaration order is emission order.
type ArgSpec struct {
	Name     string
	Flag     string // empty for positionals
	Kind     ArgKind
	Type     string // JSON-schema type: string, integer, boolean, array, object
	Required bool
	Desc     string
}

// ToolDescriptor is the static definition of one tool: its target
// sub-command path and ordered argument specs. Descriptors are immutable
// after process start.
type ToolDescriptor struct {
	Name        ToolID
	Description string
	Subcommand  []string
	Args        []ArgSpec
	// Structured declares the result contract: true means the binary is
	// expected to emit JSON on stdout and normalization attempts a
	// structured parse (with raw-text fallback); false means the output is
	// plain text and is returned verbatim.
	Structured bool
}

var jobUUIDArg = ArgSpec{
	Name: "job_uuid", Kind: KindPositional, Type: "string", Required: true,
	Desc: "job identifier; a unique prefix of the full UUID is accepted",
}

// toolTable is the single source of truth for the tool surface.
var toolTable = []ToolDescriptor{
	{
		Name:        ToolRunJob,
		Description: "Submit a command as a new job",
		Subcommand:  []string{"job", "run"},
		Structured:  true,
		Args: []ArgSpec{
			{Name: "command", Kind: KindPositional, Type: "string", Required: true, Desc: "executable to run"},
			{Name: "args", Kind: KindPositionalList, Type: "array", Desc: "arguments passed to the command"},
			{Name: "name", Flag: "--name", Kind: KindFlag, Type: "string", Desc: "human-readable job name"},
			{Name: "runtime", Flag: "--runtime", Kind: KindFlag, Type: "string", Desc: "pre-built runtime environment"},
			{Name: "network", Flag: "--network", Kind: KindFlag, Type: "string", Desc: "network to attach"},
			{Name: "schedule", Flag: "--schedule", Kind: KindFlag, Type: "string", Desc: "RFC3339 time to defer execution to"},
			{Name: "max_cpu", Flag: "--max-cpu", Kind: KindFlag, Type: "integer", Desc: "CPU limit in percent"},
			{Name: "max_memory", Flag: "--max-memory", Kind: KindFlag, Type: "integer", Desc: "memory limit in MB"},
			{Name: "max_io_read", Flag: "--max-io-read", Kind: KindFlag, Type: "integer", Desc: "read bandwidth limit in MB/s"},
			{Name: "max_io_write", Flag: "--max-io-write", Kind: KindFlag, Type: "integer", Desc: "write bandwidth limit in MB/s"},
			{Name: "gpus", Flag: "--gpus", Kind: KindFlag, Type: "integer", Desc: "number of GPUs to allocate"},
			{Name: "environment", Flag: "--env", Kind: KindMapFlag, Type: "object", Desc: "environment variables"},
			{Name: "secret_environment", Flag: "--secret-env", Kind: KindMapFlag, Type: "object", Desc: "environment variables hidden from job listings"},
			{Name: "volumes", Flag: "--volume", Kind: KindRepeatedFlag, Type: "array", Desc: "volume mounts, name:/path"},
			{Name: "uploads", Flag: "--upload", Kind: KindRepeatedFlag, Type: "array", Desc: "files to upload into the workspace; glob patterns are expanded"},
			{Name: "env_file", Kind: KindVirtual, Type: "string", Desc: "file of KEY=VALUE lines merged into environment"},
		},
	},
	{
		Name:        ToolListJobs,
		Description: "List all jobs",
		Subcommand:  []string{"job", "list"},
		Structured:  true,
	},
	{
		Name:        ToolGetJobStatus,
		Description: "Get the status and submission parameters of a job",
		Subcommand:  []string{"job", "status"},
		Structured:  true,
		Args:        []ArgSpec{jobUUIDArg},
	},
	{
		Name:        ToolGetJobLogs,
		Description: "Fetch the combined output of a job",
		Subcommand:  []string{"job", "log"},
		Args:        []ArgSpec{jobUUIDArg},
	},
	{
		Name:        ToolStopJob,
		Description: "Stop a running job",
		Subcommand:  []string{"job", "stop"},
		Args:        []ArgSpec{jobUUIDArg},
	},
	{
		Name:        ToolCancelJob,
		Description: "Cancel a scheduled job before it starts",
		Subcommand:  []string{"job", "cancel"},
		Args:        []ArgSpec{jobUUIDArg},
	},
	{
		Name:        ToolDeleteJob,
		Description: "Delete a job and its stored output",
		Subcommand:  []string{"job", "delete"},
		Args:        []ArgSpec{jobUUIDArg},
	},
	{
		Name:        ToolDeleteAllJobs,
		Description: "Delete all non-running jobs",
		Subcommand:  []string{"job", "delete-all"},
	},
	{
		Name:        ToolRunWorkflow,
		Description: "Submit a multi-job workflow from a YAML file",
		Subcommand:  []string{"job", "run"},
		Structured:  true,
		Args: []ArgSpec{
			{Name: "workflow_file", Flag: "--workflow", Kind: KindFlag, Type: "string", Required: true, Desc: "workflow YAML path"},
		},
	},
	{
		Name:        ToolCreateVolume,
		Description: "Create a storage volume",
		Subcommand:  []string{"volume", "create"},
		Args: []ArgSpec{
			{Name: "name", Kind: KindPositional, Type: "string", Required: true, Desc: "volume name"},
			{Name: "size", Flag: "--size", Kind: KindFlag, Type: "string", Required: true, Desc: "volume size, e.g. 1GB"},
			{Name: "type", Flag: "--type", Kind: KindFlag, Type: "string", Desc: "filesystem or memory"},
		},
	},
	{
		Name:        ToolListVolumes,
		Description: "List storage volumes",
		Subcommand:  []string{"volume", "list"},
		Structured:  true,
	},
	{
		Name:        ToolRemoveVolume,
		Description: "Remove a storage volume",
		Subcommand:  []string{"volume", "remove"},
		Args: []ArgSpec{
			{Name: "name", Kind: KindPositional, Type: "string", Required: true, Desc: "volume name"},
		},
	},
	{
		Name:        ToolCreateNetwork,
		Description: "Create an isolated network",
		Subcommand:  []string{"network", "create"},
		Args: []ArgSpec{
			{Name: "name", Kind: KindPositional, Type: "string", Required: true, Desc: "network name"},
			{Name: "cidr", Flag: "--cidr", Kind: KindFlag, Type: "string", Required: true, Desc: "network CIDR, e.g. 10.0.1.0/24"},
		},
	},
	{
		Name:        ToolListNetworks,
		Description: "List networks",
		Subcommand:  []string{"network", "list"},
		Structured:  true,
	},
	{
		Name:        ToolRemoveNetwork,
		Description: "Remove a network",
		Subcommand:  []string{"network", "remove"},
		Args: []ArgSpec{
			{Name: "name", Kind: KindPositional, Type: "string", Required: true, Desc: "network name"},
		},
	},
	{
		Name:        ToolGetSystemStatus,
		Description: "Get server host status",
		Subcommand:  []string{"monitor", "status"},
		Structured:  true,
	},
	{
		Name:        ToolGetSystemTop,
		Description: "Get live system metrics",
		Subcommand:  []string{"monitor", "top"},
		Structured:  true,
	},
	{
		Name:        ToolGetGPUStatus,
		Description: "Get GPU inventory and utilization",
		Subcommand:  []string{"monitor", "gpu"},
		Structured:  true,
	},
	{
		Name:        ToolListNodes,
		Description: "List configured nodes",
		Subcommand:  []string{"nodes"},
		Structured:  true,
	},
	{
		Name:        ToolListRuntimes,
		Description: "List available runtime environments",
		Subcommand:  []string{"runtime", "list"},
		Structured:  true,
	},
	{
		Name:        ToolInstallRuntime,
		Description: "Install a runtime environment",
		Subcommand:  []string{"runtime", "install"},
		Args: []ArgSpec{
			{Name: "runtime_spec", Kind: KindPositional, Type: "string", Required: true, Desc: "runtime spec, e.g. python:3.11"},
		},
	},
	{
		Name:        ToolRemoveRuntime,
		Description: "Remove an installed runtime environment",
		Subcommand:  []string{"runtime", "remove"},
		Args: []ArgSpec{
			{Name: "runtime", Kind: KindPositional, Type: "string", Required: true, Desc: "runtime name"},
		},
	},
}

// ParametersSchema returns the JSON-schema document describing this tool's
// arguments, as advertised to calling agents.
func (d ToolDescriptor) ParametersSchema() map[string]any {
	return parametersSchema(d)
}

// parametersSchema builds the JSON-schema document for a descriptor's
// arguments. Unknown argument names are rejected.
func parametersSchema(d ToolDescriptor) map[string]any {
	props := map[string]any{}
	var required []string
	for _, a := range d.Args {
		p := map[string]any{"type": a.Type}
		if a.Desc != "" {
			p["description"] = a.Desc
		}
		switch a.Type {
		case "array":
			p["items"] = map[string]any{"type": "string"}
		case "object":
			p["additionalProperties"] = map[string]any{"type": "string"}
		}
		props[a.Name] = p
		if a.Required {
			required = append(required, a.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
