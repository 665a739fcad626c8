package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jobletlabs/joblet-mcp/internal/rnx"
	"github.com/jobletlabs/joblet-mcp/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serve(os.Args[2:])
	case "call":
		call(os.Args[2:])
	case "tools":
		tools(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  joblet-mcp serve [--addr <host:port>] [--config <file.yaml>] [--rnx <path>] [--node <name>] [--log-level <level>]")
	fmt.Fprintln(os.Stderr, "  joblet-mcp call <tool> [--args <json>] [--wait] [--config <file.yaml>] [--rnx <path>] [--node <name>]")
	fmt.Fprintln(os.Stderr, "  joblet-mcp tools")
}

// commonFlags are shared by every subcommand and override the config file.
type commonFlags struct {
	configPath string
	binaryPath string
	nodeName   string
	logLevel   string
}

// parseCommon consumes recognized shared flags and returns the rest.
func parseCommon(args []string, cf *commonFlags) ([]string, error) {
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--config requires a value")
			}
			cf.configPath = args[i]
		case "--rnx":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--rnx requires a value")
			}
			cf.binaryPath = args[i]
		case "--node":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--node requires a value")
			}
			cf.nodeName = args[i]
		case "--log-level":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--log-level requires a value")
			}
			cf.logLevel = args[i]
		default:
			rest = append(rest, args[i])
		}
	}
	return rest, nil
}

func loadConfig(cf commonFlags) (rnx.Config, error) {
	cfg, err := rnx.LoadConfig(cf.configPath)
	if err != nil {
		return rnx.Config{}, err
	}
	if cf.binaryPath != "" {
		cfg.BinaryPath = cf.binaryPath
	}
	if cf.nodeName != "" {
		cfg.NodeName = cf.nodeName
	}
	if cf.logLevel != "" {
		cfg.LogLevel = cf.logLevel
	}
	return cfg, nil
}

func serve(args []string) {
	var cf commonFlags
	addr := ":8377"

	rest, err := parseCommon(args, &cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--addr":
			i++
			if i >= len(rest) {
				fmt.Fprintln(os.Stderr, "--addr requires a value")
				os.Exit(1)
			}
			addr = rest[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", rest[i])
			os.Exit(1)
		}
	}

	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client, err := rnx.NewClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv := server.New(server.Config{Addr: addr, MaxWait: cfg.PollMaxWait()}, client, cfg.Logger())
	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func call(args []string) {
	var cf commonFlags
	var argsJSON string
	var wait bool

	rest, err := parseCommon(args, &cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var toolName string
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--args":
			i++
			if i >= len(rest) {
				fmt.Fprintln(os.Stderr, "--args requires a value")
				os.Exit(1)
			}
			argsJSON = rest[i]
		case "--wait":
			wait = true
		default:
			if toolName != "" {
				fmt.Fprintf(os.Stderr, "unknown arg: %s\n", rest[i])
				os.Exit(1)
			}
			toolName = rest[i]
		}
	}
	if toolName == "" {
		usage()
		os.Exit(1)
	}

	toolArgs := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &toolArgs); err != nil {
			fmt.Fprintf(os.Stderr, "--args is not valid JSON: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client, err := rnx.NewClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := client.CallTool(ctx, toolName, toolArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printResult(res)

	if wait && toolName == string(rnx.ToolRunJob) {
		jobID, ok := rnx.JobIDFromRunResult(res)
		if !ok {
			fmt.Fprintln(os.Stderr, "run result carries no job id; cannot wait")
			os.Exit(1)
		}
		status, err := client.WaitForJob(ctx, jobID, cfg.PollInterval(), cfg.PollMaxWait())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("job %s: %s\n", jobID, status)
		if status != rnx.StatusCompleted {
			os.Exit(1)
		}
	}
}

func tools(args []string) {
	var cf commonFlags
	rest, err := parseCommon(args, &cf)
	if err != nil || len(rest) > 0 {
		usage()
		os.Exit(1)
	}
	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client, err := rnx.NewClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, d := range client.Descriptors() {
		fmt.Printf("%-28s %s\n", d.Name, d.Description)
	}
}

func printResult(res rnx.NormalizedResult) {
	switch res.Mode {
	case rnx.ParseJSON, rnx.ParseNDJSON:
		b, err := json.MarshalIndent(res.Value, "", "  ")
		if err != nil {
			fmt.Println(res.Text)
			return
		}
		fmt.Println(string(b))
	default:
		fmt.Print(res.Text)
	}
}
