package rnx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobletlabs/joblet-mcp/internal/procutil"
)

func testExecutor() *Executor {
	return NewExecutor(zerolog.Nop())
}

func TestExecutor_CapturesOutputAndExitCode(t *testing.T) {
	script := writeScript(t, t.TempDir(), "ok.sh",
		"echo 'to stdout'\necho 'to stderr' >&2\nexit 0\n")
	res, err := testExecutor().Run(context.Background(), []string{script}, time.Second)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "to stdout" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "to stderr" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestExecutor_NonzeroExitIsDataNotError(t *testing.T) {
	script := writeScript(t, t.TempDir(), "fail.sh",
		"echo 'Error: Job not found' >&2\nexit 1\n")
	res, err := testExecutor().Run(context.Background(), []string{script}, time.Second)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit = %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stderr) != "Error: Job not found" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestExecutor_BinaryNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "rnx-is-not-here")
	_, err := testExecutor().Run(context.Background(), []string{missing}, time.Second)
	var nf *BinaryNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want BinaryNotFoundError", err)
	}
	if nf.Path != missing {
		t.Fatalf("path = %q", nf.Path)
	}
}

func TestExecutor_TimeoutKillsProcessTree(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "pid")
	script := writeScript(t, dir, "slow.sh",
		fmt.Sprintf("echo $$ > %s\nsleep 30\n", pidFile))

	start := time.Now()
	_, err := testExecutor().Run(context.Background(), []string{script}, 100*time.Millisecond)
	var te *ExecutionTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want ExecutionTimeoutError", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("run held for %s after timeout", elapsed)
	}

	pid := readPIDFile(t, pidFile)
	waitForDeath(t, pid)
}

func TestExecutor_CallerCancellationReapsProcess(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "pid")
	script := writeScript(t, dir, "slow.sh",
		fmt.Sprintf("echo $$ > %s\nsleep 30\n", pidFile))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := testExecutor().Run(ctx, []string{script}, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	pid := readPIDFile(t, pidFile)
	waitForDeath(t, pid)
}

func TestExecutor_EmptyCommand(t *testing.T) {
	if _, err := testExecutor().Run(context.Background(), nil, time.Second); err == nil {
		t.Fatal("empty command accepted")
	}
}

func readPIDFile(t *testing.T, path string) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b, err := os.ReadFile(path)
		if err == nil && len(b) > 0 {
			pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
			if err == nil {
				return pid
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("pid file %s never appeared", path)
	return 0
}

func waitForDeath(t *testing.T, pid int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !procutil.Alive(pid) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("pid %d still alive after kill", pid)
}
