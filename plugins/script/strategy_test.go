package script

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// sleepExecutor pretends every command sleeps for d, honoring ctx.
func sleepExecutor(d time.Duration) Executor {
	return ExecutorFunc(func(ctx context.Context, cmd Command) (Output, error) {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case <-time.After(d):
			return Output{Stdout: "done"}, nil
		}
	})
}

func runScript(t *testing.T, ex Executor, strategyCfg map[string]any, entries ...probe.CollectorEntry) probe.Run {
	t.Helper()
	reg := probe.NewRegistry()
	if err := reg.RegisterStrategy(New(ex)); err != nil {
		t.Fatal(err)
	}
	for _, c := range []probe.Collector{Execute{}, Inline{}} {
		if err := reg.RegisterCollector(c); err != nil {
			t.Fatal(err)
		}
	}
	cfg := probe.Configuration{
		ID:         "script-1",
		StrategyID: ID,
		Config:     schema.Payload{Version: 1, Data: strategyCfg},
		Collectors: entries,
	}
	if err := reg.ValidateConfiguration(cfg); err != nil {
		t.Fatalf("ValidateConfiguration() error = %v", err)
	}
	run, err := probe.NewRunner(reg, probe.RunnerConfig{}).Run(context.Background(), cfg, "sys-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return run
}

func executeEntry(id, command string, args ...any) probe.CollectorEntry {
	return probe.CollectorEntry{
		ID:          id,
		CollectorID: "script.execute",
		Config:      schema.Payload{Version: 1, Data: map[string]any{"command": command, "args": args}},
	}
}

func TestStrategy_TimeoutKillsScript(t *testing.T) {
	start := time.Now()
	run := runScript(t, sleepExecutor(5*time.Second), map[string]any{"timeout": 1000}, executeEntry("sleep", "sleep", "5"))

	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("run took %v, want about 1s", elapsed)
	}
	if run.Status != health.StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", run.Status)
	}
	if !run.TimedOut {
		t.Error("TimedOut = false")
	}
	if !strings.Contains(run.Message, "timed out") {
		t.Errorf("Message = %q", run.Message)
	}
	if got := run.Collectors["sleep"].Values; len(got) != 1 || got["timedOut"] != true {
		t.Errorf("collector values = %v, want only timedOut", got)
	}
}

func TestStrategy_DefaultTimeout(t *testing.T) {
	if got := New(nil).DefaultTimeout(); got != 30*time.Second {
		t.Errorf("DefaultTimeout() = %v", got)
	}
}

func TestExecute_PassesCommand(t *testing.T) {
	var got Command
	ex := ExecutorFunc(func(ctx context.Context, cmd Command) (Output, error) {
		got = cmd
		return Output{Stdout: "ok\n", Stderr: "warn"}, nil
	})
	entry := executeEntry("check", "/usr/local/bin/check", "--fast", "db")
	entry.Config.Data["env"] = map[string]any{"B": "2", "A": "1"}
	entry.Config.Data["cwd"] = "/tmp"

	run := runScript(t, ex, map[string]any{}, entry)

	if run.Status != health.StatusHealthy {
		t.Fatalf("Status = %v (%s)", run.Status, run.Message)
	}
	if got.Path != "/usr/local/bin/check" || strings.Join(got.Args, " ") != "--fast db" {
		t.Errorf("command = %+v", got)
	}
	if strings.Join(got.Env, ",") != "A=1,B=2" || got.Dir != "/tmp" {
		t.Errorf("env/dir = %v %q", got.Env, got.Dir)
	}
	values := run.Collectors["check"].Values
	if _, ok := values["stdout"]; ok {
		t.Error("ephemeral stdout persisted")
	}
	if values["success"] != true {
		t.Errorf("values = %v", values)
	}
}

func TestInline_UsesShell(t *testing.T) {
	var got Command
	ex := ExecutorFunc(func(ctx context.Context, cmd Command) (Output, error) {
		got = cmd
		return Output{ExitCode: 2}, nil
	})
	entry := probe.CollectorEntry{
		ID:          "inline",
		CollectorID: "script.inline-script",
		Config:      schema.Payload{Version: 1, Data: map[string]any{"script": "test -f /etc/ready"}},
	}

	run := runScript(t, ex, map[string]any{"shell": "/bin/bash"}, entry)

	if got.Path != "/bin/bash" || strings.Join(got.Args, " ") != "-c test -f /etc/ready" {
		t.Errorf("command = %+v", got)
	}
	if run.Status != health.StatusUnhealthy || !strings.Contains(run.Message, "exited with code 2") {
		t.Errorf("Status = %v Message = %q", run.Status, run.Message)
	}
	if code, _ := run.Collectors["inline"].Values.Float("exitCode"); code != 2 {
		t.Errorf("exitCode = %v", code)
	}
}

func TestOSExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	ex := OSExecutor{}

	out, err := ex.Execute(context.Background(), Command{Path: "/bin/sh", Args: []string{"-c", "echo hi; exit 3"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.ExitCode != 3 || strings.TrimSpace(out.Stdout) != "hi" {
		t.Errorf("Output = %+v", out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = ex.Execute(ctx, Command{Path: "/bin/sh", Args: []string{"-c", "sleep 5"}})
	if err == nil {
		t.Error("Execute() error = nil after deadline")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("process not killed, took %v", elapsed)
	}
}

func TestLimitedBuffer(t *testing.T) {
	var b limitedBuffer
	chunk := strings.Repeat("x", maxOutput/2+1)
	for range 3 {
		if n, err := b.Write([]byte(chunk)); err != nil || n != len(chunk) {
			t.Fatalf("Write() = %d, %v", n, err)
		}
	}
	if len(b.String()) != maxOutput {
		t.Errorf("len = %d, want %d", len(b.String()), maxOutput)
	}
}
