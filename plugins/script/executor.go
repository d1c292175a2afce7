package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// maxOutput caps captured stdout and stderr.
const maxOutput = 64 << 10

// Command is one process invocation.
type Command struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// Output is a finished process.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs commands. Implementations must stop the process when ctx
// is done.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (Output, error)
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(ctx context.Context, cmd Command) (Output, error)

func (f ExecutorFunc) Execute(ctx context.Context, cmd Command) (Output, error) { return f(ctx, cmd) }

// OSExecutor runs commands with os/exec. A non-zero exit is reported in
// Output, not as an error.
type OSExecutor struct{}

func (OSExecutor) Execute(ctx context.Context, c Command) (Output, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.WaitDelay = time.Second

	var stdout, stderr limitedBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return out, ctx.Err()
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, err
	}
	return out, nil
}

// limitedBuffer keeps the first maxOutput bytes and discards the rest.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := maxOutput - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
