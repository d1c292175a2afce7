// Package script runs local commands as health checks.
//
// The strategy only carries the shell and timeout; work is done by two
// collectors sharing its client: "script.execute" runs a command with
// arguments and "script.inline-script" runs a script body through the
// shell. A non-zero exit code is unhealthy. Processes are killed when
// their exec times out.
package script
