package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kballard/go-shellquote"
)

// Spec describes a single external command invocation.
type Spec struct {
	// Command is the executable to run.
	Command string

	// Args are the arguments passed to the executable.
	Args []string

	// Dir is the working directory for the command.
	// If empty, the command inherits the current directory.
	Dir string
}

// Result contains the outcome of a command that ran to completion.
type Result struct {
	// Stdout is the captured standard output. Invalid UTF-8 sequences
	// are replaced rather than causing failure.
	Stdout string

	// Stderr is the captured standard error, decoded the same way.
	Stderr string

	// ExitCode is the exit code of the command.
	ExitCode int

	// Duration is how long the command took to execute.
	Duration time.Duration
}

// OK reports whether the command exited with status zero.
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// Runner executes external commands. The single-method surface exists
// so tests can substitute a fake without spawning real processes.
type Runner interface {
	// Run spawns the command, waits for it to exit, and captures both
	// output streams. A non-nil error means the command could not be
	// started at all (executable missing, permission denied, bad
	// working directory). A command that started and exited non-zero
	// is not an error here: it returns a Result with a non-zero
	// ExitCode and a nil error.
	Run(ctx context.Context, spec Spec) (*Result, error)
}

// ExecRunner runs commands as real OS processes.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command described by spec and waits for completion.
// No timeout is applied; the invocation runs as long as the external
// tool needs.
func (e *ExecRunner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("starting %s: %w", spec.Command, err)
	}

	result := &Result{
		Stdout:   lossyString(stdout.Bytes()),
		Stderr:   lossyString(stderr.Bytes()),
		Duration: duration,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	return result, nil
}

// lossyString decodes b as UTF-8, replacing invalid byte sequences
// with the Unicode replacement character.
func lossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// ParseCommandString parses a shell-quoted command string into parts.
// This is useful when commands are configured as strings with proper
// quoting.
//
// Example:
//
//	"docker compose -f \"my file.yml\" up" -> ["docker", "compose", "-f", "my file.yml", "up"]
func ParseCommandString(cmdStr string) ([]string, error) {
	parts, err := shellquote.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command string: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command string")
	}
	return parts, nil
}

// FormatCommand formats command parts into a readable string for logging.
// Example: ["docker", "image", "prune", "-a"] -> "docker image prune -a"
func FormatCommand(cmdParts []string) string {
	if len(cmdParts) == 0 {
		return "<empty command>"
	}

	// Quote arguments that contain spaces or special characters
	quoted := make([]string, len(cmdParts))
	for i, part := range cmdParts {
		if strings.ContainsAny(part, " \t\n\"'") {
			quoted[i] = shellquote.Join(part)
		} else {
			quoted[i] = part
		}
	}

	return strings.Join(quoted, " ")
}
