package cmdutil

import (
	"context"
	"strings"
	"testing"
)

func TestExecRunnerRun(t *testing.T) {
	ctx := context.Background()
	runner := NewExecRunner()

	tests := []struct {
		name         string
		spec         Spec
		wantErr      bool
		wantExitCode int
	}{
		{
			"successful command",
			Spec{Command: "echo", Args: []string{"hello"}},
			false,
			0,
		},
		{
			"command with args",
			Spec{Command: "echo", Args: []string{"hello", "world"}},
			false,
			0,
		},
		{
			"command that exits non-zero",
			Spec{Command: "ls", Args: []string{"/nonexistent/directory/path"}},
			false,
			2,
		},
		{
			"empty command",
			Spec{},
			true,
			0,
		},
		{
			"executable that does not exist",
			Spec{Command: "/nonexistent/binary/path"},
			true,
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := runner.Run(ctx, tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if result != nil {
					t.Errorf("Run() returned result %+v alongside error", result)
				}
				return
			}
			if result == nil {
				t.Fatal("Run() returned nil result for completed command")
			}
			if result.Duration == 0 {
				t.Error("Run() did not record execution duration")
			}
			// GNU ls and BSD ls disagree on exact codes; only check
			// zero vs non-zero when a failure is expected.
			if tt.wantExitCode == 0 && result.ExitCode != 0 {
				t.Errorf("Run() ExitCode = %d, want 0", result.ExitCode)
			}
			if tt.wantExitCode != 0 && result.ExitCode == 0 {
				t.Error("Run() ExitCode = 0, want non-zero")
			}
		})
	}
}

func TestExecRunnerNonZeroExitIsNotAnError(t *testing.T) {
	ctx := context.Background()
	runner := NewExecRunner()

	result, err := runner.Run(ctx, Spec{Command: "sh", Args: []string{"-c", "exit 3"}})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for a command that ran", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("Run() ExitCode = %d, want 3", result.ExitCode)
	}
	if result.OK() {
		t.Error("Result.OK() = true for non-zero exit")
	}
}

func TestExecRunnerCapturesStreamsSeparately(t *testing.T) {
	ctx := context.Background()
	runner := NewExecRunner()

	result, err := runner.Run(ctx, Spec{
		Command: "sh",
		Args:    []string{"-c", "echo to-stdout; echo to-stderr 1>&2"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Stdout, "to-stdout") {
		t.Errorf("Stdout = %q, should contain %q", result.Stdout, "to-stdout")
	}
	if strings.Contains(result.Stdout, "to-stderr") {
		t.Errorf("Stdout = %q, should not contain stderr text", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "to-stderr") {
		t.Errorf("Stderr = %q, should contain %q", result.Stderr, "to-stderr")
	}
}

func TestExecRunnerWorkingDirectory(t *testing.T) {
	ctx := context.Background()
	runner := NewExecRunner()
	tmpDir := t.TempDir()

	result, err := runner.Run(ctx, Spec{Command: "pwd", Dir: tmpDir})
	if err != nil {
		t.Fatalf("Run() with Dir error = %v", err)
	}
	if strings.TrimSpace(result.Stdout) == "" {
		t.Error("Run() with Dir produced empty pwd output")
	}

	// A working directory that does not exist is a spawn failure, not
	// a non-zero exit.
	_, err = runner.Run(ctx, Spec{Command: "pwd", Dir: "/nonexistent/work/dir"})
	if err == nil {
		t.Error("Run() with missing Dir should return an error")
	}
}

func TestExecRunnerLossyOutputDecoding(t *testing.T) {
	ctx := context.Background()
	runner := NewExecRunner()

	// \377 is 0xFF, never valid in UTF-8.
	result, err := runner.Run(ctx, Spec{
		Command: "sh",
		Args:    []string{"-c", `printf 'a\377b'`},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stdout != "a�b" {
		t.Errorf("Stdout = %q, want invalid byte replaced with U+FFFD", result.Stdout)
	}
}

func TestParseCommandString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			"simple command",
			"docker compose up",
			[]string{"docker", "compose", "up"},
			false,
		},
		{
			"command with quoted argument",
			"docker compose -f \"my file.yml\" up",
			[]string{"docker", "compose", "-f", "my file.yml", "up"},
			false,
		},
		{
			"command with single quotes",
			"echo 'hello world'",
			[]string{"echo", "hello world"},
			false,
		},
		{
			"command with escaped quotes",
			"echo \"hello \\\"world\\\"\"",
			[]string{"echo", "hello \"world\""},
			false,
		},
		{
			"empty string",
			"",
			nil,
			true,
		},
		{
			"whitespace only",
			"   ",
			nil,
			true,
		},
		{
			"unterminated quote",
			"echo 'unterminated",
			nil,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommandString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCommandString() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !equalStringSlices(got, tt.want) {
				t.Errorf("ParseCommandString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  string
	}{
		{
			"simple command",
			[]string{"docker", "image", "prune"},
			"docker image prune",
		},
		{
			"command with spaces in argument",
			[]string{"docker", "compose", "-f", "my file.yml"},
			"docker compose -f 'my file.yml'",
		},
		{
			"empty command",
			[]string{},
			"<empty command>",
		},
		{
			"single command",
			[]string{"ls"},
			"ls",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCommand(tt.input)
			// The exact quoting format may vary, so just check it's not empty
			// and contains the command parts
			if len(tt.input) > 0 && !strings.Contains(got, tt.input[0]) {
				t.Errorf("FormatCommand() = %v, should contain %v", got, tt.input[0])
			}
			if len(tt.input) == 0 && got != "<empty command>" {
				t.Errorf("FormatCommand() = %v, want %v", got, "<empty command>")
			}
		})
	}
}

// Helper functions

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Benchmark tests

func BenchmarkExecRunnerRun(b *testing.B) {
	ctx := context.Background()
	runner := NewExecRunner()

	for i := 0; i < b.N; i++ {
		_, _ = runner.Run(ctx, Spec{Command: "echo", Args: []string{"test"}})
	}
}

func BenchmarkParseCommandString(b *testing.B) {
	cmd := "docker compose -f \"my file.yml\" up -d"

	for i := 0; i < b.N; i++ {
		_, _ = ParseCommandString(cmd)
	}
}

func BenchmarkFormatCommand(b *testing.B) {
	cmd := []string{"docker", "compose", "-f", "my file.yml", "up"}

	for i := 0; i < b.N; i++ {
		_ = FormatCommand(cmd)
	}
}
