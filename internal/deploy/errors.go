package deploy

import "fmt"

// Operation names carried by CommandError and used in log fields.
const (
	OpRedeploy = "redeploy"
	OpPrune    = "prune"
)

// NotFoundError reports a redeploy request for a name that is not in
// the registry.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no composition registered for '%s'", e.Name)
}

// CommandError reports an external command that started and ran to
// completion but exited non-zero. Both captured streams travel with
// the error so the failure can be diagnosed from logs.
type CommandError struct {
	Op       string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s command exited with status %d", e.Op, e.ExitCode)
}

// InProgressError reports that the per-name guard rejected a redeploy
// because one is already running for the same composition. Only
// returned when serialization is enabled.
type InProgressError struct {
	Name string
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("redeploy already in progress for '%s'", e.Name)
}
