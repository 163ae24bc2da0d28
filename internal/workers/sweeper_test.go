package workers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dockhand/internal/composition"
	"dockhand/internal/deploy"
	"dockhand/pkg/cmdutil"
)

// stubRunner counts invocations per work directory and fails the
// directories listed in failDirs with a non-zero exit.
type stubRunner struct {
	mu       sync.Mutex
	calls    map[string]int
	failDirs map[string]bool
}

func newStubRunner(failDirs ...string) *stubRunner {
	fail := make(map[string]bool, len(failDirs))
	for _, dir := range failDirs {
		fail[dir] = true
	}
	return &stubRunner{
		calls:    make(map[string]int),
		failDirs: fail,
	}
}

func (s *stubRunner) Run(ctx context.Context, spec cmdutil.Spec) (*cmdutil.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[spec.Dir]++
	if s.failDirs[spec.Dir] {
		return &cmdutil.Result{ExitCode: 1, Stderr: "pull failed"}, nil
	}
	return &cmdutil.Result{ExitCode: 0}, nil
}

func (s *stubRunner) count(dir string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[dir]
}

func (s *stubRunner) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func workerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sweepFixture(interval time.Duration, runner cmdutil.Runner) (*Sweeper, *composition.Registry) {
	registry := composition.NewRegistry(map[string]composition.Composition{
		"app1": {Work: "/srv/app1"},
		"app2": {Work: "/srv/app2"},
		"app3": {Work: "/srv/app3"},
	})
	deployer := deploy.NewDeployer(registry, runner, workerTestLogger(), deploy.Options{})
	return NewSweeper(registry, deployer, interval, workerTestLogger()), registry
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestSweeper_SweepsAllCompositionsImmediately(t *testing.T) {
	runner := newStubRunner()
	// Interval long enough that only the immediate startup sweep runs
	sweeper, _ := sweepFixture(time.Hour, runner)

	sweeper.Start()
	defer sweeper.Stop()

	waitUntil(t, "the startup sweep", func() bool { return runner.total() == 3 })

	for _, dir := range []string{"/srv/app1", "/srv/app2", "/srv/app3"} {
		if runner.count(dir) != 1 {
			t.Errorf("count(%s) = %d, want 1", dir, runner.count(dir))
		}
	}
}

func TestSweeper_RepeatsEveryInterval(t *testing.T) {
	runner := newStubRunner()
	sweeper, _ := sweepFixture(20*time.Millisecond, runner)

	sweeper.Start()
	defer sweeper.Stop()

	waitUntil(t, "three full sweeps", func() bool {
		return runner.count("/srv/app1") >= 3 &&
			runner.count("/srv/app2") >= 3 &&
			runner.count("/srv/app3") >= 3
	})
}

func TestSweeper_FailureDoesNotStopSweep(t *testing.T) {
	// app2 fails mid-sweep; app3 sorts after it and must still run
	runner := newStubRunner("/srv/app2")
	sweeper, _ := sweepFixture(time.Hour, runner)

	sweeper.Start()
	defer sweeper.Stop()

	waitUntil(t, "the startup sweep", func() bool { return runner.total() == 3 })

	if runner.count("/srv/app3") != 1 {
		t.Errorf("count(app3) = %d, want 1 despite app2 failing", runner.count("/srv/app3"))
	}
}

func TestSweeper_DisabledWithoutInterval(t *testing.T) {
	runner := newStubRunner()
	sweeper, _ := sweepFixture(0, runner)

	sweeper.Start()
	time.Sleep(50 * time.Millisecond)

	if runner.total() != 0 {
		t.Errorf("Runner invoked %d times, want 0 when the sweep is disabled", runner.total())
	}

	// Stop on a disabled worker must not panic or hang
	sweeper.Stop()
}

func TestSweeper_StopTerminatesLoop(t *testing.T) {
	runner := newStubRunner()
	sweeper, _ := sweepFixture(10*time.Millisecond, runner)

	sweeper.Start()
	waitUntil(t, "at least one sweep", func() bool { return runner.total() >= 3 })

	sweeper.Stop()

	settled := runner.total()
	time.Sleep(50 * time.Millisecond)
	if runner.total() != settled {
		t.Errorf("Runner invoked after Stop: %d -> %d", settled, runner.total())
	}
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	runner := newStubRunner()
	sweeper, _ := sweepFixture(time.Second, runner)

	// Must return immediately without panicking
	sweeper.Stop()
}
