package core

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"AutoBuild/config"
	"AutoBuild/lib/command"
	"AutoBuild/lib/types"
	"AutoBuild/log"
)

const quiet = 300 * time.Millisecond

type recordingNotifier struct {
	results chan command.Result
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{results: make(chan command.Result, 16)}
}

func (n *recordingNotifier) Notify(r command.Result) {
	n.results <- r
}

// expect waits for exactly count results and then checks nothing else arrives.
func (n *recordingNotifier) expect(t *testing.T, count int) []command.Result {
	t.Helper()
	var out []command.Result
	for len(out) < count {
		select {
		case r := <-n.results:
			out = append(out, r)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out after %d of %d executions", len(out), count)
		}
	}
	select {
	case r := <-n.results:
		t.Fatalf("unexpected extra execution %+v", r)
	case <-time.After(quiet):
	}
	return out
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resolvedTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolve temp dir: %v", err)
	}
	return dir
}

// moveIn creates name in a staging directory and renames it into dir, so the
// watched directory sees a single move-in.
func moveIn(t *testing.T, dir, name string) string {
	t.Helper()
	staging := t.TempDir()
	tmp := filepath.Join(staging, name)
	if err := os.WriteFile(tmp, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	target := filepath.Join(dir, name)
	if err := os.Rename(tmp, target); err != nil {
		t.Fatalf("rename %s: %v", name, err)
	}
	return target
}

type running struct {
	supervisor *Supervisor
	notifier   *recordingNotifier
	output     *syncBuffer
	cancel     context.CancelFunc
	done       chan error
}

func start(t *testing.T, cfg *config.Config, notifier *recordingNotifier) *running {
	t.Helper()
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = types.Duration(20 * time.Millisecond)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new supervisor: %v", err)
	}
	s.command.Stdout = io.Discard
	s.command.Stderr = io.Discard
	if notifier != nil {
		s.SetNotifier(notifier)
	}
	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	r := &running{supervisor: s, notifier: notifier, output: out, cancel: cancel, done: make(chan error, 1)}
	go func() {
		r.done <- s.RunWithContext(ctx, log.NewLogger(out, log.PlainFormatFunc))
		close(r.done)
	}()
	select {
	case <-s.Ready():
	case err := <-r.done:
		t.Fatalf("supervisor exited during startup: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("supervisor never became ready")
	}
	t.Cleanup(r.stop)
	return r
}

func (r *running) stop() {
	r.cancel()
	select {
	case <-r.done:
	case <-time.After(3 * time.Second):
	}
}

func TestExcludedAndIncludedFiles(t *testing.T) {
	root := resolvedTempDir(t)
	notifier := newRecordingNotifier()
	r := start(t, &config.Config{
		Listen:  []string{root},
		Exclude: []string{"*.tmp"},
		Command: []string{"echo", "built"},
		Workdir: t.TempDir(),
	}, notifier)

	moveIn(t, root, "file.tmp")
	moveIn(t, root, "file.c~")
	moveIn(t, root, ".#file.c")
	notifier.expect(t, 0)

	target := moveIn(t, root, "file.c")
	results := notifier.expect(t, 1)
	if results[0].ExitCode != 0 || !results[0].Success() {
		t.Fatalf("unexpected result %+v", results[0])
	}
	out := r.output.String()
	for _, want := range []string{
		"Listening on: " + root,
		"Excluding: *.tmp",
		"Will run: echo built",
		strings.Repeat("-", 60),
		target,
		"Running command: echo built",
		"Command execution successful",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "file.tmp") {
		t.Fatalf("excluded file reported:\n%s", out)
	}
}

func TestNestedCreateRunsOnceAndReadsRunNever(t *testing.T) {
	root := resolvedTempDir(t)
	for _, d := range []string{"a/b", "c"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	existing := filepath.Join(root, "c", "data.txt")
	if err := os.WriteFile(existing, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notifier := newRecordingNotifier()
	start(t, &config.Config{
		Listen:  []string{root},
		Command: []string{"true"},
		Workdir: t.TempDir(),
	}, notifier)

	if _, err := os.ReadFile(existing); err != nil {
		t.Fatalf("read: %v", err)
	}
	notifier.expect(t, 0)

	moveIn(t, filepath.Join(root, "a", "b"), "file.c")
	notifier.expect(t, 1)
}

func TestFailingCommandKeepsWatching(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	root := resolvedTempDir(t)
	notifier := newRecordingNotifier()
	r := start(t, &config.Config{
		Listen:  []string{root},
		Command: []string{sh, "-c", "exit 2"},
		Workdir: t.TempDir(),
	}, notifier)

	moveIn(t, root, "one.c")
	first := notifier.expect(t, 1)
	if first[0].ExitCode != 2 || first[0].Success() {
		t.Fatalf("unexpected result %+v", first[0])
	}
	moveIn(t, root, "two.c")
	notifier.expect(t, 1)
	if !strings.Contains(r.output.String(), "Command execution failed with code 2") {
		t.Fatalf("missing failure status:\n%s", r.output.String())
	}
}

func TestMissingNotifySendDoesNotBreakExecution(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	t.Setenv("PATH", t.TempDir())
	root := resolvedTempDir(t)
	r := start(t, &config.Config{
		Listen:  []string{root},
		Command: []string{echo, "built"},
		Workdir: t.TempDir(),
		Notify:  true,
	}, nil)

	moveIn(t, root, "file.c")
	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(r.output.String(), "Command execution successful") {
		if time.Now().After(deadline) {
			t.Fatalf("command never ran:\n%s", r.output.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(r.output.String(), "Program notify-send not found. Disabling notifications.") {
		t.Fatalf("missing warning:\n%s", r.output.String())
	}
}

func TestRunFirst(t *testing.T) {
	root := resolvedTempDir(t)
	notifier := newRecordingNotifier()
	start(t, &config.Config{
		Listen:   []string{root},
		Command:  []string{"true"},
		Workdir:  t.TempDir(),
		RunFirst: true,
	}, notifier)
	notifier.expect(t, 1)
}

func TestCancelStopsLoop(t *testing.T) {
	root := resolvedTempDir(t)
	r := start(t, &config.Config{
		Listen:  []string{root},
		Command: []string{"true"},
		Workdir: t.TempDir(),
	}, newRecordingNotifier())
	r.cancel()
	select {
	case err := <-r.done:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := New(&config.Config{Command: []string{"true"}}); err == nil {
		t.Fatal("expected error without listen paths")
	}
	if _, err := New(&config.Config{Listen: []string{t.TempDir()}, Command: []string{"true"}, Exclude: []string{"[x"}}); err == nil {
		t.Fatal("expected error for an invalid glob")
	}
}
