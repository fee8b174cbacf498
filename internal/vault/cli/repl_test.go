package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	unlocked bool
	failWith error

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }
func (f *fakeExec) Unlock(ctx context.Context) error {
	f.unlocked = true
	return f.record("unlock")
}
func (f *fakeExec) Lock(ctx context.Context) error {
	f.unlocked = false
	return f.record("lock")
}
func (f *fakeExec) Import(ctx context.Context, paths []string) error {
	return f.record("import " + strings.Join(paths, ","))
}
func (f *fakeExec) Today(ctx context.Context) error  { return f.record("today") }
func (f *fakeExec) Status(ctx context.Context) error { return f.record("status") }
func (f *fakeExec) View(ctx context.Context, id string) error {
	return f.record("view " + id)
}
func (f *fakeExec) Open(ctx context.Context, id string) error {
	return f.record("open " + id)
}
func (f *fakeExec) Delete(ctx context.Context, id string, confirmed bool) error {
	return f.record(fmt.Sprintf("delete %s %v", id, confirmed))
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_UnlockFlowAndCommands(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	lines := capturePrintln(t)

	input := strings.Join([]string{
		"help",
		"today",
		"unlock",
		"help",
		"",
		"today",
		"t",
		"view abc",
		"open abc",
		"delete abc",
		"import a.jpg b.mp4",
		"status",
		"view",
		"foobar",
		"lock",
		"status",
		"exit",
		"today",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "state" }, rdr(input))

	require.Equal(t, []string{
		"unlock",
		"today",
		"today",
		"view abc",
		"open abc",
		"delete abc false",
		"import a.jpg,b.mp4",
		"status",
		"lock",
	}, exec.calls)

	out := strings.Join(*lines, "\n")
	require.Contains(t, out, "dv (state)> ")
	require.Contains(t, out, "Available commands: unlock, exit")
	require.Contains(t, out, "Available commands: today, view <id>")
	require.Contains(t, out, "Vault is locked, type 'unlock' first")
	require.Contains(t, out, "Usage: view <id>")
	require.Contains(t, out, "Unknown command: foobar")
	require.Contains(t, out, "Bye!")
}

func TestRunREPL_ErrorsAreReportedAndLoopContinues(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	lines := capturePrintln(t)

	exec := &fakeExec{unlocked: true, failWith: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("today\nstatus\n"))

	require.Equal(t, []string{"today", "status"}, exec.calls)
	require.Contains(t, *lines, "Error: boom")
}

func TestRunREPL_EOFWithoutNewline(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{unlocked: true}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("status"))

	require.Equal(t, []string{"status"}, exec.calls)
}

func TestRunREPL_StopsWhenContextCanceled(t *testing.T) {
	capturePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{unlocked: true}
	runREPL(ctx, exec, func() string { return "" }, rdr("today\nstatus\n"))

	require.Equal(t, []string{"today"}, exec.calls)
}
