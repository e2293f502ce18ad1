package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	actor string
	calls []string
}

func (f *fakeExec) record(name string, args ...string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return nil
}

func (f *fakeExec) hasActor() bool { return f.actor != "" }
func (f *fakeExec) As(ctx context.Context, args []string) error {
	if len(args) > 0 {
		f.actor = args[0]
	}
	return f.record("as", args...)
}
func (f *fakeExec) OpenDrop(ctx context.Context) error            { return f.record("drop") }
func (f *fakeExec) Claim(ctx context.Context) error               { return f.record("claim") }
func (f *fakeExec) Balance(ctx context.Context) error             { return f.record("bal") }
func (f *fakeExec) Give(ctx context.Context, args []string) error { return f.record("give", args...) }
func (f *fakeExec) Adjust(ctx context.Context, sign int, args []string) error {
	return f.record(fmt.Sprintf("adjust%+d", sign), args...)
}
func (f *fakeExec) Daily(ctx context.Context) error                { return f.record("daily") }
func (f *fakeExec) Inventory(ctx context.Context) error            { return f.record("inv") }
func (f *fakeExec) Shop(ctx context.Context) error                 { return f.record("shop") }
func (f *fakeExec) Buy(ctx context.Context, args []string) error   { return f.record("buy", args...) }
func (f *fakeExec) Item(ctx context.Context, args []string) error  { return f.record("item", args...) }
func (f *fakeExec) Mint(ctx context.Context, args []string) error  { return f.record("mint", args...) }
func (f *fakeExec) Upload(ctx context.Context, args []string) error {
	return f.record("upload", args...)
}

func silence(t *testing.T) *[]string {
	t.Helper()
	var out []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silence(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"claim",
		"item 7",
		"as A",
		"claim",
		"give B 30 for lunch",
		"credit 5",
		"debit 2",
		"bal",
		"",
		"daily",
		"inv",
		"shop",
		"buy 3",
		"mint rare 10 1 2 Owl",
		"upload owl.png",
		"drop",
		"exit",
		"claim",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	want := []string{
		"item 7",
		"as A",
		"claim",
		"give B 30 for lunch",
		"adjust+1 5",
		"adjust-1 2",
		"bal",
		"daily",
		"inv",
		"shop",
		"buy 3",
		"mint rare 10 1 2 Owl",
		"upload owl.png",
		"drop",
	}
	if strings.Join(exec.calls, "|") != strings.Join(want, "|") {
		t.Fatalf("calls mismatch:\n got %v\nwant %v", exec.calls, want)
	}
}

func TestRunREPL_UnknownAndEOF(t *testing.T) {
	out := silence(t)

	exec := &fakeExec{actor: "A"}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("foobar\n")))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	found := false
	for _, line := range *out {
		if line == "Unknown command: foobar" {
			found = true
		}
	}
	if !found {
		t.Fatalf("unknown command not reported: %v", *out)
	}
}
