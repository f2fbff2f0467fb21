package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

const program = `
entry: add_four
functions:
  - name: add_four
    ops:
      - mov r1, r2
      - add r1, 4
      - call sub_four
  - name: sub_four
    ops:
      - "again:"
      - mov r1, r2
      - sub r1, 4
      - mul r1, 2
`

func writeProgram(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.yaml")
	if err := os.WriteFile(path, []byte(program), 0o644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	return path
}

func TestDump(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-dump", writeProgram(t)}, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v\n%s", err, stderr.String())
	}
	out := stdout.String()
	if out != ansi.Strip(out) {
		t.Fatal("listing to a non-terminal contains escape sequences")
	}
	for _, want := range []string{
		"00000000 add_four:",
		"0000000d sub_four:",
		"48 89 f8",
		"e8 01 00 00 00",
		"call sub_four",
		".again:",
		"2 functions,",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestRun(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("native execution requires linux/amd64")
	}
	var stdout, stderr bytes.Buffer
	if err := run([]string{writeProgram(t), "25"}, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v\n%s", err, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "42" {
		t.Fatalf("output=%q, want 42", got)
	}

	stdout.Reset()
	if err := run([]string{"-entry", "sub_four", writeProgram(t), "6"}, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "4" {
		t.Fatalf("output=%q, want 4", got)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-init", path}, &stdout, &stderr); err != nil {
		t.Fatalf("run -init failed: %v", err)
	}
	if err := run([]string{"-dump", path}, &stdout, &stderr); err != nil {
		t.Fatalf("dump of generated example failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "add_four") {
		t.Fatalf("unexpected listing:\n%s", stdout.String())
	}
}

func TestErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(nil, &stdout, &stderr); err == nil {
		t.Fatal("missing program accepted")
	}
	if err := run([]string{writeProgram(t), "x"}, &stdout, &stderr); err == nil {
		t.Fatal("non-integer argument accepted")
	}
	if _, err := parseArgs([]string{"-1", "0x10"}); err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
}
