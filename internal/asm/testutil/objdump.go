package testutil

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// DisasmLine represents a single instruction line emitted by objdump.
type DisasmLine struct {
	Offset     string
	Text       string
	Normalized string
	Mnemonic   string
}

// Contains reports whether the normalized instruction text contains the provided substring.
func (l DisasmLine) Contains(substr string) bool {
	return strings.Contains(l.Normalized, substr)
}

// DisassembleX86 writes code to a raw image and disassembles it as x86-64
// with GNU objdump in AT&T syntax. The test is skipped when objdump is not
// installed or was built without x86 support.
func DisassembleX86(t *testing.T, code []byte, extraArgs ...string) []DisasmLine {
	t.Helper()
	args := []string{"-D", "--no-show-raw-insn", "-b", "binary", "-m", "i386:x86-64"}
	args = append(args, extraArgs...)
	return disassemble(t, "objdump", code, args...)
}

func disassemble(t *testing.T, tool string, code []byte, args ...string) []DisasmLine {
	t.Helper()

	toolPath, err := exec.LookPath(tool)
	if err != nil {
		t.Skipf("%s not found: %v", tool, err)
	}

	tmp, err := os.CreateTemp("", "jit-objdump-*.bin")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(code); err != nil {
		t.Fatalf("write temp image: %v", err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatalf("close temp image: %v", err)
	}

	cmdArgs := append([]string{}, args...)
	cmdArgs = append(cmdArgs, tmp.Name())
	output, err := exec.Command(toolPath, cmdArgs...).CombinedOutput()
	if err != nil {
		if strings.Contains(string(output), "can't use supplied machine") {
			t.Skipf("%s lacks x86-64 support", tool)
		}
		t.Fatalf("%s failed: %v\n\n%s", tool, err, output)
	}

	lines, err := parseObjdumpOutput(string(output))
	if err != nil {
		t.Fatalf("parse objdump output: %v", err)
	}
	if len(lines) == 0 {
		t.Fatalf("objdump produced no instructions:\n%s", output)
	}
	return lines
}

func parseObjdumpOutput(out string) ([]DisasmLine, error) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	var lines []DisasmLine
	for scanner.Scan() {
		line := scanner.Text()
		colon := strings.IndexRune(line, ':')
		if colon == -1 {
			continue
		}
		text := strings.TrimSpace(line[colon+1:])
		if text == "" || strings.HasPrefix(text, "<") {
			continue
		}
		if strings.HasPrefix(text, ".") || strings.HasPrefix(text, "file format") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, DisasmLine{
			Offset:     strings.TrimSpace(line[:colon]),
			Text:       text,
			Normalized: strings.Join(fields, " "),
			Mnemonic:   strings.ToLower(fields[0]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return lines, nil
}
