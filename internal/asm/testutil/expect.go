package testutil

import (
	"fmt"
	"strings"
	"testing"
)

// Expectation describes a single instruction that should appear in the
// disassembly output.
type Expectation struct {
	Name string
	// Mnemonic matches by prefix so that AT&T size suffixes ("retq",
	// "pushq") printed by older binutils are accepted.
	Mnemonic string
	Contains []string
}

func (e Expectation) match(line DisasmLine) error {
	if e.Mnemonic != "" && !strings.HasPrefix(line.Mnemonic, e.Mnemonic) {
		return fmt.Errorf("mnemonic=%s, want %s", line.Mnemonic, e.Mnemonic)
	}
	for _, needle := range e.Contains {
		if !line.Contains(needle) {
			return fmt.Errorf("missing %q in %q", needle, line.Normalized)
		}
	}
	return nil
}

// VerifyExpectations walks the objdump output and ensures each expectation is
// satisfied in order. The instruction counts must agree exactly: a synthesized
// sequence that grows an extra instruction is a regression.
func VerifyExpectations(t *testing.T, lines []DisasmLine, expect []Expectation) {
	t.Helper()
	if len(lines) != len(expect) {
		var dump strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&dump, "%s: %s\n", l.Offset, l.Normalized)
		}
		t.Fatalf("objdump returned %d instructions, want %d\n%s", len(lines), len(expect), dump.String())
	}
	for idx, exp := range expect {
		line := lines[idx]
		if err := exp.match(line); err != nil {
			t.Fatalf("instruction %q mismatch at line %d: %v\nline: %s", exp.Name, idx, err, line.Text)
		}
	}
}
