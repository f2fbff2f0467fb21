package testutil

import "testing"

func TestParseObjdumpOutput(t *testing.T) {
	out := `
/tmp/jit-objdump-1.bin:     file format binary


Disassembly of section .data:

0000000000000000 <.data>:
   0:	mov    %rdi,%rax
   3:	add    $0x4,%rax
   7:	ret
`
	lines, err := parseObjdumpOutput(out)
	if err != nil {
		t.Fatalf("parseObjdumpOutput failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %+v", len(lines), lines)
	}

	VerifyExpectations(t, lines, []Expectation{
		{Name: "mov", Mnemonic: "mov", Contains: []string{"%rdi,%rax"}},
		{Name: "add", Mnemonic: "add", Contains: []string{"$0x4"}},
		{Name: "ret", Mnemonic: "ret"},
	})
	if lines[1].Offset != "3" {
		t.Fatalf("offset=%q, want 3", lines[1].Offset)
	}
}
