package amd64

import (
	"testing"

	"github.com/tinyrange/jit/internal/asm"
	"github.com/tinyrange/jit/internal/asm/testutil"
)

func encodeAll(t *testing.T, ops []asm.Op, symbols asm.Symbols) []byte {
	t.Helper()
	var code []byte
	for _, op := range ops {
		b, err := Encode(op, asm.Context{Offset: len(code), Symbols: symbols})
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", op, err)
		}
		code = append(code, b...)
	}
	return code
}

func TestObjdumpKitchenSink(t *testing.T) {
	ops := []asm.Op{
		asm.MovReg(asm.R1, asm.R2),
		asm.AddImm(asm.R1, 4),
		asm.SubImm(asm.R6, 1000000000),
		asm.MovImm(asm.R1, 1),
		asm.MovImm(asm.R7, 1000000000000),
		asm.Push(asm.R14),
		asm.Pop(asm.R14),
		asm.Call("start"),
		asm.Ret(),
	}
	code := encodeAll(t, ops, symbolMap{"start": 0})

	lines := testutil.DisassembleX86(t, code)
	testutil.VerifyExpectations(t, lines, []testutil.Expectation{
		{Name: "mov_reg", Mnemonic: "mov", Contains: []string{"%rdi,%rax"}},
		{Name: "add_imm8", Mnemonic: "add", Contains: []string{"$0x4,%rax"}},
		{Name: "sub_imm32", Mnemonic: "sub", Contains: []string{"$0x3b9aca00,%r8"}},
		{Name: "mov_imm32", Mnemonic: "mov", Contains: []string{"$0x1,%eax"}},
		{Name: "mov_imm64", Mnemonic: "movabs", Contains: []string{"$0xe8d4a51000,%r9"}},
		{Name: "push", Mnemonic: "push", Contains: []string{"%r15"}},
		{Name: "pop", Mnemonic: "pop", Contains: []string{"%r15"}},
		{Name: "call_backward", Mnemonic: "call", Contains: []string{"0x0"}},
		{Name: "ret", Mnemonic: "ret"},
	})
}

func TestObjdumpDivideSequence(t *testing.T) {
	code := encodeAll(t, []asm.Op{asm.DivReg(asm.R2, asm.R3)}, nil)

	lines := testutil.DisassembleX86(t, code)
	testutil.VerifyExpectations(t, lines, []testutil.Expectation{
		{Name: "save_rax", Mnemonic: "push", Contains: []string{"%rax"}},
		{Name: "save_rdx", Mnemonic: "push", Contains: []string{"%rdx"}},
		{Name: "save_rcx", Mnemonic: "push", Contains: []string{"%rcx"}},
		{Name: "load_dividend", Mnemonic: "mov", Contains: []string{"%rdi,%rax"}},
		{Name: "load_divisor", Mnemonic: "mov", Contains: []string{"%rsi,%rcx"}},
		{Name: "clear_high", Mnemonic: "xor", Contains: []string{"%edx,%edx"}},
		{Name: "div", Mnemonic: "div", Contains: []string{"%rcx"}},
		{Name: "store", Mnemonic: "mov", Contains: []string{"%rax,%rdi"}},
		{Name: "restore_rcx", Mnemonic: "pop", Contains: []string{"%rcx"}},
		{Name: "restore_rdx", Mnemonic: "pop", Contains: []string{"%rdx"}},
		{Name: "restore_rax", Mnemonic: "pop", Contains: []string{"%rax"}},
	})
}
