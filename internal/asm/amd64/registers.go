package amd64

import "github.com/tinyrange/jit/internal/asm"

// Fixed roles within the register convention.
const (
	// Accumulator is the implicit source and destination of mul and div.
	Accumulator = asm.R1
	// Secondary is the explicit operand of mul and the high half of the div dividend.
	Secondary = asm.R4
	// Divisor holds the explicit operand of div.
	Divisor = asm.R5

	// Scratch materializes immediates for mul and div; ScratchAlt is used
	// when the destination is Scratch itself.
	Scratch    = asm.R9
	ScratchAlt = asm.R8
)

type registerCode struct {
	code byte
	high bool
	name string
}

var registerTable = [...]registerCode{
	asm.R1:  {code: 0, high: false, name: "rax"},
	asm.R2:  {code: 7, high: false, name: "rdi"},
	asm.R3:  {code: 6, high: false, name: "rsi"},
	asm.R4:  {code: 2, high: false, name: "rdx"},
	asm.R5:  {code: 1, high: false, name: "rcx"},
	asm.R6:  {code: 0, high: true, name: "r8"},
	asm.R7:  {code: 1, high: true, name: "r9"},
	asm.R8:  {code: 2, high: true, name: "r10"},
	asm.R9:  {code: 3, high: true, name: "r11"},
	asm.R10: {code: 3, high: false, name: "rbx"},
	asm.R11: {code: 4, high: true, name: "r12"},
	asm.R12: {code: 5, high: true, name: "r13"},
	asm.R13: {code: 6, high: true, name: "r14"},
	asm.R14: {code: 7, high: true, name: "r15"},
	asm.SP:  {code: 4, high: false, name: "rsp"},
	asm.BP:  {code: 5, high: false, name: "rbp"},
}

func regInfo(r asm.Register) registerCode {
	return registerTable[r]
}

// PhysicalIndex returns the 3-bit register number used in ModRM and
// register-coded opcodes.
func PhysicalIndex(r asm.Register) byte {
	return regInfo(r).code
}

// IsExtended reports whether r lives in r8-r15 and needs a REX bit.
func IsExtended(r asm.Register) bool {
	return regInfo(r).high
}

// PhysicalName returns the conventional x86-64 name, e.g. "rdi".
func PhysicalName(r asm.Register) string {
	return regInfo(r).name
}
