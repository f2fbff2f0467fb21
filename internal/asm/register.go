package asm

import (
	"fmt"
	"strings"
)

// Register is one of the sixteen logical registers an operation can name.
type Register uint8

const (
	R1 Register = iota
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	SP
	BP

	registerCount
)

var registerNames = [registerCount]string{
	R1:  "r1",
	R2:  "r2",
	R3:  "r3",
	R4:  "r4",
	R5:  "r5",
	R6:  "r6",
	R7:  "r7",
	R8:  "r8",
	R9:  "r9",
	R10: "r10",
	R11: "r11",
	R12: "r12",
	R13: "r13",
	R14: "r14",
	SP:  "sp",
	BP:  "bp",
}

func (r Register) Valid() bool {
	return r < registerCount
}

func (r Register) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Register(%d)", uint8(r))
	}
	return registerNames[r]
}

// Registers returns every logical register in declaration order.
func Registers() []Register {
	out := make([]Register, 0, registerCount)
	for r := R1; r < registerCount; r++ {
		out = append(out, r)
	}
	return out
}

// ParseRegister accepts the names produced by Register.String, case-insensitively.
func ParseRegister(s string) (Register, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for r, n := range registerNames {
		if n == name {
			return Register(r), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidRegister, s)
}
