package asm

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedCallTarget      = errors.New("unresolved call target")
	ErrUnsupportedImmediateWidth = errors.New("unsupported immediate width")
	ErrInvalidRegister           = errors.New("invalid register")
	ErrDivideByZero              = errors.New("division by zero")
)

// Width is the smallest unsigned width class an immediate fits in.
type Width uint8

const (
	Width8 Width = iota + 1
	Width16
	Width32
	Width64
)

func (w Width) String() string {
	switch w {
	case Width8:
		return "8-bit"
	case Width16:
		return "16-bit"
	case Width32:
		return "32-bit"
	case Width64:
		return "64-bit"
	default:
		return fmt.Sprintf("Width(%d)", uint8(w))
	}
}

// WidthOf classifies imm by successive range comparison.
func WidthOf(imm uint64) Width {
	switch {
	case imm <= 0xFF:
		return Width8
	case imm <= 0xFFFF:
		return Width16
	case imm <= 0xFFFFFFFF:
		return Width32
	default:
		return Width64
	}
}

// Symbols resolves a function name to its base offset in the final buffer.
type Symbols interface {
	Lookup(name string) (int, bool)
}

// Context is what an encoder needs to know about where an operation lands.
//
// Offset is the byte offset of the operation within the final buffer.
// A nil Symbols selects layout mode: call targets are not resolved and
// their displacement is emitted as zero, which keeps every length identical
// to the final encoding.
type Context struct {
	Offset  int
	Symbols Symbols
}

// Layout reports whether the context is used for sizing only.
func (c Context) Layout() bool {
	return c.Symbols == nil
}

// EncodeError records which operation failed to encode and where.
type EncodeError struct {
	Op     Op
	Offset int
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %q at offset %#x: %v", e.Op.String(), e.Offset, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
