// Package jit generates x86-64 machine code from a small set of register
// operations and runs it in place.
//
// Functions are built one at a time, laid out back to back in the order they
// are added and may call each other by name:
//
//	p := jit.New()
//	_ = p.Build("add_four", func(b *jit.FunctionBuilder) {
//		b.Op(jit.MovReg(jit.R1, jit.R2)).Op(jit.AddImm(jit.R1, 4))
//	})
//	exe, err := p.Materialize()
//	if err != nil {
//		return err
//	}
//	defer exe.Close()
//	r, err := exe.Call("add_four", 38)
//
// Arguments arrive in R2..R7 and the result is returned in R1.
package jit

import (
	"github.com/tinyrange/jit/internal/asm"
	"github.com/tinyrange/jit/internal/asm/amd64"
	ijit "github.com/tinyrange/jit/internal/jit"
	"github.com/tinyrange/jit/internal/region"
)

// -----------------------------------------------------------------------------
// Type Aliases
// -----------------------------------------------------------------------------

type (
	Register = asm.Register
	Op       = asm.Op
	OpKind   = asm.OpKind
	Width    = asm.Width

	Program         = ijit.Program
	Option          = ijit.Option
	Function        = ijit.Function
	FunctionBuilder = ijit.FunctionBuilder
	Label           = ijit.Label
	Buffer          = ijit.Buffer
	Symbol          = ijit.Symbol
	Line            = ijit.Line
	Executable      = ijit.Executable

	// Mapper is the memory facility used to create executable regions.
	Mapper = region.Mapper
	Func   = region.Func
)

// -----------------------------------------------------------------------------
// Registers
// -----------------------------------------------------------------------------

const (
	R1  = asm.R1
	R2  = asm.R2
	R3  = asm.R3
	R4  = asm.R4
	R5  = asm.R5
	R6  = asm.R6
	R7  = asm.R7
	R8  = asm.R8
	R9  = asm.R9
	R10 = asm.R10
	R11 = asm.R11
	R12 = asm.R12
	R13 = asm.R13
	R14 = asm.R14
	SP  = asm.SP
	BP  = asm.BP
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	ErrUnresolvedCallTarget      = asm.ErrUnresolvedCallTarget
	ErrUnsupportedImmediateWidth = asm.ErrUnsupportedImmediateWidth
	ErrInvalidRegister           = asm.ErrInvalidRegister
	ErrDivideByZero              = asm.ErrDivideByZero

	ErrDuplicateFunction = ijit.ErrDuplicateFunction
	ErrBuilderFinished   = ijit.ErrBuilderFinished
	ErrLayoutMismatch    = ijit.ErrLayoutMismatch
	ErrUnknownFunction   = ijit.ErrUnknownFunction
	ErrEmptyProgram      = ijit.ErrEmptyProgram

	// ErrMapping matches any failure of the operating system memory calls.
	ErrMapping = region.ErrMapping
	ErrClosed  = region.ErrClosed
)

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

// New returns an empty program. By default it logs through slog.Default and
// maps memory with mmap.
func New(opts ...Option) *Program { return ijit.New(opts...) }

var (
	WithLogger = ijit.WithLogger
	WithMapper = ijit.WithMapper
)

// NewFunction starts a standalone function to be passed to Program.Add.
func NewFunction(name string) *FunctionBuilder { return ijit.NewFunction(name) }

// SystemMapper returns the operating system Mapper.
func SystemMapper() Mapper { return region.System() }

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

var (
	AddImm = asm.AddImm
	SubImm = asm.SubImm
	MulImm = asm.MulImm
	MulReg = asm.MulReg
	DivImm = asm.DivImm
	DivReg = asm.DivReg
	MovReg = asm.MovReg
	MovImm = asm.MovImm
	Push   = asm.Push
	Pop    = asm.Pop
	Call   = asm.Call
	Ret    = asm.Ret
)

// ParseRegister reads a register name such as "r1" or "sp".
func ParseRegister(s string) (Register, error) { return asm.ParseRegister(s) }

// EncodedLen reports how many bytes op occupies once encoded.
func EncodedLen(op Op) (int, error) { return amd64.EncodedLen(op, asm.Context{}) }
