// Package amd64 encodes asm operations into x86-64 machine code.
package amd64

import (
	"fmt"

	"github.com/tinyrange/jit/internal/asm"
)

// Encode returns the machine code for op when it is placed at ctx.Offset.
// On error no bytes are returned.
func Encode(op asm.Op, ctx asm.Context) ([]byte, error) {
	e := encoder{ctx: ctx, buf: make([]byte, 0, 16)}
	if err := e.encode(op); err != nil {
		return nil, &asm.EncodeError{Op: op, Offset: ctx.Offset, Err: err}
	}
	return e.buf, nil
}

// EncodedLen returns the number of bytes Encode produces for op. It runs
// the same routine as Encode so the two can never disagree.
func EncodedLen(op asm.Op, ctx asm.Context) (int, error) {
	code, err := Encode(op, ctx)
	if err != nil {
		return 0, err
	}
	return len(code), nil
}

func (e *encoder) encode(op asm.Op) error {
	if err := validate(op); err != nil {
		return err
	}

	switch op.Kind() {
	case asm.OpAddImm:
		return e.aluRegImm(extAdd, op.Dst(), op.Imm())
	case asm.OpSubImm:
		return e.aluRegImm(extSub, op.Dst(), op.Imm())
	case asm.OpMulReg:
		e.fixedOperand(mulForm, op.Dst(), op.Src())
	case asm.OpMulImm:
		e.fixedOperandImm(mulForm, op.Dst(), op.Imm())
	case asm.OpDivReg:
		e.fixedOperand(divForm, op.Dst(), op.Src())
	case asm.OpDivImm:
		if op.Imm() == 0 {
			return asm.ErrDivideByZero
		}
		e.fixedOperandImm(divForm, op.Dst(), op.Imm())
	case asm.OpMovReg:
		e.movRegReg(op.Dst(), op.Src())
	case asm.OpMovImm:
		e.movRegImm(op.Dst(), op.Imm())
	case asm.OpPush:
		e.push(op.Dst())
	case asm.OpPop:
		e.pop(op.Dst())
	case asm.OpCall:
		return e.call(op.Target())
	case asm.OpRet:
		e.ret()
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind())
	}
	return nil
}

func validate(op asm.Op) error {
	if op.HasDst() && !op.Dst().Valid() {
		return fmt.Errorf("%w: destination %s", asm.ErrInvalidRegister, op.Dst())
	}
	if op.HasSrc() && !op.Src().Valid() {
		return fmt.Errorf("%w: source %s", asm.ErrInvalidRegister, op.Src())
	}
	if fixedOperandOp(op.Kind()) {
		// The spill pushes move rsp before the operands are read.
		if op.Dst() == asm.SP || (op.HasSrc() && op.Src() == asm.SP) {
			return fmt.Errorf("%w: %s cannot be an operand of %s", asm.ErrInvalidRegister, asm.SP, op.Kind().Mnemonic())
		}
	}
	return nil
}

func fixedOperandOp(k asm.OpKind) bool {
	switch k {
	case asm.OpMulReg, asm.OpMulImm, asm.OpDivReg, asm.OpDivImm:
		return true
	}
	return false
}

// fixedForm describes a one-operand instruction whose other operands are
// bound to physical registers.
type fixedForm struct {
	ext      byte
	operand  asm.Register
	clobbers []asm.Register
	// zeroHigh clears Secondary before the instruction (div reads rdx:rax).
	zeroHigh bool
}

var (
	mulForm = fixedForm{
		ext:      extMul,
		operand:  Secondary,
		clobbers: []asm.Register{Accumulator, Secondary},
	}
	divForm = fixedForm{
		ext:      extDiv,
		operand:  Divisor,
		clobbers: []asm.Register{Accumulator, Secondary, Divisor},
		zeroHigh: true,
	}
)

// fixedOperand computes dst = dst <op> src for an instruction that only
// operates on fixed registers. Every fixed register other than dst is
// saved around the sequence, so only dst changes.
func (e *encoder) fixedOperand(f fixedForm, dst, src asm.Register) {
	saved := make([]asm.Register, 0, len(f.clobbers))
	for _, reg := range f.clobbers {
		if reg == dst {
			continue
		}
		e.push(reg)
		saved = append(saved, reg)
	}

	e.loadPair(dst, f.operand, src)
	if f.zeroHigh {
		e.zero(Secondary)
	}
	e.unary(f.ext, f.operand)
	if dst != Accumulator {
		e.movRegReg(dst, Accumulator)
	}

	for i := len(saved) - 1; i >= 0; i-- {
		e.pop(saved[i])
	}
}

func (e *encoder) fixedOperandImm(f fixedForm, dst asm.Register, imm uint64) {
	scratch := Scratch
	if dst == Scratch {
		scratch = ScratchAlt
	}
	e.push(scratch)
	e.movRegImm(scratch, imm)
	e.fixedOperand(f, dst, scratch)
	e.pop(scratch)
}

// loadPair sets Accumulator = dst and operand = src as if both moves
// happened at once.
func (e *encoder) loadPair(dst, operand, src asm.Register) {
	switch {
	case src == Accumulator && dst == operand:
		e.xchg(Accumulator, operand)
	case src == Accumulator:
		e.movRegReg(operand, Accumulator)
		if dst != Accumulator {
			e.movRegReg(Accumulator, dst)
		}
	default:
		if dst != Accumulator {
			e.movRegReg(Accumulator, dst)
		}
		if src != operand {
			e.movRegReg(operand, src)
		}
	}
}
