package amd64

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tinyrange/jit/internal/asm"
)

// ModRM reg-field extensions for the opcode groups used here.
const (
	extAdd byte = 0
	extSub byte = 5
	extMul byte = 4
	extDiv byte = 6
)

const callSize = 5

type rexState struct {
	w bool
	r bool
	b bool
}

func (r rexState) prefix() byte {
	if !r.w && !r.r && !r.b {
		return 0
	}
	p := byte(0x40)
	if r.w {
		p |= 0x08
	}
	if r.r {
		p |= 0x04
	}
	if r.b {
		p |= 0x01
	}
	return p
}

// modrm builds a register-direct ModRM byte.
func modrm(reg, rm byte) byte {
	return 0xC0 | (reg&7)<<3 | rm&7
}

type encoder struct {
	ctx asm.Context
	buf []byte
}

func (e *encoder) emit(rex rexState, code ...byte) {
	if p := rex.prefix(); p != 0 {
		e.buf = append(e.buf, p)
	}
	e.buf = append(e.buf, code...)
}

func (e *encoder) emitUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) emitUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// movRegImm loads imm into dst. Up to 32 bits the short B8+r form is used,
// which zero-extends into the full register.
func (e *encoder) movRegImm(dst asm.Register, imm uint64) {
	info := regInfo(dst)
	if asm.WidthOf(imm) == asm.Width64 {
		e.emit(rexState{w: true, b: info.high}, 0xB8+info.code)
		e.emitUint64(imm)
		return
	}
	e.emit(rexState{b: info.high}, 0xB8+info.code)
	e.emitUint32(uint32(imm))
}

func (e *encoder) movRegReg(dst, src asm.Register) {
	dstInfo, srcInfo := regInfo(dst), regInfo(src)
	e.emit(rexState{w: true, r: srcInfo.high, b: dstInfo.high}, 0x89, modrm(srcInfo.code, dstInfo.code))
}

func (e *encoder) push(reg asm.Register) {
	info := regInfo(reg)
	e.emit(rexState{b: info.high}, 0x50+info.code)
}

func (e *encoder) pop(reg asm.Register) {
	info := regInfo(reg)
	e.emit(rexState{b: info.high}, 0x58+info.code)
}

// aluRegImm emits add or sub with an immediate. Both forms sign-extend
// their immediate, so the value must fit int8 or int32 respectively.
// The short form therefore ends at 0x7F rather than at the top of the
// 8-bit width class, and 32-bit class values from 0x80000000 up are
// rejected with ErrUnsupportedImmediateWidth like 64-bit ones. Both
// boundaries are intentional.
func (e *encoder) aluRegImm(ext byte, dst asm.Register, imm uint64) error {
	info := regInfo(dst)
	rex := rexState{w: true, b: info.high}
	switch {
	case imm <= math.MaxInt8:
		e.emit(rex, 0x83, modrm(ext, info.code), byte(imm))
	case imm <= math.MaxInt32:
		e.emit(rex, 0x81, modrm(ext, info.code))
		e.emitUint32(uint32(imm))
	default:
		return fmt.Errorf("%w: %s immediate %#x does not fit a sign-extended 32-bit field",
			asm.ErrUnsupportedImmediateWidth, asm.WidthOf(imm), imm)
	}
	return nil
}

// unary emits one member of the F7 group (mul, div) on reg.
func (e *encoder) unary(ext byte, reg asm.Register) {
	info := regInfo(reg)
	e.emit(rexState{w: true, b: info.high}, 0xF7, modrm(ext, info.code))
}

// zero clears reg with a 32-bit xor, which also clears the upper half.
func (e *encoder) zero(reg asm.Register) {
	info := regInfo(reg)
	e.emit(rexState{r: info.high, b: info.high}, 0x31, modrm(info.code, info.code))
}

func (e *encoder) xchg(a, b asm.Register) {
	aInfo, bInfo := regInfo(a), regInfo(b)
	e.emit(rexState{w: true, r: bInfo.high, b: aInfo.high}, 0x87, modrm(bInfo.code, aInfo.code))
}

// call emits a rel32 call. The displacement is relative to the end of the
// call instruction, whichever direction the target lies in.
func (e *encoder) call(target string) error {
	var rel int64
	if !e.ctx.Layout() {
		base, ok := e.ctx.Symbols.Lookup(target)
		if !ok {
			return fmt.Errorf("%w %q", asm.ErrUnresolvedCallTarget, target)
		}
		next := e.ctx.Offset + len(e.buf) + callSize
		rel = int64(base) - int64(next)
		if rel < math.MinInt32 || rel > math.MaxInt32 {
			return fmt.Errorf("call to %q: displacement %d out of rel32 range", target, rel)
		}
	}
	e.emit(rexState{}, 0xE8)
	e.emitUint32(uint32(int32(rel)))
	return nil
}

func (e *encoder) ret() {
	e.emit(rexState{}, 0xC3)
}
