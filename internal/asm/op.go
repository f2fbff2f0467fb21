package asm

import "fmt"

// OpKind tags the variant held by an Op.
type OpKind uint8

const (
	OpAddImm OpKind = iota
	OpSubImm
	OpMulImm
	OpMulReg
	OpDivImm
	OpDivReg
	OpMovReg
	OpMovImm
	OpPush
	OpPop
	OpCall
	OpRet
)

var opMnemonics = [...]string{
	OpAddImm: "add",
	OpSubImm: "sub",
	OpMulImm: "mul",
	OpMulReg: "mul",
	OpDivImm: "div",
	OpDivReg: "div",
	OpMovReg: "mov",
	OpMovImm: "mov",
	OpPush:   "push",
	OpPop:    "pop",
	OpCall:   "call",
	OpRet:    "ret",
}

// Mnemonic is the textual name shared by the register and immediate forms.
func (k OpKind) Mnemonic() string {
	if int(k) >= len(opMnemonics) {
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
	return opMnemonics[k]
}

// Op is a single abstract operation. The zero value is not meaningful;
// build ops with the constructors below. Ops are values and never change
// after construction.
type Op struct {
	kind   OpKind
	dst    Register
	src    Register
	imm    uint64
	target string
}

// AddImm adds imm to dst.
func AddImm(dst Register, imm uint64) Op { return Op{kind: OpAddImm, dst: dst, imm: imm} }

// SubImm subtracts imm from dst.
func SubImm(dst Register, imm uint64) Op { return Op{kind: OpSubImm, dst: dst, imm: imm} }

// MulImm multiplies dst by imm, keeping the low 64 bits.
func MulImm(dst Register, imm uint64) Op { return Op{kind: OpMulImm, dst: dst, imm: imm} }

// MulReg multiplies dst by src, keeping the low 64 bits.
func MulReg(dst, src Register) Op { return Op{kind: OpMulReg, dst: dst, src: src} }

// DivImm divides dst by imm (unsigned).
func DivImm(dst Register, imm uint64) Op { return Op{kind: OpDivImm, dst: dst, imm: imm} }

// DivReg divides dst by src (unsigned).
func DivReg(dst, src Register) Op { return Op{kind: OpDivReg, dst: dst, src: src} }

// MovReg copies src into dst.
func MovReg(dst, src Register) Op { return Op{kind: OpMovReg, dst: dst, src: src} }

// MovImm loads imm into dst.
func MovImm(dst Register, imm uint64) Op { return Op{kind: OpMovImm, dst: dst, imm: imm} }

func Push(reg Register) Op { return Op{kind: OpPush, dst: reg} }

func Pop(reg Register) Op { return Op{kind: OpPop, dst: reg} }

// Call calls the function named target. The name is resolved at encode time.
func Call(target string) Op { return Op{kind: OpCall, target: target} }

func Ret() Op { return Op{kind: OpRet} }

func (o Op) Kind() OpKind   { return o.kind }
func (o Op) Dst() Register  { return o.dst }
func (o Op) Src() Register  { return o.src }
func (o Op) Imm() uint64    { return o.imm }
func (o Op) Target() string { return o.target }

// HasDst reports whether the op names a destination (or sole) register.
func (o Op) HasDst() bool { return o.kind != OpCall && o.kind != OpRet }

// HasImm reports whether the op carries an immediate operand.
func (o Op) HasImm() bool {
	switch o.kind {
	case OpAddImm, OpSubImm, OpMulImm, OpDivImm, OpMovImm:
		return true
	}
	return false
}

// HasSrc reports whether the op reads a second register.
func (o Op) HasSrc() bool {
	switch o.kind {
	case OpMulReg, OpDivReg, OpMovReg:
		return true
	}
	return false
}

// String renders the op the way a listing shows it, e.g. "add r1, 4".
func (o Op) String() string {
	switch {
	case o.kind == OpRet:
		return "ret"
	case o.kind == OpCall:
		return "call " + o.target
	case o.kind == OpPush || o.kind == OpPop:
		return o.kind.Mnemonic() + " " + o.dst.String()
	case o.HasSrc():
		return fmt.Sprintf("%s %s, %s", o.kind.Mnemonic(), o.dst, o.src)
	case o.HasImm():
		return fmt.Sprintf("%s %s, %d", o.kind.Mnemonic(), o.dst, o.imm)
	default:
		return o.kind.Mnemonic()
	}
}
