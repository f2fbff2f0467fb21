package jit

import (
	"fmt"

	"github.com/tinyrange/jit/internal/asm"
	"github.com/tinyrange/jit/internal/asm/amd64"
)

// Label marks a position inside a function. Labels are recorded for
// listings only; no operation can jump to them.
type Label struct {
	Name string
	// Index is the number of operations that precede the label.
	Index int
	// Offset is the byte offset of the label relative to the function start.
	Offset int
}

// Function is a finished, immutable sequence of operations ending in Ret.
type Function struct {
	name   string
	ops    []asm.Op
	labels []Label
	size   int
}

func (f *Function) Name() string { return f.name }
func (f *Function) Size() int    { return f.size }

// Ops returns a copy of the function body.
func (f *Function) Ops() []asm.Op { return append([]asm.Op(nil), f.ops...) }

// Labels returns a copy of the recorded labels.
func (f *Function) Labels() []Label { return append([]Label(nil), f.labels...) }

// FunctionBuilder accumulates operations for one function. Each operation
// is measured as it is appended, so the function size is known before
// any call target exists.
type FunctionBuilder struct {
	fn   Function
	err  error
	done bool
}

// NewFunction starts a function called name.
func NewFunction(name string) *FunctionBuilder {
	return &FunctionBuilder{fn: Function{name: name}}
}

// Op appends op. After the first error further operations are ignored and
// the error is reported by Finish.
func (b *FunctionBuilder) Op(op asm.Op) *FunctionBuilder {
	if b.done || b.err != nil {
		return b
	}
	n, err := amd64.EncodedLen(op, asm.Context{})
	if err != nil {
		b.err = fmt.Errorf("function %q op %d: %w", b.fn.name, len(b.fn.ops), err)
		return b
	}
	b.fn.ops = append(b.fn.ops, op)
	b.fn.size += n
	return b
}

func (b *FunctionBuilder) Ops(ops ...asm.Op) *FunctionBuilder {
	for _, op := range ops {
		b.Op(op)
	}
	return b
}

// Label records a named position before the next operation.
func (b *FunctionBuilder) Label(name string) *FunctionBuilder {
	if b.done || b.err != nil {
		return b
	}
	b.fn.labels = append(b.fn.labels, Label{Name: name, Index: len(b.fn.ops), Offset: b.fn.size})
	return b
}

// Finish appends the trailing Ret and returns the function. The builder
// cannot be used afterwards.
func (b *FunctionBuilder) Finish() (*Function, error) {
	if b.done {
		return nil, fmt.Errorf("function %q: %w", b.fn.name, ErrBuilderFinished)
	}
	b.Op(asm.Ret())
	b.done = true
	if b.err != nil {
		return nil, b.err
	}
	fn := b.fn
	return &fn, nil
}
