package jit

import (
	"fmt"

	"github.com/tinyrange/jit/internal/region"
)

// Symbol locates one function inside a compiled buffer.
type Symbol struct {
	Name   string
	Offset int
	Size   int
}

// Buffer is the encoded program. It never changes after Compile returns.
type Buffer struct {
	code    []byte
	symbols []Symbol
}

// Bytes returns a copy of the machine code.
func (b *Buffer) Bytes() []byte { return append([]byte(nil), b.code...) }

func (b *Buffer) Len() int { return len(b.code) }

// Symbols returns the function table in layout order.
func (b *Buffer) Symbols() []Symbol { return append([]Symbol(nil), b.symbols...) }

func (b *Buffer) Symbol(name string) (Symbol, bool) {
	return findSymbol(b.symbols, name)
}

func findSymbol(symbols []Symbol, name string) (Symbol, bool) {
	for _, s := range symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// Executable owns the region holding a materialized program. Close it once
// every call has returned.
type Executable struct {
	region  *region.Region
	symbols []Symbol
}

func newExecutable(r *region.Region, symbols []Symbol) *Executable {
	return &Executable{region: r, symbols: symbols}
}

func (e *Executable) Symbols() []Symbol { return append([]Symbol(nil), e.symbols...) }

// Region exposes the underlying mapping, mainly for inspection.
func (e *Executable) Region() *region.Region { return e.region }

// Entry returns the address of the named function.
func (e *Executable) Entry(name string) (uintptr, error) {
	sym, ok := findSymbol(e.symbols, name)
	if !ok {
		return 0, fmt.Errorf("entry %q: %w", name, ErrUnknownFunction)
	}
	return e.region.Addr(sym.Offset)
}

// Func returns a callable handle for the named function.
func (e *Executable) Func(name string) (region.Func, error) {
	sym, ok := findSymbol(e.symbols, name)
	if !ok {
		return region.Func{}, fmt.Errorf("func %q: %w", name, ErrUnknownFunction)
	}
	return e.region.Func(sym.Offset)
}

// Call runs the named function with integer arguments passed in R2..R7 and
// returns R1.
func (e *Executable) Call(name string, args ...uintptr) (uintptr, error) {
	fn, err := e.Func(name)
	if err != nil {
		return 0, err
	}
	return fn.Call(args...)
}

// Bind points fptr, a pointer to a func variable, at the named function.
// Calling the bound function after Close panics with an error wrapping
// region.ErrClosed.
func (e *Executable) Bind(name string, fptr any) error {
	fn, err := e.Func(name)
	if err != nil {
		return err
	}
	return fn.Bind(fptr)
}

func (e *Executable) Close() error {
	return e.region.Close()
}
