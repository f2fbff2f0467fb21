// Package jit lays out named functions back to back, encodes them into one
// contiguous buffer and maps that buffer as executable code.
package jit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/jit/internal/asm"
	"github.com/tinyrange/jit/internal/asm/amd64"
	"github.com/tinyrange/jit/internal/region"
)

var (
	ErrDuplicateFunction = errors.New("duplicate function")
	ErrBuilderFinished   = errors.New("function builder already finished")
	ErrLayoutMismatch    = errors.New("encoded size differs from layout")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrEmptyProgram      = errors.New("program has no code")
)

// Option configures a Program.
type Option func(*Program)

// WithLogger sets the logger used for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMapper sets the memory facility used by Materialize.
func WithMapper(m region.Mapper) Option {
	return func(p *Program) {
		if m != nil {
			p.mapper = m
		}
	}
}

// Program is an ordered table of functions. Functions are laid out in the
// order they were added; each starts where the previous one ends.
//
// A Program is not safe for concurrent use.
type Program struct {
	funcs  []*Function
	bases  []int
	index  map[string]int
	size   int
	logger *slog.Logger
	mapper region.Mapper
}

func New(opts ...Option) *Program {
	p := &Program{
		index:  make(map[string]int),
		logger: slog.Default(),
		mapper: region.System(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add appends fn to the layout.
func (p *Program) Add(fn *Function) error {
	if fn == nil {
		return fmt.Errorf("add function: nil function")
	}
	if fn.name == "" {
		return fmt.Errorf("add function: empty name")
	}
	if _, ok := p.index[fn.name]; ok {
		return fmt.Errorf("add %q: %w", fn.name, ErrDuplicateFunction)
	}

	base := p.size
	p.index[fn.name] = len(p.funcs)
	p.funcs = append(p.funcs, fn)
	p.bases = append(p.bases, base)
	p.size += fn.size

	p.logger.Debug("jit: function added",
		slog.String("name", fn.name),
		slog.Int("base", base),
		slog.Int("size", fn.size),
		slog.Int("ops", len(fn.ops)),
	)
	return nil
}

// Build runs body against a new builder for name and adds the result.
func (p *Program) Build(name string, body func(*FunctionBuilder)) error {
	b := NewFunction(name)
	body(b)
	fn, err := b.Finish()
	if err != nil {
		return err
	}
	return p.Add(fn)
}

func (p *Program) Find(name string) (*Function, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.funcs[i], true
}

// Offset returns the base offset of the named function.
func (p *Program) Offset(name string) (int, bool) {
	i, ok := p.index[name]
	if !ok {
		return 0, false
	}
	return p.bases[i], true
}

// Lookup implements asm.Symbols.
func (p *Program) Lookup(name string) (int, bool) { return p.Offset(name) }

// Functions returns the functions in layout order.
func (p *Program) Functions() []*Function { return append([]*Function(nil), p.funcs...) }

// Size is the total length of the laid out code.
func (p *Program) Size() int { return p.size }

// Line is one encoded operation within a program.
type Line struct {
	Function string
	Offset   int
	Code     []byte
	Op       asm.Op
	Labels   []string
}

// Listing encodes every operation at its final offset.
func (p *Program) Listing() ([]Line, error) {
	var lines []Line
	err := p.walk(func(l Line) {
		lines = append(lines, l)
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// walk encodes each function at its base and checks the result against the
// size measured when the function was built.
func (p *Program) walk(emit func(Line)) error {
	for i, fn := range p.funcs {
		base := p.bases[i]
		pos := 0
		labels := fn.labels
		for idx, op := range fn.ops {
			var names []string
			for len(labels) > 0 && labels[0].Index == idx {
				names = append(names, labels[0].Name)
				labels = labels[1:]
			}
			code, err := amd64.Encode(op, asm.Context{Offset: base + pos, Symbols: p})
			if err != nil {
				return fmt.Errorf("compile %q: %w", fn.name, err)
			}
			emit(Line{Function: fn.name, Offset: base + pos, Code: code, Op: op, Labels: names})
			pos += len(code)
		}
		if pos != fn.size {
			return fmt.Errorf("compile %q: %w (laid out %d bytes, encoded %d)", fn.name, ErrLayoutMismatch, fn.size, pos)
		}
	}
	return nil
}

// Compile encodes the whole program. No partial buffer is returned on error.
func (p *Program) Compile() (*Buffer, error) {
	code := make([]byte, 0, p.size)
	if err := p.walk(func(l Line) { code = append(code, l.Code...) }); err != nil {
		return nil, err
	}

	symbols := make([]Symbol, len(p.funcs))
	for i, fn := range p.funcs {
		symbols[i] = Symbol{Name: fn.name, Offset: p.bases[i], Size: fn.size}
	}

	p.logger.Debug("jit: program compiled",
		slog.Int("functions", len(p.funcs)),
		slog.Int("bytes", len(code)),
	)
	return &Buffer{code: code, symbols: symbols}, nil
}

// Materialize compiles the program into a fresh executable region. Every
// call produces an independent Executable.
func (p *Program) Materialize() (*Executable, error) {
	buf, err := p.Compile()
	if err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyProgram
	}

	r, err := region.Allocate(p.mapper, buf.Len())
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}
	if err := r.Load(buf.code); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("materialize: %w", err)
	}
	if err := r.MakeExecutable(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("materialize: %w", err)
	}

	p.logger.Debug("jit: program materialized",
		slog.Int("bytes", buf.Len()),
		slog.String("entry", fmt.Sprintf("%#x", r.Entry())),
	)
	return newExecutable(r, buf.symbols), nil
}
