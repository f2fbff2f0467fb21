// Package progfile reads program descriptions written in YAML.
//
//	version: 1
//	entry: add_four
//	functions:
//	  - name: add_four
//	    ops:
//	      - mov r1, r2
//	      - "body:"
//	      - add r1, 4
//
// An entry ending in a colon records a label at that position; it must be
// quoted so YAML does not read it as a mapping.
package progfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tinyrange/jit/internal/asm"
	"github.com/tinyrange/jit/internal/jit"
	"gopkg.in/yaml.v3"
)

var ErrSyntax = errors.New("invalid operation")

// File is the on-disk form of a program.
type File struct {
	Version   int        `yaml:"version"`
	Entry     string     `yaml:"entry,omitempty"`
	Functions []Function `yaml:"functions"`
}

type Function struct {
	Name string   `yaml:"name"`
	Ops  []string `yaml:"ops,omitempty"`
}

func (f *File) normalize() {
	if f.Version == 0 {
		f.Version = 1
	}
	if f.Entry == "" && len(f.Functions) > 0 {
		f.Entry = f.Functions[0].Name
	}
}

// Parse decodes a program description.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	if f.Version < 0 || f.Version > 1 {
		return nil, fmt.Errorf("parse program: unsupported version %d", f.Version)
	}
	f.normalize()
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write encodes f as YAML.
func Write(w io.Writer, f File) error {
	f.normalize()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	return enc.Close()
}

// Program builds every function in declaration order.
func (f *File) Program(opts ...jit.Option) (*jit.Program, error) {
	p := jit.New(opts...)
	for _, fn := range f.Functions {
		b := jit.NewFunction(fn.Name)
		for i, line := range fn.Ops {
			if label, ok := labelName(line); ok {
				b.Label(label)
				continue
			}
			op, err := ParseOp(line)
			if err != nil {
				return nil, fmt.Errorf("function %q line %d: %w", fn.Name, i+1, err)
			}
			b.Op(op)
		}
		built, err := b.Finish()
		if err != nil {
			return nil, err
		}
		if err := p.Add(built); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func labelName(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	return name, name != "" && !strings.ContainsAny(name, " \t,")
}

// ParseOp reads the text form produced by asm.Op.String. Immediates may be
// decimal or 0x-prefixed hex.
func ParseOp(s string) (asm.Op, error) {
	text := strings.TrimSpace(s)
	mnemonic, rest, _ := strings.Cut(text, " ")
	mnemonic = strings.ToLower(mnemonic)
	var operands []string
	if rest = strings.TrimSpace(rest); rest != "" {
		for _, part := range strings.Split(rest, ",") {
			operands = append(operands, strings.TrimSpace(part))
		}
	}

	switch mnemonic {
	case "ret":
		if len(operands) != 0 {
			return asm.Op{}, syntaxError(text, "ret takes no operands")
		}
		return asm.Ret(), nil
	case "call":
		if len(operands) != 1 || operands[0] == "" {
			return asm.Op{}, syntaxError(text, "call takes one function name")
		}
		return asm.Call(operands[0]), nil
	case "push", "pop":
		if len(operands) != 1 {
			return asm.Op{}, syntaxError(text, mnemonic+" takes one register")
		}
		reg, err := asm.ParseRegister(operands[0])
		if err != nil {
			return asm.Op{}, err
		}
		if mnemonic == "push" {
			return asm.Push(reg), nil
		}
		return asm.Pop(reg), nil
	case "add", "sub", "mul", "div", "mov":
		if len(operands) != 2 {
			return asm.Op{}, syntaxError(text, mnemonic+" takes two operands")
		}
		dst, err := asm.ParseRegister(operands[0])
		if err != nil {
			return asm.Op{}, err
		}
		if src, err := asm.ParseRegister(operands[1]); err == nil {
			return regForm(text, mnemonic, dst, src)
		}
		imm, err := strconv.ParseUint(operands[1], 0, 64)
		if err != nil {
			return asm.Op{}, syntaxError(text, fmt.Sprintf("bad operand %q", operands[1]))
		}
		return immForm(mnemonic, dst, imm), nil
	default:
		return asm.Op{}, syntaxError(text, fmt.Sprintf("unknown mnemonic %q", mnemonic))
	}
}

func regForm(text, mnemonic string, dst, src asm.Register) (asm.Op, error) {
	switch mnemonic {
	case "mul":
		return asm.MulReg(dst, src), nil
	case "div":
		return asm.DivReg(dst, src), nil
	case "mov":
		return asm.MovReg(dst, src), nil
	}
	return asm.Op{}, syntaxError(text, mnemonic+" requires an immediate source")
}

func immForm(mnemonic string, dst asm.Register, imm uint64) asm.Op {
	switch mnemonic {
	case "add":
		return asm.AddImm(dst, imm)
	case "sub":
		return asm.SubImm(dst, imm)
	case "mul":
		return asm.MulImm(dst, imm)
	case "div":
		return asm.DivImm(dst, imm)
	}
	return asm.MovImm(dst, imm)
}

func syntaxError(text, msg string) error {
	return fmt.Errorf("%w %q: %s", ErrSyntax, text, msg)
}
