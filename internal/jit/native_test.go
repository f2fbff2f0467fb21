//go:build linux && amd64

package jit

import (
	"errors"
	"testing"

	"github.com/tinyrange/jit/internal/asm"
	"github.com/tinyrange/jit/internal/region"
)

func TestNativeAddFour(t *testing.T) {
	exe, err := buildSample(t).Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	defer exe.Close()

	for _, x := range []uintptr{4, 10, 0, 1 << 40} {
		got, err := exe.Call("add_four", x)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if got != x {
			t.Fatalf("add_four(%d)=%d, want %d", x, got, x)
		}
	}

	var addFour func(int64) int64
	if err := exe.Bind("add_four", &addFour); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if got := addFour(10); got != 10 {
		t.Fatalf("bound add_four(10)=%d", got)
	}
}

func TestNativeOperations(t *testing.T) {
	p := New()
	build := func(name string, ops ...asm.Op) {
		t.Helper()
		if err := p.Build(name, func(b *FunctionBuilder) { b.Ops(ops...) }); err != nil {
			t.Fatalf("Build(%s) failed: %v", name, err)
		}
	}

	build("leaf", asm.MovReg(asm.R1, asm.R2), asm.AddImm(asm.R1, 1))
	build("big", asm.MovImm(asm.R1, 1000000000000))
	build("mul", asm.MovReg(asm.R1, asm.R2), asm.MulReg(asm.R1, asm.R3))
	build("div", asm.MovReg(asm.R1, asm.R2), asm.DivReg(asm.R1, asm.R3))
	build("div_into_rsi", asm.DivReg(asm.R3, asm.R2), asm.MovReg(asm.R1, asm.R3))
	build("mul_swapped", asm.MovReg(asm.R1, asm.R2), asm.MulReg(asm.R4, asm.R1), asm.MovReg(asm.R1, asm.R4))
	build("keeps_rdx", asm.DivReg(asm.R2, asm.R3), asm.MovReg(asm.R1, asm.R4))
	build("mul_imm", asm.MovReg(asm.R1, asm.R2), asm.MulImm(asm.R1, 3))
	build("div_imm_scratch", asm.MovReg(asm.R9, asm.R2), asm.DivImm(asm.R9, 10), asm.MovReg(asm.R1, asm.R9))
	build("push_pop", asm.Push(asm.R2), asm.MovImm(asm.R2, 0), asm.Pop(asm.R1))
	build("calls_backward", asm.Call("leaf"), asm.AddImm(asm.R1, 1))

	exe, err := p.Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	defer exe.Close()

	tests := []struct {
		name string
		args []uintptr
		want uintptr
	}{
		{"leaf", []uintptr{41}, 42},
		{"big", nil, 1000000000000},
		{"mul", []uintptr{6, 7}, 42},
		{"div", []uintptr{100, 7}, 14},
		{"div_into_rsi", []uintptr{2, 10}, 5},
		{"mul_swapped", []uintptr{0, 0, 9}, 0},
		{"mul_swapped", []uintptr{5, 0, 9}, 45},
		{"keeps_rdx", []uintptr{100, 7, 55}, 55},
		{"mul_imm", []uintptr{14}, 42},
		{"div_imm_scratch", []uintptr{425}, 42},
		{"push_pop", []uintptr{42}, 42},
		{"calls_backward", []uintptr{40}, 42},
	}
	for _, tt := range tests {
		got, err := exe.Call(tt.name, tt.args...)
		if err != nil {
			t.Fatalf("Call(%s) failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s%v=%d, want %d", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestNativeStackPointerOperands(t *testing.T) {
	p := New()
	err := p.Build("direct", func(b *FunctionBuilder) {
		b.Op(asm.MovImm(asm.R1, 1)).Op(asm.MulReg(asm.R1, asm.SP))
	})
	if !errors.Is(err, asm.ErrInvalidRegister) {
		t.Fatalf("MulReg with sp: err=%v, want ErrInvalidRegister", err)
	}

	// Copying sp first is the supported form: (sp * 2) / sp == 2.
	if err := p.Build("via_copy", func(b *FunctionBuilder) {
		b.Ops(
			asm.MovReg(asm.R3, asm.SP),
			asm.MovReg(asm.R1, asm.R3),
			asm.MulImm(asm.R1, 2),
			asm.DivReg(asm.R1, asm.R3),
		)
	}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	exe, err := p.Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	defer exe.Close()

	got, err := exe.Call("via_copy")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got != 2 {
		t.Fatalf("via_copy()=%d, want 2", got)
	}
}

func TestNativeBindAfterClose(t *testing.T) {
	exe, err := buildSample(t).Materialize()
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	var addFour func(uint64) uint64
	if err := exe.Bind("add_four", &addFour); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := exe.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, region.ErrClosed) {
			t.Fatalf("recovered %v, want ErrClosed", err)
		}
	}()
	addFour(4)
	t.Fatal("bound function ran after Close")
}
