//go:build linux && amd64

package region

import (
	"errors"
	"testing"
)

func TestSystemRegionCall(t *testing.T) {
	r, err := Allocate(System(), 4)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	defer r.Close()

	// mov rax, rdi; ret
	if err := r.Load([]byte{0x48, 0x89, 0xf8, 0xc3}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := r.MakeExecutable(); err != nil {
		t.Fatalf("MakeExecutable failed: %v", err)
	}
	fn, err := r.Func(0)
	if err != nil {
		t.Fatalf("Func failed: %v", err)
	}

	got, err := fn.Call(42)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got != 42 {
		t.Fatalf("Call(42)=%d, want 42", got)
	}

	var identity func(uint64) uint64
	if err := fn.Bind(&identity); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if got := identity(1 << 40); got != 1<<40 {
		t.Fatalf("identity=%d", got)
	}
}

func TestBoundFuncAfterClose(t *testing.T) {
	r, err := Allocate(System(), 4)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	// mov rax, rdi; ret
	if err := r.Load([]byte{0x48, 0x89, 0xf8, 0xc3}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := r.MakeExecutable(); err != nil {
		t.Fatalf("MakeExecutable failed: %v", err)
	}
	fn, err := r.Func(0)
	if err != nil {
		t.Fatalf("Func failed: %v", err)
	}

	var identity func(uint64) uint64
	if err := fn.Bind(&identity); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if got := identity(7); got != 7 {
		t.Fatalf("identity(7)=%d", got)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrClosed) {
			t.Fatalf("recovered %v, want error wrapping ErrClosed", rec)
		}
	}()
	identity(7)
	t.Fatal("bound function ran after Close")
}

func TestBindRejectsNonFunc(t *testing.T) {
	r, err := Allocate(System(), 1)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	defer r.Close()
	if err := r.Load([]byte{0xc3}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := r.MakeExecutable(); err != nil {
		t.Fatalf("MakeExecutable failed: %v", err)
	}
	fn, err := r.Func(0)
	if err != nil {
		t.Fatalf("Func failed: %v", err)
	}
	var notFunc int
	if err := fn.Bind(&notFunc); err == nil {
		t.Fatal("Bind accepted *int")
	}
	if err := fn.Bind(func() {}); err == nil {
		t.Fatal("Bind accepted a func value")
	}
}
