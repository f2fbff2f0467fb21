//go:build darwin || freebsd || linux || netbsd || windows

package region

import (
	"fmt"
	"reflect"

	"github.com/ebitengine/purego"
)

// Call invokes the entry point with up to MaxArgs integer arguments and
// returns the value left in rax.
func (f Func) Call(args ...uintptr) (uintptr, error) {
	if len(args) > MaxArgs {
		return 0, fmt.Errorf("call accepts at most %d arguments, got %d", MaxArgs, len(args))
	}
	addr, err := f.Addr()
	if err != nil {
		return 0, err
	}
	r1, _, _ := purego.SyscallN(addr, args...)
	return r1, nil
}

// Bind makes fptr, a pointer to a func variable, call the entry point.
// The bound function checks the region on every call and panics with an
// error wrapping ErrClosed once the region has been closed.
func (f Func) Bind(fptr any) (err error) {
	addr, err := f.Addr()
	if err != nil {
		return err
	}
	target := reflect.ValueOf(fptr)
	if target.Kind() != reflect.Pointer || target.IsNil() || target.Elem().Kind() != reflect.Func {
		return fmt.Errorf("bind %T: want a pointer to a func variable", fptr)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bind %T: %v", fptr, r)
		}
	}()

	native := reflect.New(target.Elem().Type())
	purego.RegisterFunc(native.Interface(), addr)
	call := native.Elem()
	target.Elem().Set(reflect.MakeFunc(call.Type(), func(args []reflect.Value) []reflect.Value {
		if _, err := f.Addr(); err != nil {
			panic(fmt.Errorf("bound function: %w", err))
		}
		return call.Call(args)
	}))
	return nil
}
