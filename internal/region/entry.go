package region

import "fmt"

// MaxArgs is the number of integer arguments passed in registers by the
// System V calling convention.
const MaxArgs = 6

// Func is a callable entry point inside an executable Region.
type Func struct {
	region *Region
	offset int
}

// Func returns the entry point at offset. The region must be executable.
func (r *Region) Func(offset int) (Func, error) {
	switch r.state {
	case Closed:
		return Func{}, ErrClosed
	case Writable:
		return Func{}, ErrNotExecutable
	}
	if _, err := r.Addr(offset); err != nil {
		return Func{}, err
	}
	return Func{region: r, offset: offset}, nil
}

// Addr returns the absolute address of the entry point.
func (f Func) Addr() (uintptr, error) {
	if f.region == nil {
		return 0, ErrNotExecutable
	}
	if f.region.state != Executable {
		return 0, fmt.Errorf("call: %w", stateErr(f.region.state))
	}
	return f.region.Addr(f.offset)
}

func stateErr(s State) error {
	if s == Closed {
		return ErrClosed
	}
	return ErrNotExecutable
}
