// Package region manages anonymous memory that is first filled with machine
// code and then flipped to read+execute. A region is never writable and
// executable at the same time.
package region

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrMapping           = errors.New("memory mapping failed")
	ErrTooLarge          = errors.New("code larger than region")
	ErrNotWritable       = errors.New("region is not writable")
	ErrAlreadyExecutable = errors.New("region is already executable")
	ErrNotExecutable     = errors.New("region is not executable")
	ErrClosed            = errors.New("region is closed")
	ErrUnsupported       = errors.New("executable memory is not supported on this platform")
	ErrOutOfRange        = errors.New("offset outside region")
)

// Prot is a set of page protection bits.
type Prot uint8

const (
	ProtRead Prot = 1 << iota
	ProtWrite
	ProtExec
)

func (p Prot) String() string {
	b := []byte("---")
	if p&ProtRead != 0 {
		b[0] = 'r'
	}
	if p&ProtWrite != 0 {
		b[1] = 'w'
	}
	if p&ProtExec != 0 {
		b[2] = 'x'
	}
	return string(b)
}

// Mapper is the operating-system facility a Region is built on.
type Mapper interface {
	Map(size int, prot Prot) ([]byte, error)
	Protect(mem []byte, prot Prot) error
	Unmap(mem []byte) error
}

// MappingError reports a failed Mapper call.
type MappingError struct {
	Op   string
	Size int
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s %d bytes: %v", e.Op, e.Size, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

func (e *MappingError) Is(target error) bool { return target == ErrMapping }

// State is the lifecycle position of a Region.
type State uint8

const (
	Writable State = iota
	Executable
	Closed
)

func (s State) String() string {
	switch s {
	case Writable:
		return "writable"
	case Executable:
		return "executable"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Region is a mapping of exactly Size bytes. It moves Writable → Executable
// → Closed and never back. The zero value is not usable.
type Region struct {
	mapper Mapper
	mem    []byte
	size   int
	state  State
}

// Allocate maps size bytes read+write.
func Allocate(m Mapper, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("allocate region: invalid size %d", size)
	}
	mem, err := m.Map(size, ProtRead|ProtWrite)
	if err != nil {
		return nil, &MappingError{Op: "map", Size: size, Err: err}
	}
	if len(mem) < size {
		_ = m.Unmap(mem)
		return nil, &MappingError{Op: "map", Size: size, Err: fmt.Errorf("short mapping of %d bytes", len(mem))}
	}
	return &Region{mapper: m, mem: mem[:size], size: size}, nil
}

// Load copies code to the start of the region.
func (r *Region) Load(code []byte) error {
	if r.state != Writable {
		return fmt.Errorf("load: %w (%s)", ErrNotWritable, r.state)
	}
	if len(code) > r.size {
		return fmt.Errorf("load %d bytes into %d: %w", len(code), r.size, ErrTooLarge)
	}
	copy(r.mem, code)
	return nil
}

// MakeExecutable flips the region from read+write to read+execute.
func (r *Region) MakeExecutable() error {
	switch r.state {
	case Executable:
		return ErrAlreadyExecutable
	case Closed:
		return ErrClosed
	}
	if err := r.mapper.Protect(r.mem, ProtRead|ProtExec); err != nil {
		return &MappingError{Op: "protect", Size: r.size, Err: err}
	}
	r.state = Executable
	return nil
}

// Entry returns the address of the first byte, or 0 once closed.
func (r *Region) Entry() uintptr {
	if r.state == Closed {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.mem)))
}

// Addr returns the address of offset within the region.
func (r *Region) Addr(offset int) (uintptr, error) {
	if r.state == Closed {
		return 0, ErrClosed
	}
	if offset < 0 || offset >= r.size {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, offset, r.size)
	}
	return r.Entry() + uintptr(offset), nil
}

func (r *Region) Size() int    { return r.size }
func (r *Region) State() State { return r.state }

// Bytes returns a copy of the region contents.
func (r *Region) Bytes() []byte {
	if r.state == Closed {
		return nil
	}
	return append([]byte(nil), r.mem...)
}

// Close unmaps the region. Closing twice is a no-op.
func (r *Region) Close() error {
	if r.state == Closed {
		return nil
	}
	mem := r.mem
	r.mem = nil
	r.state = Closed
	if err := r.mapper.Unmap(mem); err != nil {
		return &MappingError{Op: "unmap", Size: r.size, Err: err}
	}
	return nil
}
