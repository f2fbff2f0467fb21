//go:build !(darwin || freebsd || linux || netbsd || windows)

package region

func (f Func) Call(args ...uintptr) (uintptr, error) {
	if _, err := f.Addr(); err != nil {
		return 0, err
	}
	return 0, ErrUnsupported
}

func (f Func) Bind(fptr any) error {
	if _, err := f.Addr(); err != nil {
		return err
	}
	return ErrUnsupported
}
