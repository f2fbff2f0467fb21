//go:build !unix

package region

type systemMapper struct{}

func System() Mapper { return systemMapper{} }

func (systemMapper) Map(int, Prot) ([]byte, error) { return nil, ErrUnsupported }
func (systemMapper) Protect([]byte, Prot) error   { return ErrUnsupported }
func (systemMapper) Unmap([]byte) error           { return ErrUnsupported }
