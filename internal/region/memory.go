package region

// Transition is one call observed by a MemoryMapper.
type Transition struct {
	Op   string
	Size int
	Prot Prot
}

// MemoryMapper hands out ordinary heap memory and records every call.
// Code loaded through it can be inspected but never executed.
type MemoryMapper struct {
	Transitions []Transition

	// Fail* are returned by the next matching call when set.
	FailMap     error
	FailProtect error
	FailUnmap   error

	live int
}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) Map(size int, prot Prot) ([]byte, error) {
	m.Transitions = append(m.Transitions, Transition{Op: "map", Size: size, Prot: prot})
	if err := m.FailMap; err != nil {
		return nil, err
	}
	m.live++
	return make([]byte, size), nil
}

func (m *MemoryMapper) Protect(mem []byte, prot Prot) error {
	m.Transitions = append(m.Transitions, Transition{Op: "protect", Size: len(mem), Prot: prot})
	return m.FailProtect
}

func (m *MemoryMapper) Unmap(mem []byte) error {
	m.Transitions = append(m.Transitions, Transition{Op: "unmap", Size: len(mem)})
	if err := m.FailUnmap; err != nil {
		return err
	}
	m.live--
	return nil
}

// Live is the number of mappings not yet unmapped.
func (m *MemoryMapper) Live() int { return m.live }
