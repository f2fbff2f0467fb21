//go:build unix

package region

import "golang.org/x/sys/unix"

type systemMapper struct{}

// System returns the Mapper backed by mmap, mprotect and munmap.
func System() Mapper { return systemMapper{} }

func (systemMapper) Map(size int, prot Prot) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unixProt(prot), unix.MAP_PRIVATE|unix.MAP_ANON)
}

func (systemMapper) Protect(mem []byte, prot Prot) error {
	return unix.Mprotect(mem, unixProt(prot))
}

func (systemMapper) Unmap(mem []byte) error {
	return unix.Munmap(mem)
}

func unixProt(p Prot) int {
	prot := unix.PROT_NONE
	if p&ProtRead != 0 {
		prot |= unix.PROT_READ
	}
	if p&ProtWrite != 0 {
		prot |= unix.PROT_WRITE
	}
	if p&ProtExec != 0 {
		prot |= unix.PROT_EXEC
	}
	return prot
}
