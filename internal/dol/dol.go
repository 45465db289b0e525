// Package dol reads the DOL executable container: the boot image format
// used by a well-known game console generation, holding up to 7 text and
// 11 data sections plus BSS and an entrypoint.
package dol

import (
	"encoding/binary"
	"fmt"
)

const (
	bssAddrOff       = 0xD8
	bssSizeOff       = 0xDC
	sectionOffsetOff = 0
	sectionAddrOff   = 0x48
	sectionSizeOff   = 0x90
	entrypointOff    = 0xE0

	sectionCount  = 18
	minHeaderSize = 0xFF
)

// SectionInfo describes one of a DOL's 18 sections: the byte offset its
// contents live at in the file, the address it loads to, and its size.
type SectionInfo struct {
	FileOffset uint32
	LoadOffset uint32
	Size       uint32
}

// ContainsAddr reports whether addr falls within this section's load range.
func (s SectionInfo) ContainsAddr(addr uint32) bool {
	return addr >= s.LoadOffset && addr < s.LoadOffset+s.Size
}

// FileOffsetOfAddr translates a load address within this section to a file
// offset. It panics if addr is not contained in the section.
func (s SectionInfo) FileOffsetOfAddr(addr uint32) uint32 {
	if !s.ContainsAddr(addr) {
		panic(fmt.Sprintf("dol: address %#x not contained in section [%#x,%#x)", addr, s.LoadOffset, s.LoadOffset+s.Size))
	}
	return s.FileOffset + (addr - s.LoadOffset)
}

// Dol is a validated, read-only view over a DOL file's bytes.
type Dol struct {
	bytes []byte
}

// New validates bytes as a DOL header and wraps them.
func New(bytes []byte) (*Dol, error) {
	if len(bytes) < minHeaderSize {
		return nil, fmt.Errorf("dol: file smaller than %#x bytes (does not contain all headers)", minHeaderSize)
	}
	return &Dol{bytes: bytes}, nil
}

func (d *Dol) u32(off int) uint32 {
	return binary.BigEndian.Uint32(d.bytes[off : off+4])
}

// Section returns the section table entry at the given index (0..17).
func (d *Dol) Section(index int) SectionInfo {
	if index < 0 || index >= sectionCount {
		panic(fmt.Sprintf("dol: section index %d out of range [0,%d)", index, sectionCount))
	}
	return SectionInfo{
		FileOffset: d.u32(sectionOffsetOff + index*4),
		LoadOffset: d.u32(sectionAddrOff + index*4),
		Size:       d.u32(sectionSizeOff + index*4),
	}
}

// Sections returns all 18 section table entries, in table order.
func (d *Dol) Sections() []SectionInfo {
	out := make([]SectionInfo, sectionCount)
	for i := range out {
		out[i] = d.Section(i)
	}
	return out
}

// SectionOfLoadAddr returns the first section containing addr, if any.
func (d *Dol) SectionOfLoadAddr(addr uint32) (SectionInfo, bool) {
	for i := 0; i < sectionCount; i++ {
		s := d.Section(i)
		if s.ContainsAddr(addr) {
			return s, true
		}
	}
	return SectionInfo{}, false
}

// SliceFromLoadAddr returns the suffix of the file's bytes starting at the
// file offset corresponding to addr, or an error if addr is not part of any
// section.
func (d *Dol) SliceFromLoadAddr(addr uint32) ([]byte, error) {
	section, ok := d.SectionOfLoadAddr(addr)
	if !ok {
		return nil, fmt.Errorf("dol: address %#x is not part of any section", addr)
	}
	off := section.FileOffsetOfAddr(addr)
	return d.bytes[off:], nil
}

// Entrypoint returns the DOL's entry point address.
func (d *Dol) Entrypoint() uint32 { return d.u32(entrypointOff) }

// BssAddress returns the load address of the BSS region.
func (d *Dol) BssAddress() uint32 { return d.u32(bssAddrOff) }

// BssSize returns the size in bytes of the BSS region.
func (d *Dol) BssSize() uint32 { return d.u32(bssSizeOff) }

// AsBytes returns the backing byte slice.
func (d *Dol) AsBytes() []byte { return d.bytes }
