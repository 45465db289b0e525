package dol_test

import (
	"testing"

	"github.com/dolscan/dolscan/internal/dol"
)

func buildHeader() []byte {
	b := make([]byte, 0x100)
	putU32 := func(off int, v uint32) {
		b[off] = byte(v >> 24)
		b[off+1] = byte(v >> 16)
		b[off+2] = byte(v >> 8)
		b[off+3] = byte(v)
	}
	// section 0: file offset 0x100 (fake, beyond header), load 0x80003000, size 0x20
	putU32(0x00, 0x100)
	putU32(0x48, 0x80003000)
	putU32(0x90, 0x20)
	putU32(0xD8, 0x80100000) // bss addr
	putU32(0xDC, 0x1000)     // bss size
	putU32(0xE0, 0x80003004) // entrypoint
	return append(b, make([]byte, 0x20)...)
}

func TestNewRejectsShortFile(t *testing.T) {
	if _, err := dol.New(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for short file")
	}
}

func TestHeaderFields(t *testing.T) {
	d, err := dol.New(buildHeader())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Entrypoint() != 0x80003004 {
		t.Fatalf("Entrypoint() = %#x", d.Entrypoint())
	}
	if d.BssAddress() != 0x80100000 {
		t.Fatalf("BssAddress() = %#x", d.BssAddress())
	}
	if d.BssSize() != 0x1000 {
		t.Fatalf("BssSize() = %#x", d.BssSize())
	}
}

func TestSectionLookup(t *testing.T) {
	d, err := dol.New(buildHeader())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	section, ok := d.SectionOfLoadAddr(0x80003004)
	if !ok {
		t.Fatalf("expected section to contain entrypoint")
	}
	if section.FileOffsetOfAddr(0x80003004) != 0x104 {
		t.Fatalf("FileOffsetOfAddr = %#x, want 0x104", section.FileOffsetOfAddr(0x80003004))
	}

	if _, ok := d.SectionOfLoadAddr(0xFFFFFFFF); ok {
		t.Fatalf("expected no section to contain 0xFFFFFFFF")
	}
}

func TestSliceFromLoadAddr(t *testing.T) {
	d, err := dol.New(buildHeader())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	slice, err := d.SliceFromLoadAddr(0x80003004)
	if err != nil {
		t.Fatalf("SliceFromLoadAddr: %v", err)
	}
	if len(slice) != len(d.AsBytes())-0x104 {
		t.Fatalf("slice length = %d, want %d", len(slice), len(d.AsBytes())-0x104)
	}

	if _, err := d.SliceFromLoadAddr(0xFFFFFFFF); err == nil {
		t.Fatalf("expected error for unmapped address")
	}
}

func TestSections(t *testing.T) {
	d, err := dol.New(buildHeader())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sections := d.Sections()
	if len(sections) != 18 {
		t.Fatalf("len(Sections()) = %d, want 18", len(sections))
	}
	if sections[0].LoadOffset != 0x80003000 || sections[0].Size != 0x20 {
		t.Fatalf("unexpected section 0: %+v", sections[0])
	}
}
