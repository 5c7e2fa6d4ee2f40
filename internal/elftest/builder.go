// Package elftest builds small synthetic ELF64 images for tests.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/lunixbochs/struc"
)

const (
	HeaderSize        = 64
	SectionHeaderSize = 64
	ProgramHeaderSize = 56
)

// Section describes one section header and its contents.
type Section struct {
	Name    string
	Type    elf.SectionType
	Flags   elf.SectionFlag
	Addr    uint64
	Data    []byte
	Link    uint32
	Info    uint32
	Align   uint64
	EntSize uint64

	// Offset places Data at a fixed file offset instead of the next free one.
	Offset uint64
	// Size overrides len(Data) in the header, e.g. for SHT_NOBITS.
	Size uint64
	// NameOffset is written verbatim when Builder.RawNames is set.
	NameOffset uint32
}

type Segment struct {
	Type   elf.ProgType
	Flags  elf.ProgFlag
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Builder lays out a header, then the program header table, then section
// contents, then the section header table.
type Builder struct {
	Class   elf.Class
	Data    elf.Data
	Type    elf.Type
	Machine elf.Machine
	Entry   uint64

	Sections []Section
	Segments []Segment

	// RawNames disables the generated .shstrtab; section names come from
	// NameOffset and Shstrndx instead.
	RawNames bool
	Shstrndx uint16
}

// Bytes returns the encoded image.
func (b *Builder) Bytes() []byte {
	sections := append([]Section(nil), b.Sections...)
	shstrndx := b.Shstrndx
	if !b.RawNames && len(sections) > 0 {
		names := []byte{0}
		for i := range sections {
			if sections[i].Name == "" {
				continue
			}
			sections[i].NameOffset = uint32(len(names))
			names = append(names, sections[i].Name...)
			names = append(names, 0)
		}
		shstrndx = uint16(len(sections))
		sections = append(sections, Section{
			Name:       ".shstrtab",
			Type:       elf.SHT_STRTAB,
			Data:       append(names, []byte(".shstrtab\x00")...),
			NameOffset: uint32(len(names)),
			Align:      1,
		})
	}

	buf := make([]byte, HeaderSize+len(b.Segments)*ProgramHeaderSize)
	offsets := make([]uint64, len(sections))
	for i, s := range sections {
		if s.Type == elf.SHT_NOBITS || len(s.Data) == 0 {
			offsets[i] = s.Offset
			continue
		}
		off := s.Offset
		if off == 0 {
			off = align8(uint64(len(buf)))
		}
		if need := off + uint64(len(s.Data)); need > uint64(len(buf)) {
			buf = append(buf, make([]byte, need-uint64(len(buf)))...)
		}
		copy(buf[off:], s.Data)
		offsets[i] = off
	}

	var shoff uint64
	if len(sections) > 0 {
		shoff = align8(uint64(len(buf)))
		buf = append(buf, make([]byte, shoff-uint64(len(buf)))...)
		var shdrs bytes.Buffer
		for i, s := range sections {
			size := s.Size
			if size == 0 {
				size = uint64(len(s.Data))
			}
			pack(&shdrs, &elf.Section64{
				Name:      s.NameOffset,
				Type:      uint32(s.Type),
				Flags:     uint64(s.Flags),
				Addr:      s.Addr,
				Off:       offsets[i],
				Size:      size,
				Link:      s.Link,
				Info:      s.Info,
				Addralign: s.Align,
				Entsize:   s.EntSize,
			})
		}
		buf = append(buf, shdrs.Bytes()...)
	}

	var phdrs bytes.Buffer
	for _, p := range b.Segments {
		pack(&phdrs, &elf.Prog64{
			Type:   uint32(p.Type),
			Flags:  uint32(p.Flags),
			Off:    p.Off,
			Vaddr:  p.Vaddr,
			Paddr:  p.Paddr,
			Filesz: p.Filesz,
			Memsz:  p.Memsz,
			Align:  p.Align,
		})
	}
	copy(buf[HeaderSize:], phdrs.Bytes())

	hdr := elf.Header64{
		Type:      uint16(b.Type),
		Machine:   uint16(b.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     b.Entry,
		Shoff:     shoff,
		Ehsize:    HeaderSize,
		Phentsize: ProgramHeaderSize,
		Phnum:     uint16(len(b.Segments)),
		Shentsize: SectionHeaderSize,
		Shnum:     uint16(len(sections)),
		Shstrndx:  shstrndx,
	}
	if len(b.Segments) > 0 {
		hdr.Phoff = HeaderSize
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(orDefault(b.Class, elf.ELFCLASS64))
	hdr.Ident[elf.EI_DATA] = byte(orDefault(b.Data, elf.ELFDATA2LSB))
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	var h bytes.Buffer
	pack(&h, &hdr)
	copy(buf, h.Bytes())
	return buf
}

// Symbol is a symbol table entry with its name spelled out.
type Symbol struct {
	Name  string
	Value uint64
	Size  uint64
	Info  byte
	Other byte
	Shndx uint16
}

// SymbolTable encodes syms, prefixed with the mandatory null symbol, and
// returns the table and its string table.
func SymbolTable(syms []Symbol) (symtab, strtab []byte) {
	strtab = []byte{0}
	var buf bytes.Buffer
	pack(&buf, &elf.Sym64{})
	for _, s := range syms {
		var name uint32
		if s.Name != "" {
			name = uint32(len(strtab))
			strtab = append(strtab, s.Name...)
			strtab = append(strtab, 0)
		}
		pack(&buf, &elf.Sym64{
			Name:  name,
			Info:  s.Info,
			Other: s.Other,
			Shndx: s.Shndx,
			Value: s.Value,
			Size:  s.Size,
		})
	}
	return buf.Bytes(), strtab
}

// Relocations encodes RELA entries.
func Relocations(relas []elf.Rela64) []byte {
	var buf bytes.Buffer
	for i := range relas {
		pack(&buf, &relas[i])
	}
	return buf.Bytes()
}

// Note encodes a single ELF note.
func Note(name string, typ uint32, desc []byte) []byte {
	var buf bytes.Buffer
	nameBytes := append([]byte(name), 0)
	pack(&buf, &struct {
		Namesz uint32
		Descsz uint32
		Type   uint32
	}{uint32(len(nameBytes)), uint32(len(desc)), typ})
	buf.Write(nameBytes)
	buf.Write(make([]byte, align4(len(nameBytes))-len(nameBytes)))
	buf.Write(desc)
	buf.Write(make([]byte, align4(len(desc))-len(desc)))
	return buf.Bytes()
}

// ABITagNote encodes a GNU ABI tag note for the given OS and kernel version.
func ABITagNote(os, major, minor, patch uint32) []byte {
	var desc bytes.Buffer
	pack(&desc, &struct {
		OS, Major, Minor, Patch uint32
	}{os, major, minor, patch})
	return Note("GNU", 1, desc.Bytes())
}

func pack(buf *bytes.Buffer, v interface{}) {
	if err := struc.PackWithOrder(buf, v, binary.LittleEndian); err != nil {
		panic(err)
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func align8(n uint64) uint64 {
	return (n + 7) &^ 7
}

func align4(n int) int {
	return (n + 3) &^ 3
}
