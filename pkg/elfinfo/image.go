// Package elfinfo decodes 64-bit little-endian ELF images held in memory
// into sections, segments, symbols and relocations.
//
// An Image is validated once by New and never modified afterwards, so every
// decoder may be called any number of times, from any number of goroutines.
// Decoded records are copies and stay valid after the underlying buffer is
// released.
package elfinfo

import (
	"bytes"
	"debug/elf"

	"github.com/go-kit/log"
)

const (
	headerSize        = 64 // sizeof(Elf64_Ehdr)
	sectionHeaderSize = 64 // sizeof(Elf64_Shdr)
	programHeaderSize = 56 // sizeof(Elf64_Phdr)
	symbolSize        = elf.Sym64Size
	relaSize          = 24 // sizeof(Elf64_Rela)
)

var elfMagic = []byte(elf.ELFMAG)

// Header is the validated ELF file header.
type Header struct {
	Type                   elf.Type
	Machine                elf.Machine
	Version                uint32
	OSABI                  elf.OSABI
	Entry                  uint64
	Flags                  uint32
	ProgramHeaderOffset    uint64
	ProgramHeaderEntrySize uint16
	ProgramHeaderCount     uint16
	SectionHeaderOffset    uint64
	SectionHeaderEntrySize uint16
	SectionHeaderCount     uint16
	SectionNameTableIndex  uint16
}

// Image is a read-only ELF64 byte buffer with a validated header.
type Image struct {
	data   []byte
	header Header
	logger log.Logger
}

type Option func(*Image)

// WithLogger sets the logger used for debug notes about recovered
// conditions such as missing string tables.
func WithLogger(logger log.Logger) Option {
	return func(img *Image) {
		img.logger = logger
	}
}

// New validates buf as an ELF64 little-endian image. The buffer must not be
// modified while the Image is in use.
func New(buf []byte, opts ...Option) (*Image, error) {
	if len(buf) >= len(elfMagic) && !bytes.Equal(buf[:len(elfMagic)], elfMagic) {
		return nil, formatErrorf("bad magic number %v", buf[:len(elfMagic)])
	}
	if len(buf) < headerSize {
		return nil, formatErrorf("image is %d bytes, too small for an ELF64 header", len(buf))
	}
	if class := elf.Class(buf[elf.EI_CLASS]); class != elf.ELFCLASS64 {
		return nil, formatErrorf("unsupported class %v", class)
	}
	if data := elf.Data(buf[elf.EI_DATA]); data != elf.ELFDATA2LSB {
		return nil, formatErrorf("unsupported data encoding %v", data)
	}

	img := &Image{
		data:   buf,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(img)
	}

	var raw elf.Header64
	if err := unpack(buf[:headerSize], &raw); err != nil {
		return nil, formatErrorf("reading header: %v", err)
	}
	img.header = Header{
		Type:                   elf.Type(raw.Type),
		Machine:                elf.Machine(raw.Machine),
		Version:                raw.Version,
		OSABI:                  elf.OSABI(raw.Ident[elf.EI_OSABI]),
		Entry:                  raw.Entry,
		Flags:                  raw.Flags,
		ProgramHeaderOffset:    raw.Phoff,
		ProgramHeaderEntrySize: raw.Phentsize,
		ProgramHeaderCount:     raw.Phnum,
		SectionHeaderOffset:    raw.Shoff,
		SectionHeaderEntrySize: raw.Shentsize,
		SectionHeaderCount:     raw.Shnum,
		SectionNameTableIndex:  raw.Shstrndx,
	}
	if raw.Shnum > 0 && raw.Shentsize < sectionHeaderSize {
		return nil, formatErrorf("section header entry size %d is smaller than %d", raw.Shentsize, sectionHeaderSize)
	}
	if raw.Phnum > 0 && raw.Phentsize < programHeaderSize {
		return nil, formatErrorf("program header entry size %d is smaller than %d", raw.Phentsize, programHeaderSize)
	}
	return img, nil
}

// Header returns the decoded file header.
func (img *Image) Header() Header {
	return img.header
}

// Entry returns the virtual address of the program entry point.
func (img *Image) Entry() uint64 {
	return img.header.Entry
}

// Len returns the length of the image in bytes.
func (img *Image) Len() int {
	return len(img.data)
}
