package elfinfo

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flightctl/elf-parser/internal/elftest"
)

const interpPath = "/lib64/ld-linux-x86-64.so.2"

// Section indices of dynamicExecutable. .shstrtab is appended last.
const (
	secInterp = iota + 1
	secABITag
	secDynsym
	secDynstr
	secRelaPlt
	secPlt
	secText
	secBss
	secSymtab
	secStrtab
	secRelaText
	secShstrtab
)

func dynamicExecutable() *elftest.Builder {
	dynsym, dynstr := elftest.SymbolTable([]elftest.Symbol{
		{Name: "puts", Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)},
		{Name: "printf", Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)},
		{Name: "environ", Value: 0x3010, Size: 8, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT), Shndx: secBss},
	})
	symtab, strtab := elftest.SymbolTable([]elftest.Symbol{
		{Name: "main.c", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FILE), Shndx: uint16(elf.SHN_ABS)},
		{Name: "main", Value: 0x1040, Size: 0x10, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: secText},
		{Name: "counter", Value: 0x3000, Size: 8, Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_OBJECT), Other: byte(elf.STV_HIDDEN), Shndx: secBss},
		{Name: "buffer", Value: 16, Size: 64, Info: elf.ST_INFO(elf.STB_WEAK, elf.STT_OBJECT), Shndx: uint16(elf.SHN_COMMON)},
		{Name: "_start", Value: 0x1050, Size: 0x10, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Other: byte(elf.STV_PROTECTED), Shndx: secText},
	})

	return &elftest.Builder{
		Type:    elf.ET_EXEC,
		Machine: elf.EM_X86_64,
		Entry:   0x1050,
		Sections: []elftest.Section{
			{},
			{Name: ".interp", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC, Addr: 0x400, Data: []byte(interpPath + "\x00"), Align: 1},
			{Name: ".note.ABI-tag", Type: elf.SHT_NOTE, Flags: elf.SHF_ALLOC, Data: elftest.ABITagNote(0, 3, 2, 0), Align: 4},
			{Name: ".dynsym", Type: elf.SHT_DYNSYM, Flags: elf.SHF_ALLOC, Data: dynsym, Link: secDynstr, Info: 1, EntSize: 24, Align: 8},
			{Name: ".dynstr", Type: elf.SHT_STRTAB, Flags: elf.SHF_ALLOC, Data: dynstr, Align: 1},
			{Name: ".rela.plt", Type: elf.SHT_RELA, Flags: elf.SHF_ALLOC | elf.SHF_INFO_LINK, Link: secDynsym, Info: secPlt, EntSize: 24, Align: 8,
				Data: elftest.Relocations([]elf.Rela64{
					{Off: 0x2018, Info: elf.R_INFO(1, uint32(elf.R_X86_64_JMP_SLOT))},
					{Off: 0x2020, Info: elf.R_INFO(2, uint32(elf.R_X86_64_JMP_SLOT))},
					{Off: 0x3010, Info: elf.R_INFO(3, uint32(elf.R_X86_64_COPY))},
				})},
			{Name: ".plt", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Addr: 0x1000, Data: make([]byte, 0x40), EntSize: 16, Align: 16},
			{Name: ".text", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Addr: 0x1040, Data: make([]byte, 0x20), Align: 16},
			{Name: ".bss", Type: elf.SHT_NOBITS, Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Addr: 0x3000, Size: 0x100, Align: 32},
			{Name: ".symtab", Type: elf.SHT_SYMTAB, Data: symtab, Link: secStrtab, Info: 4, EntSize: 24, Align: 8},
			{Name: ".strtab", Type: elf.SHT_STRTAB, Data: strtab, Align: 1},
			{Name: ".rela.text", Type: elf.SHT_RELA, Link: secSymtab, Info: secText, EntSize: 24, Align: 8,
				Data: elftest.Relocations([]elf.Rela64{
					{Off: 0x1045, Info: elf.R_INFO(2, uint32(elf.R_X86_64_PC32)), Addend: -4},
				})},
		},
		Segments: []elftest.Segment{
			{Type: elf.PT_PHDR, Flags: elf.PF_R, Off: 0x40, Vaddr: 0x40, Paddr: 0x40, Filesz: 5 * 56, Memsz: 5 * 56, Align: 8},
			{Type: elf.PT_INTERP, Flags: elf.PF_R, Vaddr: 0x400, Paddr: 0x400, Filesz: uint64(len(interpPath) + 1), Memsz: uint64(len(interpPath) + 1), Align: 1},
			{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X, Vaddr: 0x1000, Paddr: 0x1000, Filesz: 0x60, Memsz: 0x60, Align: 0x1000},
			{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_W, Vaddr: 0x3000, Paddr: 0x3000, Memsz: 0x100, Align: 0x1000},
			{Type: elf.PT_GNU_STACK, Flags: elf.PF_R | elf.PF_W, Align: 16},
		},
	}
}

// newImage builds b, points the PT_INTERP segment at .interp and returns
// the decoded image.
func newImage(t *testing.T, b *elftest.Builder) *Image {
	t.Helper()
	img, err := New(build(b))
	require.NoError(t, err)
	return img
}

func build(b *elftest.Builder) []byte {
	buf := b.Bytes()
	// The builder decides section offsets, so patch p_offset of PT_INTERP
	// once they are known.
	for i, seg := range b.Segments {
		if seg.Type != elf.PT_INTERP {
			continue
		}
		img, err := New(buf)
		if err != nil {
			return buf
		}
		sections, err := img.Sections()
		if err != nil {
			return buf
		}
		if s := sectionByName(sections, ".interp"); s != nil {
			b.Segments[i].Off = s.Offset
			return b.Bytes()
		}
	}
	return buf
}
