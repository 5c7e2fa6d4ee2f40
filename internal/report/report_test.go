package report

import (
	"bytes"
	"debug/elf"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightctl/elf-parser/internal/elftest"
	"github.com/flightctl/elf-parser/pkg/elfinfo"
)

func init() {
	color.NoColor = true
}

func testImage(t *testing.T) *elfinfo.Image {
	t.Helper()
	symtab, strtab := elftest.SymbolTable([]elftest.Symbol{
		{Name: "main", Value: 0x401000, Size: 0x20, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: 1},
		{Name: "ext", Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)},
	})
	img, err := elfinfo.New((&elftest.Builder{
		Type:    elf.ET_EXEC,
		Machine: elf.EM_X86_64,
		Entry:   0x401000,
		Sections: []elftest.Section{
			{},
			{Name: ".text", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, Addr: 0x401000, Data: make([]byte, 0x20), Align: 16},
			{Name: ".data", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_WRITE, Data: make([]byte, 4096)},
			{Name: ".symtab", Type: elf.SHT_SYMTAB, Data: symtab, Link: 4, EntSize: 24},
			{Name: ".strtab", Type: elf.SHT_STRTAB, Data: strtab},
			{Name: ".rela.dyn", Type: elf.SHT_RELA, Link: 3, EntSize: 24, Data: elftest.Relocations([]elf.Rela64{
				{Off: 0x402000, Info: elf.R_INFO(2, uint32(elf.R_X86_64_GLOB_DAT))},
				{Off: 0x402008, Info: elf.R_INFO(1, uint32(elf.R_X86_64_64)), Addend: 8},
				{Off: 0x402010, Info: elf.R_INFO(1, uint32(elf.R_X86_64_PC32)), Addend: -4},
			})},
			{Name: ".gnu.hash", Type: elf.SHT_GNU_HASH, Data: make([]byte, 8)},
		},
		Segments: []elftest.Segment{
			{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X, Vaddr: 0x401000, Filesz: 0x20, Memsz: 0x20, Align: 0x1000},
		},
	}).Bytes())
	require.NoError(t, err)
	return img
}

func TestImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Image(&buf, testImage(t)))
	out := buf.String()

	for _, want := range []string{
		"ELF header:",
		"ET_EXEC",
		"EM_X86_64",
		"0x401000",
		"Sections (8):",
		".text",
		"SHT_PROGBITS",
		"UNKNOWN(0x6ffffff6)",
		"4096 (4.0 KiB)",
		"Segments (1):",
		"LOAD",
		"RE",
		"Symbol table .symtab (3 entries):",
		"0000000000401000",
		"UND",
		"Relocation section .rela.dyn (3 entries):",
		"R_X86_64_GLOB_DAT",
		"main + 8",
		"main - 4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestImageABITag(t *testing.T) {
	img, err := elfinfo.New((&elftest.Builder{
		Sections: []elftest.Section{
			{Name: ".note.ABI-tag", Type: elf.SHT_NOTE, Data: elftest.ABITagNote(0, 2, 6, 32)},
		},
	}).Bytes())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Image(&buf, img))
	assert.Contains(t, buf.String(), "ABI tag: Linux, kernel 2.6.32")
}

func TestSectionFlags(t *testing.T) {
	assert.Equal(t, "", sectionFlags(0))
	assert.Equal(t, "AX", sectionFlags(elf.SHF_ALLOC|elf.SHF_EXECINSTR))
	assert.Equal(t, "WAT", sectionFlags(elf.SHF_TLS|elf.SHF_WRITE|elf.SHF_ALLOC))
	assert.Equal(t, "MS", sectionFlags(elf.SHF_MERGE|elf.SHF_STRINGS))
}

func TestSymbolsGroupedByTable(t *testing.T) {
	var buf bytes.Buffer
	Symbols(&buf, []elfinfo.Symbol{
		{Index: 0, Table: ".dynsym", TableIndex: 3},
		{Index: 1, Name: "puts", Table: ".dynsym", TableIndex: 3},
		{Index: 0, Table: ".symtab", TableIndex: 9},
	})
	out := buf.String()
	assert.Contains(t, out, "Symbol table .dynsym (2 entries):")
	assert.Contains(t, out, "Symbol table .symtab (1 entries):")
	assert.Less(t, strings.Index(out, ".dynsym"), strings.Index(out, ".symtab"))
}

func TestEmptyTables(t *testing.T) {
	var buf bytes.Buffer
	Symbols(&buf, nil)
	Relocations(&buf, nil)
	assert.Empty(t, buf.String())

	Sections(&buf, nil)
	assert.Contains(t, buf.String(), "Sections (0):")
}
