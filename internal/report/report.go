// Package report renders decoded ELF records as text tables.
package report

import (
	"debug/elf"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/flightctl/elf-parser/pkg/elfinfo"
)

var (
	title   = color.New(color.Bold).FprintfFunc()
	unknown = color.New(color.FgYellow).SprintFunc()
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

// enum renders v, highlighting values outside the known set.
func enum(v interface {
	fmt.Stringer
	IsUnknown() bool
}) string {
	if v.IsUnknown() {
		return unknown(v.String())
	}
	return v.String()
}

func size(v uint64) string {
	if v < 1024 {
		return strconv.FormatUint(v, 10)
	}
	return fmt.Sprintf("%d (%s)", v, humanize.IBytes(v))
}

func Header(w io.Writer, h elfinfo.Header) {
	title(w, "ELF header:\n")
	table := newTable(w, "Field", "Value")
	table.AppendBulk([][]string{
		{"Type", h.Type.String()},
		{"Machine", h.Machine.String()},
		{"Version", strconv.FormatUint(uint64(h.Version), 10)},
		{"OS/ABI", h.OSABI.String()},
		{"Entry point", hex(h.Entry)},
		{"Flags", hex(uint64(h.Flags))},
		{"Program headers", fmt.Sprintf("%d at %s, %d bytes each", h.ProgramHeaderCount, hex(h.ProgramHeaderOffset), h.ProgramHeaderEntrySize)},
		{"Section headers", fmt.Sprintf("%d at %s, %d bytes each", h.SectionHeaderCount, hex(h.SectionHeaderOffset), h.SectionHeaderEntrySize)},
		{"Section names", strconv.Itoa(int(h.SectionNameTableIndex))},
	})
	table.Render()
}

func Sections(w io.Writer, sections []elfinfo.Section) {
	title(w, "Sections (%d):\n", len(sections))
	table := newTable(w, "Nr", "Name", "Type", "Address", "Offset", "Size", "EntSize", "Flags", "Link", "Info", "Align")
	for _, s := range sections {
		table.Append([]string{
			strconv.Itoa(s.Index),
			s.Name,
			enum(s.Type),
			hex(s.Addr),
			hex(s.Offset),
			size(s.Size),
			strconv.FormatUint(s.EntrySize, 10),
			sectionFlags(s.Flags),
			strconv.FormatUint(uint64(s.Link), 10),
			strconv.FormatUint(uint64(s.Info), 10),
			strconv.FormatUint(s.AddrAlign, 10),
		})
	}
	table.Render()
}

var sectionFlagLetters = []struct {
	flag   elf.SectionFlag
	letter byte
}{
	{elf.SHF_WRITE, 'W'},
	{elf.SHF_ALLOC, 'A'},
	{elf.SHF_EXECINSTR, 'X'},
	{elf.SHF_MERGE, 'M'},
	{elf.SHF_STRINGS, 'S'},
	{elf.SHF_INFO_LINK, 'I'},
	{elf.SHF_LINK_ORDER, 'L'},
	{elf.SHF_GROUP, 'G'},
	{elf.SHF_TLS, 'T'},
	{elf.SHF_COMPRESSED, 'C'},
}

func sectionFlags(f elf.SectionFlag) string {
	var b []byte
	for _, l := range sectionFlagLetters {
		if f&l.flag != 0 {
			b = append(b, l.letter)
		}
	}
	return string(b)
}

func Segments(w io.Writer, segments []elfinfo.Segment) {
	title(w, "Segments (%d):\n", len(segments))
	table := newTable(w, "Type", "Offset", "VirtAddr", "PhysAddr", "FileSize", "MemSize", "Flags", "Align")
	for _, s := range segments {
		table.Append([]string{
			enum(s.Type),
			hex(s.Offset),
			hex(s.VirtAddr),
			hex(s.PhysAddr),
			size(s.FileSize),
			size(s.MemSize),
			s.Flags.String(),
			hex(s.Align),
		})
	}
	table.Render()
}

// Symbols prints one table per symbol table, in the order the tables were
// decoded.
func Symbols(w io.Writer, symbols []elfinfo.Symbol) {
	for len(symbols) > 0 {
		n := 1
		for n < len(symbols) && symbols[n].TableIndex == symbols[0].TableIndex {
			n++
		}
		symbolTable(w, symbols[:n])
		symbols = symbols[n:]
	}
}

func symbolTable(w io.Writer, symbols []elfinfo.Symbol) {
	title(w, "Symbol table %s (%d entries):\n", symbols[0].Table, len(symbols))
	table := newTable(w, "Num", "Value", "Size", "Type", "Bind", "Vis", "Ndx", "Name")
	for _, s := range symbols {
		table.Append([]string{
			strconv.Itoa(s.Index),
			fmt.Sprintf("%016x", s.Value),
			strconv.FormatUint(s.Size, 10),
			enum(s.Type),
			enum(s.Bind),
			enum(s.Visibility),
			s.SectionIndex.String(),
			s.Name,
		})
	}
	table.Render()
}

// Relocations prints one table per relocation section.
func Relocations(w io.Writer, relocations []elfinfo.Relocation) {
	for len(relocations) > 0 {
		n := 1
		for n < len(relocations) && relocations[n].Section == relocations[0].Section {
			n++
		}
		relocationTable(w, relocations[:n])
		relocations = relocations[n:]
	}
}

func relocationTable(w io.Writer, relocations []elfinfo.Relocation) {
	title(w, "Relocation section %s (%d entries):\n", relocations[0].Section, len(relocations))
	table := newTable(w, "Offset", "Info", "Type", "Sym. Value", "Sym. Name + Addend", "PLT")
	for _, r := range relocations {
		name := r.SymbolName
		switch {
		case r.Addend > 0:
			name = fmt.Sprintf("%s + %x", name, r.Addend)
		case r.Addend < 0:
			name = fmt.Sprintf("%s - %x", name, -r.Addend)
		}
		table.Append([]string{
			fmt.Sprintf("%012x", r.Offset),
			fmt.Sprintf("%012x", r.Info),
			r.Kind.String(),
			fmt.Sprintf("%016x", r.SymbolValue),
			name,
			hex(r.PLTAddress),
		})
	}
	table.Render()
}

// Image prints every table of img. Decoding stops at the first error.
func Image(w io.Writer, img *elfinfo.Image) error {
	Header(w, img.Header())

	sections, err := img.Sections()
	if err != nil {
		return err
	}
	Sections(w, sections)

	segments, err := img.Segments()
	if err != nil {
		return err
	}
	Segments(w, segments)

	symbols, err := img.Symbols()
	if err != nil {
		return err
	}
	Symbols(w, symbols)

	relocations, err := img.Relocations()
	if err != nil {
		return err
	}
	Relocations(w, relocations)

	switch tag, err := img.ABITag(); {
	case err == nil:
		ABITag(w, tag)
	case !errors.Is(err, elfinfo.ErrNoABITag):
		return err
	}
	return nil
}

func ABITag(w io.Writer, tag *elfinfo.ABITag) {
	title(w, "ABI tag: ")
	fmt.Fprintf(w, "%s, kernel %s\n", tag.OS, tag.Kernel)
}
