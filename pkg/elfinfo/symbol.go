package elfinfo

import (
	"debug/elf"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Symbol is one entry of a .symtab or .dynsym table. Index is the ordinal
// within the owning table only; two tables may both contain a symbol 3.
type Symbol struct {
	Index        int
	Name         string
	Value        uint64
	Size         uint64
	Type         SymbolType
	Bind         SymbolBind
	Visibility   SymbolVisibility
	SectionIndex SectionIndex
	Table        string
	TableIndex   int
}

// Symbols decodes every SHT_SYMTAB and SHT_DYNSYM section in section order.
// SHT_SYMTAB names come from .strtab and SHT_DYNSYM names from .dynstr;
// when the string table is missing the names are left empty.
func (img *Image) Symbols() ([]Symbol, error) {
	sections, err := img.Sections()
	if err != nil {
		return nil, err
	}
	return img.symbols(sections)
}

func (img *Image) symbols(sections []Section) ([]Symbol, error) {
	strtab := img.stringTable(sections, ".strtab")
	dynstr := img.stringTable(sections, ".dynstr")

	var symbols []Symbol
	for i := range sections {
		sec := &sections[i]
		var names []byte
		switch sec.Type {
		case SectionSymbolTable:
			names = strtab
		case SectionDynamicSymbolTable:
			names = dynstr
		default:
			continue
		}
		if names == nil {
			level.Debug(img.logger).Log("msg", "symbol names unavailable", "err", ErrMissingStringTable, "table", sec.Name)
		}

		recs, err := img.records(table{
			name:       "symbol table " + sec.Name,
			offset:     sec.Offset,
			entrySize:  symbolSize,
			recordSize: symbolSize,
			count:      sec.Size / symbolSize,
		})
		if err != nil {
			return nil, err
		}
		for j, rec := range recs {
			var sym elf.Sym64
			if err := unpack(rec, &sym); err != nil {
				return nil, errors.Wrapf(err, "reading symbol %d of %s", j, sec.Name)
			}
			symbols = append(symbols, Symbol{
				Index:        j,
				Name:         cstring(names, sym.Name),
				Value:        sym.Value,
				Size:         sym.Size,
				Type:         SymbolType(sym.Info & 0xf),
				Bind:         SymbolBind(sym.Info >> 4),
				Visibility:   SymbolVisibility(sym.Other & 0x3),
				SectionIndex: SectionIndex(sym.Shndx),
				Table:        sec.Name,
				TableIndex:   sec.Index,
			})
		}
	}
	return symbols, nil
}

// stringTable returns the contents of the SHT_STRTAB section called name,
// or nil if there is none.
func (img *Image) stringTable(sections []Section, name string) []byte {
	s := sectionByName(sections, name, SectionStringTable)
	if s == nil {
		return nil
	}
	return img.sectionData(s)
}
