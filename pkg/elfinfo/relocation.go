package elfinfo

import (
	"debug/elf"

	"github.com/pkg/errors"
)

// Relocation is one entry of an SHT_RELA section.
type Relocation struct {
	Offset      uint64
	Info        uint64
	Addend      int64
	Kind        RelocationKind
	SymbolIndex uint32
	SymbolValue uint64
	SymbolName  string
	// PLTAddress is .plt's address plus (n+1) entry sizes, n being the
	// entry's position in its relocation section. It assumes the section's
	// entries map one to one, in order, onto PLT stubs after the reserved
	// first slot, which holds for lazily bound .rela.plt but is not checked.
	// Images without .plt get zero.
	PLTAddress uint64
	Section    string
}

// Relocations decodes every SHT_RELA section in section order. SHT_REL
// sections are not decoded.
//
// The referenced symbol is found by a linear scan over all decoded symbols.
// When the relocation section's sh_link names a symbol table only that
// table is searched, otherwise the first symbol with the right ordinal in
// any table is used. Unresolved symbols leave SymbolValue and SymbolName
// zero.
func (img *Image) Relocations() ([]Relocation, error) {
	sections, err := img.Sections()
	if err != nil {
		return nil, err
	}
	symbols, err := img.symbols(sections)
	if err != nil {
		return nil, err
	}

	var pltAddr, pltEntrySize uint64
	if plt := sectionByName(sections, ".plt"); plt != nil {
		pltAddr, pltEntrySize = plt.Addr, plt.EntrySize
	}

	var relocations []Relocation
	for i := range sections {
		sec := &sections[i]
		if sec.Type != SectionRelocationAddend {
			continue
		}
		recs, err := img.records(table{
			name:       "relocation table " + sec.Name,
			offset:     sec.Offset,
			entrySize:  relaSize,
			recordSize: relaSize,
			count:      sec.Size / relaSize,
		})
		if err != nil {
			return nil, err
		}

		symtab := -1
		if int(sec.Link) < len(sections) {
			switch sections[sec.Link].Type {
			case SectionSymbolTable, SectionDynamicSymbolTable:
				symtab = int(sec.Link)
			}
		}

		for j, rec := range recs {
			var rela elf.Rela64
			if err := unpack(rec, &rela); err != nil {
				return nil, errors.Wrapf(err, "reading relocation %d of %s", j, sec.Name)
			}
			r := Relocation{
				Offset:      rela.Off,
				Info:        rela.Info,
				Addend:      rela.Addend,
				Kind:        RelocationKind(elf.R_TYPE64(rela.Info)),
				SymbolIndex: elf.R_SYM64(rela.Info),
				PLTAddress:  pltAddr + uint64(j+1)*pltEntrySize,
				Section:     sec.Name,
			}
			if sym := lookupSymbol(symbols, symtab, r.SymbolIndex); sym != nil {
				r.SymbolValue, r.SymbolName = sym.Value, sym.Name
			}
			relocations = append(relocations, r)
		}
	}
	return relocations, nil
}

// lookupSymbol returns the symbol with the given ordinal, restricted to the
// table at section index symtab when symtab >= 0.
func lookupSymbol(symbols []Symbol, symtab int, index uint32) *Symbol {
	for i := range symbols {
		sym := &symbols[i]
		if symtab >= 0 && sym.TableIndex != symtab {
			continue
		}
		if sym.Index == int(index) {
			return sym
		}
	}
	return nil
}
