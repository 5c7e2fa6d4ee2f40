package elfinfo

import (
	"debug/elf"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Section is one entry of the section header table.
type Section struct {
	Index     int
	Name      string
	Type      SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	EntrySize uint64
	AddrAlign uint64
	Link      uint32
	Info      uint32
}

// Sections decodes the section header table in table order. A section of a
// file-backed type whose contents extend past the end of the image is
// reported as a TruncatedTableError.
func (img *Image) Sections() ([]Section, error) {
	h := img.header
	recs, err := img.records(table{
		name:       "section header table",
		offset:     h.SectionHeaderOffset,
		entrySize:  uint64(h.SectionHeaderEntrySize),
		recordSize: sectionHeaderSize,
		count:      uint64(h.SectionHeaderCount),
	})
	if err != nil {
		return nil, err
	}

	raw := make([]elf.Section64, 0, h.SectionHeaderCount)
	for i, rec := range recs {
		var sh elf.Section64
		if err := unpack(rec, &sh); err != nil {
			return nil, errors.Wrapf(err, "reading section header %d", i)
		}
		raw = append(raw, sh)
	}

	var shstrtab []byte
	if int(h.SectionNameTableIndex) < len(raw) {
		names := raw[h.SectionNameTableIndex]
		shstrtab = img.extent(names.Off, names.Size)
	} else if len(raw) > 0 {
		level.Debug(img.logger).Log("msg", "section names unavailable", "err", ErrMissingStringTable, "shstrndx", h.SectionNameTableIndex)
	}

	sections := make([]Section, 0, len(raw))
	for i, sh := range raw {
		s := Section{
			Index:     i,
			Name:      cstring(shstrtab, sh.Name),
			Type:      SectionType(sh.Type),
			Flags:     elf.SectionFlag(sh.Flags),
			Addr:      sh.Addr,
			Offset:    sh.Off,
			Size:      sh.Size,
			EntrySize: sh.Entsize,
			AddrAlign: sh.Addralign,
			Link:      sh.Link,
			Info:      sh.Info,
		}
		if s.Type.fileBacked() {
			if err := img.checkRange("section "+s.Name, s.Offset, s.Size); err != nil {
				return nil, err
			}
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// sectionData returns the contents of a file-backed section. Sections
// returned by Sections have already been bounds checked.
func (img *Image) sectionData(s *Section) []byte {
	if !s.Type.fileBacked() {
		return nil
	}
	return img.extent(s.Offset, s.Size)
}

// sectionByName returns the first section called name, optionally also
// requiring typ. Section counts are small, a linear scan is enough.
func sectionByName(sections []Section, name string, typ ...SectionType) *Section {
	for i := range sections {
		s := &sections[i]
		if s.Name != name {
			continue
		}
		if len(typ) > 0 && s.Type != typ[0] {
			continue
		}
		return s
	}
	return nil
}
