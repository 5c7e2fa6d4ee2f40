package elfinfo

import (
	"debug/elf"
	"strings"

	"github.com/pkg/errors"
)

// Segment is one entry of the program header table.
type Segment struct {
	Type     SegmentType
	Flags    SegmentFlags
	Offset   uint64
	VirtAddr uint64
	PhysAddr uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

// Segments decodes the program header table in table order.
func (img *Image) Segments() ([]Segment, error) {
	h := img.header
	recs, err := img.records(table{
		name:       "program header table",
		offset:     h.ProgramHeaderOffset,
		entrySize:  uint64(h.ProgramHeaderEntrySize),
		recordSize: programHeaderSize,
		count:      uint64(h.ProgramHeaderCount),
	})
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, h.ProgramHeaderCount)
	for i, rec := range recs {
		var ph elf.Prog64
		if err := unpack(rec, &ph); err != nil {
			return nil, errors.Wrapf(err, "reading program header %d", i)
		}
		segments = append(segments, Segment{
			Type:     SegmentType(ph.Type),
			Flags:    SegmentFlags(ph.Flags),
			Offset:   ph.Off,
			VirtAddr: ph.Vaddr,
			PhysAddr: ph.Paddr,
			FileSize: ph.Filesz,
			MemSize:  ph.Memsz,
			Align:    ph.Align,
		})
	}
	return segments, nil
}

// Interpreter returns the program interpreter named by the PT_INTERP
// segment, or "" for images without one.
func (img *Image) Interpreter() (string, error) {
	segments, err := img.Segments()
	if err != nil {
		return "", err
	}
	for _, s := range segments {
		if s.Type != SegmentInterp {
			continue
		}
		if err := img.checkRange("interpreter", s.Offset, s.FileSize); err != nil {
			return "", err
		}
		return strings.TrimRight(string(img.extent(s.Offset, s.FileSize)), "\x00"), nil
	}
	return "", nil
}
