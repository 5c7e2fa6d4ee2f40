package elfinfo

import (
	"debug/elf"

	"github.com/pkg/errors"

	"github.com/flightctl/elf-parser/internal/mapfile"
)

// ElfInfo summarizes an executable: how it is linked, what it is loaded
// by, and its sections, segments and symbols.
type ElfInfo struct {
	IsElf       bool
	IsStatic    bool
	Type        elf.Type
	Entry       uint64
	Interpreter string
	Sections    []string
	Segments    []Segment
	Symbols     []Symbol
	ABI         *ABITag
}

// ReadFile maps the file at path and summarizes it. Files that are not
// ELF64 images fail with an error matching ErrUnsupportedFormat.
func ReadFile(path string, opts ...Option) (*ElfInfo, error) {
	f, err := mapfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := New(f.Bytes(), opts...)
	if err != nil {
		return nil, err
	}
	return Inspect(img)
}

// Inspect summarizes img. Every returned value is a copy, so the summary
// stays usable after the image buffer is released.
func Inspect(img *Image) (*ElfInfo, error) {
	info := &ElfInfo{
		IsElf: true,
		Type:  img.header.Type,
		Entry: img.Entry(),
	}

	segments, err := img.Segments()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read segments")
	}
	info.Segments = segments
	info.IsStatic = isStatic(segments)
	if !info.IsStatic {
		if info.Interpreter, err = img.Interpreter(); err != nil {
			return nil, errors.Wrap(err, "failed to read interpreter")
		}
	}

	sections, err := img.Sections()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sections")
	}
	info.Sections = getSectionNames(sections)

	if info.Symbols, err = img.symbols(sections); err != nil {
		return nil, errors.Wrap(err, "failed to read symbols")
	}

	switch abi, err := img.ABITag(); {
	case err == nil:
		info.ABI = abi
	case !errors.Is(err, ErrNoABITag):
		return nil, errors.Wrap(err, "failed to read ABI tag")
	}
	return info, nil
}

// isStatic returns whether an ELF executable is a statically-linked binary.
func isStatic(segments []Segment) bool {
	for _, s := range segments {
		// Static binaries do not have a PT_INTERP program.
		if s.Type == SegmentInterp {
			return false
		}
	}
	return true
}

func getSectionNames(sections []Section) []string {
	sectionNames := make([]string, len(sections))
	for i, s := range sections {
		sectionNames[i] = s.Name
	}
	return sectionNames
}
