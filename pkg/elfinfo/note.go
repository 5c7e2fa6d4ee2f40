package elfinfo

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

const (
	noteHeaderSize = 12
	ntGNUABITag    = 1
)

type noteHeader struct {
	Namesz uint32
	Descsz uint32
	Type   uint32
}

type abiTagDesc struct {
	OS    uint32
	Major uint32
	Minor uint32
	Patch uint32
}

var abiTagOS = map[uint32]string{
	0: "Linux",
	1: "GNU",
	2: "Solaris",
	3: "FreeBSD",
}

// ABITag is the contents of a GNU .note.ABI-tag note: the operating system
// and the oldest kernel the image runs on.
type ABITag struct {
	OS     string
	Kernel *semver.Version
}

// ABITag decodes the .note.ABI-tag section. It returns ErrNoABITag when the
// image has no such section or the section holds no GNU ABI note.
// Notes that cannot be decoded yield an error matching ErrMalformedNote.
func (img *Image) ABITag() (*ABITag, error) {
	sections, err := img.Sections()
	if err != nil {
		return nil, err
	}
	s := sectionByName(sections, ".note.ABI-tag", SectionNote)
	if s == nil {
		return nil, ErrNoABITag
	}

	data := img.sectionData(s)
	for len(data) >= noteHeaderSize {
		var nh noteHeader
		if err := unpack(data[:noteHeaderSize], &nh); err != nil {
			return nil, errors.Wrapf(ErrMalformedNote, "reading note header: %v", err)
		}
		nameEnd := uint64(noteHeaderSize) + align4(uint64(nh.Namesz))
		descEnd := nameEnd + align4(uint64(nh.Descsz))
		if descEnd > uint64(len(data)) {
			return nil, errors.Wrapf(ErrMalformedNote, "note in %s overruns the section", s.Name)
		}
		name := cstring(data[noteHeaderSize:noteHeaderSize+uint64(nh.Namesz)], 0)
		if name == "GNU" && nh.Type == ntGNUABITag {
			if nh.Descsz < 16 {
				return nil, errors.Wrapf(ErrMalformedNote, "ABI tag descriptor is %d bytes", nh.Descsz)
			}
			var desc abiTagDesc
			if err := unpack(data[nameEnd:nameEnd+16], &desc); err != nil {
				return nil, errors.Wrapf(ErrMalformedNote, "reading ABI tag: %v", err)
			}
			osName, ok := abiTagOS[desc.OS]
			if !ok {
				osName = "unknown"
			}
			return &ABITag{
				OS:     osName,
				Kernel: semver.New(uint64(desc.Major), uint64(desc.Minor), uint64(desc.Patch), "", ""),
			}, nil
		}
		data = data[descEnd:]
	}
	return nil, ErrNoABITag
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
