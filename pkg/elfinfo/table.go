package elfinfo

import (
	"bytes"
	"encoding/binary"
	"iter"
	"math/bits"

	"github.com/lunixbochs/struc"
)

// table describes count fixed-size records laid out entrySize bytes apart.
type table struct {
	name       string
	offset     uint64
	entrySize  uint64
	recordSize uint64
	count      uint64
}

// records returns the raw bytes of every record in t. The full extent of the
// table is checked against the image before anything is yielded, so the
// sequence itself cannot fail.
func (img *Image) records(t table) (iter.Seq2[int, []byte], error) {
	if t.count > 0 {
		end, ok := tableEnd(t)
		if !ok || end > uint64(len(img.data)) {
			return nil, &TruncatedTableError{
				Table:     t.name,
				Offset:    t.offset,
				EntrySize: t.entrySize,
				Count:     t.count,
				Length:    uint64(len(img.data)),
			}
		}
	}
	return func(yield func(int, []byte) bool) {
		for i := uint64(0); i < t.count; i++ {
			start := t.offset + i*t.entrySize
			if !yield(int(i), img.data[start:start+t.recordSize:start+t.recordSize]) {
				return
			}
		}
	}, nil
}

// tableEnd returns the end of the last record, reporting false on overflow.
func tableEnd(t table) (uint64, bool) {
	hi, last := bits.Mul64(t.count-1, t.entrySize)
	if hi != 0 {
		return 0, false
	}
	start, carry := bits.Add64(t.offset, last, 0)
	if carry != 0 {
		return 0, false
	}
	end, carry := bits.Add64(start, t.recordSize, 0)
	if carry != 0 {
		return 0, false
	}
	return end, true
}

// extent returns the bytes in [offset, offset+size) clipped to the image.
func (img *Image) extent(offset, size uint64) []byte {
	n := uint64(len(img.data))
	if offset >= n {
		return nil
	}
	end, carry := bits.Add64(offset, size, 0)
	if carry != 0 || end > n {
		end = n
	}
	return img.data[offset:end]
}

// cstring returns a copy of the NUL-terminated string at off within strtab.
// A string running off the end of the table is cut at the table boundary.
func cstring(strtab []byte, off uint32) string {
	if uint64(off) >= uint64(len(strtab)) {
		return ""
	}
	s := strtab[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

func unpack(b []byte, v interface{}) error {
	return struc.UnpackWithOrder(bytes.NewReader(b), v, binary.LittleEndian)
}

// checkRange reports a TruncatedTableError when [offset, offset+size) is
// not inside the image.
func (img *Image) checkRange(name string, offset, size uint64) error {
	if size == 0 {
		return nil
	}
	_, err := img.records(table{name: name, offset: offset, entrySize: size, recordSize: size, count: 1})
	return err
}
