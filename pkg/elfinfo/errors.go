package elfinfo

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedFormat is matched by every FormatError.
	ErrUnsupportedFormat = errors.New("unsupported ELF format")
	// ErrTruncatedTable is matched by every TruncatedTableError.
	ErrTruncatedTable = errors.New("truncated table")
	// ErrMissingStringTable is never returned by a decoder. Names that
	// cannot be resolved decode as empty strings and the condition is
	// logged at debug level.
	ErrMissingStringTable = errors.New("missing string table")
	// ErrNoABITag is returned by ABITag when the image has no
	// .note.ABI-tag section.
	ErrNoABITag = errors.New("ABI tag note not found")
	// ErrMalformedNote is returned by ABITag when a note in
	// .note.ABI-tag cannot be decoded. The image itself stays usable.
	ErrMalformedNote = errors.New("malformed note")
)

// FormatError reports a buffer that is not a supported ELF image.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnsupportedFormat, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// TruncatedTableError reports a table whose declared records do not fit
// in the image.
type TruncatedTableError struct {
	Table     string
	Offset    uint64
	EntrySize uint64
	Count     uint64
	Length    uint64
}

func (e *TruncatedTableError) Error() string {
	return fmt.Sprintf("%v: %s (offset 0x%x, %d entries of %d bytes) exceeds image length %d",
		ErrTruncatedTable, e.Table, e.Offset, e.Count, e.EntrySize, e.Length)
}

func (e *TruncatedTableError) Is(target error) bool {
	return target == ErrTruncatedTable
}

func formatErrorf(format string, a ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, a...)}
}
