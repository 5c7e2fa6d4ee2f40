// Package mapfile provides read-only access to the contents of a file,
// memory-mapped where the platform supports it.
package mapfile

import (
	"os"

	"github.com/pkg/errors"
)

// File is the read-only contents of a file. Bytes must not be used after
// Close.
type File struct {
	data  []byte
	unmap func([]byte) error
}

// Open maps the file at path read-only. Empty files are returned with an
// empty, unmapped buffer.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}
	if !fi.Mode().IsRegular() {
		return nil, errors.Errorf("%s is not a regular file", path)
	}
	if fi.Size() == 0 {
		return &File{}, nil
	}
	if int64(int(fi.Size())) != fi.Size() {
		return nil, errors.Errorf("%s is too large to map (%d bytes)", path, fi.Size())
	}

	data, unmap, err := mapFile(f, int(fi.Size()))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %s", path)
	}
	return &File{data: data, unmap: unmap}, nil
}

func (f *File) Bytes() []byte {
	return f.data
}

func (f *File) Len() int {
	return len(f.data)
}

// Close releases the mapping. It is safe to call more than once.
func (f *File) Close() error {
	data, unmap := f.data, f.unmap
	f.data, f.unmap = nil, nil
	if unmap == nil {
		return nil
	}
	return unmap(data)
}
