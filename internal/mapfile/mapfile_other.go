//go:build !unix

package mapfile

import (
	"io"
	"os"
)

func mapFile(f *os.File, length int) ([]byte, func([]byte) error, error) {
	data := make([]byte, length)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}
