//go:build !unix

package entry

import (
	"io"
	"os"
)

func mapFile(f *os.File, size int) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(f, int64(size)))
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

func unmapFile([]byte) error {
	return nil
}
