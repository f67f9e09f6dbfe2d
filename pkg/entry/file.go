package entry

import (
	"os"

	"xdgdesk/internal/errors"
)

// File is a read-only view of a file on disk, memory mapped where the
// platform allows it. The bytes stay valid until Close.
type File struct {
	path   string
	f      *os.File
	data   []byte
	mapped bool
}

// Open maps path read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := errors.FileAccessDenied
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		return nil, errors.NewFileError("failed to open file", path, kind, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewFileError("failed to stat file", path, errors.FileAccessDenied, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, errors.NewFileError("not a regular file", path, errors.InvalidPath, nil)
	}

	file := &File{path: path, f: f}
	if info.Size() == 0 {
		return file, nil
	}

	file.data, file.mapped, err = mapFile(f, int(info.Size()))
	if err != nil {
		f.Close()
		return nil, errors.NewFileError("failed to map file", path, errors.FileOperationFailed, err)
	}
	return file, nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Bytes returns the file contents. The slice must not be used after Close.
func (f *File) Bytes() []byte {
	return f.data
}

// Parse tokenizes the file contents into v.
func (f *File) Parse(v Visitor) {
	Parse(f.data, v)
}

// Close unmaps the contents and closes the underlying file.
func (f *File) Close() error {
	var err error
	if f.mapped {
		err = unmapFile(f.data)
		f.mapped = false
	}
	f.data = nil
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ParseFile opens path, tokenizes it into v and closes it again.
func ParseFile(path string, v Visitor) error {
	f, err := Open(path)
	if err != nil {
		return err
	}
	f.Parse(v)
	return f.Close()
}
