package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// File is an image selected for analysis. Type is the MIME type and Size the
// length in bytes, as a browser File would report them.
type File struct {
	Name string
	Type string
	Size int64

	open func() (io.ReadCloser, error)
}

// NewFile creates a File backed by an arbitrary opener.
func NewFile(name, mimeType string, size int64, open func() (io.ReadCloser, error)) *File {
	return &File{Name: name, Type: mimeType, Size: size, open: open}
}

// NewBytesFile creates an in-memory File. Size is taken from data.
func NewBytesFile(name, mimeType string, data []byte) *File {
	return NewFile(name, mimeType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FromPath creates a File for a file on disk. The MIME type is sniffed from
// the first bytes of the content rather than trusted from the extension.
func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mimeType, err := sniffType(path)
	if err != nil {
		return nil, err
	}

	return NewFile(filepath.Base(path), mimeType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path) //nolint:gosec // user-provided file path for upload
	}), nil
}

// FromMultipart wraps a file received in a multipart form.
func FromMultipart(fh *multipart.FileHeader) *File {
	mimeType := fh.Header.Get("Content-Type")
	return NewFile(filepath.Base(fh.Filename), mimeType, fh.Size, func() (io.ReadCloser, error) {
		return fh.Open()
	})
}

// Open returns a reader over the file content.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content", f.Name)
	}
	return f.open()
}

// ReadAll returns the whole file content.
func (f *File) ReadAll() ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", f.Name, err)
	}
	return data, nil
}

func sniffType(path string) (string, error) {
	file, err := os.Open(path) //nolint:gosec // user-provided file path for upload
	if err != nil {
		return "", fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("could not read file header: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}
