// ABOUTME: Upload sources: named, typed, sized, reopenable byte streams
// ABOUTME: OpenFile sniffs the MIME type of files on disk

package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lmsgo/course-author/models"
)

// Source is a file to transfer. Open may be called more than once; each
// call returns an independent reader positioned at the start.
type Source interface {
	Name() string
	ContentType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// ContentTypeOf returns the source's MIME type or the generic binary type.
func ContentTypeOf(src Source) string {
	if ct := strings.TrimSpace(src.ContentType()); ct != "" {
		return ct
	}
	return models.DefaultMimeType
}

type fileSource struct {
	path        string
	name        string
	contentType string
	size        int64
}

// OpenFile describes a regular file on disk. The MIME type is sniffed from
// the content, then guessed from the extension when sniffing is inconclusive.
func OpenFile(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	contentType := models.DefaultMimeType
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}
	if contentType == models.DefaultMimeType {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			contentType = byExt
		}
	}

	return &fileSource{
		path:        path,
		name:        filepath.Base(path),
		contentType: contentType,
		size:        info.Size(),
	}, nil
}

func (f *fileSource) Name() string        { return f.name }
func (f *fileSource) ContentType() string { return f.contentType }
func (f *fileSource) Size() int64         { return f.size }

func (f *fileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

type bytesSource struct {
	name        string
	contentType string
	data        []byte
}

// Bytes wraps an in-memory payload as a Source.
func Bytes(name, contentType string, data []byte) Source {
	return &bytesSource{name: name, contentType: contentType, data: data}
}

func (b *bytesSource) Name() string        { return b.name }
func (b *bytesSource) ContentType() string { return b.contentType }
func (b *bytesSource) Size() int64         { return int64(len(b.data)) }

func (b *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
