// ABOUTME: Multipart body for the same-origin upload relay
// ABOUTME: Streams {uploadUrl, file} without buffering the file in memory

package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
)

// Relay form field names.
const (
	FieldUploadURL = "uploadUrl"
	FieldFile      = "file"
)

// relayBody frames the file between a precomputed multipart head and tail so
// the exact length is known and every attempt can reopen the file.
type relayBody struct {
	src         Source
	sess        *Session
	contentType string
	head        []byte
	tail        []byte
}

func newRelayBody(targetURL string, src Source, sess *Session) (*relayBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField(FieldUploadURL, targetURL); err != nil {
		return nil, fmt.Errorf("failed to build relay form: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     FieldFile,
		"filename": src.Name(),
	}))
	header.Set("Content-Type", ContentTypeOf(src))
	if _, err := mw.CreatePart(header); err != nil {
		return nil, fmt.Errorf("failed to build relay form: %w", err)
	}
	head := bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build relay form: %w", err)
	}
	tail := bytes.Clone(buf.Bytes())

	return &relayBody{
		src:         src,
		sess:        sess,
		contentType: mw.FormDataContentType(),
		head:        head,
		tail:        tail,
	}, nil
}

func (b *relayBody) ContentType() string { return b.contentType }

func (b *relayBody) Len() int64 {
	return int64(len(b.head)) + b.src.Size() + int64(len(b.tail))
}

func (b *relayBody) Open() (io.ReadCloser, error) {
	f, err := b.src.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", b.src.Name(), err)
	}
	file := &progressReader{r: f, total: b.src.Size(), sess: b.sess}
	return &multiReadCloser{
		Reader: io.MultiReader(bytes.NewReader(b.head), file, bytes.NewReader(b.tail)),
		closer: file,
	}, nil
}

type multiReadCloser struct {
	io.Reader
	closer io.Closer
}

func (m *multiReadCloser) Close() error { return m.closer.Close() }
