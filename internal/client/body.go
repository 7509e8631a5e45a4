// ABOUTME: Replayable request bodies
// ABOUTME: A body is reopened for each attempt so a renewed request can be resent

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Body produces a fresh reader for every attempt of a request.
type Body interface {
	ContentType() string
	Open() (io.ReadCloser, error)
}

type jsonBody struct {
	data []byte
}

// JSON encodes v once and replays the bytes on every attempt.
func JSON(v any) (Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return &jsonBody{data: data}, nil
}

func (b *jsonBody) ContentType() string { return "application/json" }

func (b *jsonBody) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// contentLength is implemented by bodies whose size is known up front.
type contentLength interface {
	Len() int64
}

func (b *jsonBody) Len() int64 { return int64(len(b.data)) }
