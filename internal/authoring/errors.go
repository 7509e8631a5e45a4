// ABOUTME: Validation failures for module authoring input
// ABOUTME: These never reach the backend

package authoring

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind string

const (
	MissingSelection Kind = "missing_selection"
	MissingFile      Kind = "missing_file"
	InvalidVideoURL  Kind = "invalid_video_url"
	EmptyText        Kind = "empty_text"
)

var (
	ErrUnknownMode       = errors.New("unknown authoring mode")
	ErrTitleRequired     = errors.New("module title is required")
	ErrInvalidModuleType = errors.New("unknown module type")
	ErrCourseIDRequired  = errors.New("course id is required")
)

// ValidationError reports input that cannot produce a module source.
type ValidationError struct {
	Kind   Kind
	Detail string
}

func (e *ValidationError) Error() string {
	msg := kindMessages[e.Kind]
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

var kindMessages = map[Kind]string{
	MissingSelection: "select an existing finalized content or upload a file",
	MissingFile:      "choose a file to upload",
	InvalidVideoURL:  "enter a valid YouTube link",
	EmptyText:        "the text content is empty",
}

// IsKind reports whether err is a ValidationError of kind k.
func IsKind(err error, k Kind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == k
}

func invalid(k Kind, detail string) error {
	return &ValidationError{Kind: k, Detail: detail}
}
