// ABOUTME: Ingest failure types keyed by lifecycle stage
// ABOUTME: A finalize-stage failure means the bytes landed but the metadata did not commit

package content

import (
	"errors"
	"fmt"
)

// Stage names the lifecycle step that failed.
type Stage string

const (
	StageRegister Stage = "register"
	StageTransfer Stage = "transfer"
	StageFinalize Stage = "finalize"
)

var (
	ErrNoSource     = errors.New("no file to ingest")
	ErrSizeMismatch = errors.New("declared size does not match file size")
)

// IngestError reports where ingestion stopped. ContentID is empty when
// registration itself failed.
type IngestError struct {
	Stage     Stage
	ContentID string
	Err       error
}

func (e *IngestError) Error() string {
	if e.ContentID == "" {
		return fmt.Sprintf("ingest failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("ingest failed at %s (content %s): %v", e.Stage, e.ContentID, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// IsFinalizeError reports whether err means the upload succeeded but the
// content was left as a draft.
func IsFinalizeError(err error) bool {
	var ie *IngestError
	return errors.As(err, &ie) && ie.Stage == StageFinalize
}
