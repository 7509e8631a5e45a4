// ABOUTME: Content lifecycle: register a draft, transfer its bytes, finalize it
// ABOUTME: Each stage failure is reported distinctly; nothing is retried automatically

package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmsgo/course-author/internal/upload"
	"github.com/lmsgo/course-author/models"
)

// State is how far an ingest has progressed.
type State string

const (
	StateRequested   State = "requested"
	StateRegistered  State = "registered"
	StateTransferred State = "transferred"
	StateFinalized   State = "finalized"
)

// Backend is the subset of the API client the lifecycle needs.
type Backend interface {
	CreateContent(ctx context.Context, req models.CreateContentRequest) (*models.UploadTarget, error)
	FinalizeContent(ctx context.Context, id string, req models.FinalizeContentRequest) (*models.Content, error)
}

// Transferer moves bytes to a presigned URL.
type Transferer interface {
	Transfer(ctx context.Context, targetURL string, src upload.Source, onProgress upload.ProgressFunc) error
}

// Recorder persists stage transitions. cause is non-nil when the step after
// state failed.
type Recorder interface {
	Record(ctx context.Context, c *models.Content, state State, cause error) error
}

// Metadata describes the content to register. Empty fields are derived
// from the source; a non-zero SizeBytes must match the source exactly.
type Metadata struct {
	Name      string
	MimeType  string
	SizeBytes int64
	Extra     map[string]any
}

type Manager struct {
	backend   Backend
	transport Transferer
	journal   Recorder
}

// NewManager wires the lifecycle. journal may be nil.
func NewManager(backend Backend, transport Transferer, journal Recorder) *Manager {
	return &Manager{backend: backend, transport: transport, journal: journal}
}

// Ingest registers, uploads, and finalizes src. Progress is forwarded from
// the transport unchanged until ctx is done. If ctx ends while a stage is in
// flight the outcome is dropped and ctx.Err() is returned.
func (m *Manager) Ingest(ctx context.Context, meta Metadata, src upload.Source, onProgress upload.ProgressFunc) (*models.Content, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	req, err := normalize(meta, src)
	if err != nil {
		return nil, err
	}

	target, err := m.backend.CreateContent(ctx, req)
	if err != nil {
		return nil, m.fail(ctx, StageRegister, "", err)
	}
	if target.UploadURL == "" || target.Content.ID == "" {
		return nil, m.fail(ctx, StageRegister, target.Content.ID, fmt.Errorf("backend returned an incomplete upload target"))
	}
	if target.Content.Status != models.ContentDraft {
		return nil, m.fail(ctx, StageRegister, target.Content.ID, fmt.Errorf("registered content is %s, expected draft", target.Content.Status))
	}

	draft := &target.Content
	m.record(ctx, draft, StateRegistered, nil)
	slog.Info("Content registered", "content_id", draft.ID, "name", req.Name, "size_bytes", req.SizeBytes)

	forward := func(pct int) {
		if onProgress != nil && ctx.Err() == nil {
			onProgress(pct)
		}
	}
	if err := m.transport.Transfer(ctx, target.UploadURL, src, forward); err != nil {
		m.record(ctx, draft, StateRegistered, err)
		return nil, m.fail(ctx, StageTransfer, draft.ID, err)
	}
	m.record(ctx, draft, StateTransferred, nil)

	finalized, err := m.backend.FinalizeContent(ctx, draft.ID, models.FinalizeContentRequest{
		Name:      req.Name,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
		Metadata:  req.Metadata,
	})
	if err == nil && !finalized.Finalized() {
		err = fmt.Errorf("finalized content is %s", finalized.Status)
	}
	if err != nil {
		m.record(ctx, draft, StateTransferred, err)
		return nil, m.fail(ctx, StageFinalize, draft.ID, err)
	}
	m.record(ctx, finalized, StateFinalized, nil)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	slog.Info("Content finalized", "content_id", finalized.ID, "storage_key", finalized.StorageKey)
	return finalized, nil
}

// fail prefers the context's error so a caller that has gone away sees why.
func (m *Manager) fail(ctx context.Context, stage Stage, contentID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &IngestError{Stage: stage, ContentID: contentID, Err: err}
}

func (m *Manager) record(ctx context.Context, c *models.Content, state State, cause error) {
	if m.journal == nil {
		return
	}
	// The journal outlives the caller's interest in the ingest.
	if err := m.journal.Record(context.WithoutCancel(ctx), c, state, cause); err != nil {
		slog.Warn("Failed to journal ingest stage", "content_id", c.ID, "state", state, "error", err)
	}
}

func normalize(meta Metadata, src upload.Source) (models.CreateContentRequest, error) {
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = src.Name()
	}
	if name == "" {
		return models.CreateContentRequest{}, fmt.Errorf("content name is required")
	}

	mimeType := strings.TrimSpace(meta.MimeType)
	if mimeType == "" {
		mimeType = upload.ContentTypeOf(src)
	}

	size := src.Size()
	if meta.SizeBytes != 0 && meta.SizeBytes != size {
		return models.CreateContentRequest{}, fmt.Errorf("%w: declared %d, file has %d", ErrSizeMismatch, meta.SizeBytes, size)
	}

	return models.CreateContentRequest{
		Name:      name,
		MimeType:  mimeType,
		SizeBytes: size,
		Metadata:  meta.Extra,
	}, nil
}
