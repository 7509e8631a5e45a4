// ABOUTME: Resolves authoring input for one of four modes into a module source
// ABOUTME: Only the selected mode's fields are read; validation happens before any backend write

package authoring

import (
	"context"
	"strings"

	"github.com/lmsgo/course-author/internal/content"
	"github.com/lmsgo/course-author/internal/embed"
	"github.com/lmsgo/course-author/internal/upload"
	"github.com/lmsgo/course-author/models"
)

// Input is the raw authoring form. Fields belonging to other modes are ignored.
type Input struct {
	Mode Mode

	// existing-content
	ContentID string

	// upload
	File       upload.Source
	FileName   string // overrides the file's own name when set
	OnProgress upload.ProgressFunc

	// embedded-video
	VideoURL string

	// inline-text
	HTML string
}

// Ingester is satisfied by *content.Manager.
type Ingester interface {
	Ingest(ctx context.Context, meta content.Metadata, src upload.Source, onProgress upload.ProgressFunc) (*models.Content, error)
}

type Resolver struct {
	ingester Ingester
	catalog  Catalog
}

// NewResolver builds a resolver. catalog may be nil, in which case any
// non-empty content id is accepted for existing-content.
func NewResolver(ingester Ingester, catalog Catalog) *Resolver {
	return &Resolver{ingester: ingester, catalog: catalog}
}

func (r *Resolver) Resolve(ctx context.Context, in Input) (Source, error) {
	switch in.Mode {
	case ModeExistingContent:
		return r.existing(ctx, strings.TrimSpace(in.ContentID))
	case ModeUpload:
		return r.upload(ctx, in)
	case ModeEmbeddedVideo:
		return resolveVideo(in.VideoURL)
	case ModeInlineText:
		return resolveText(in.HTML)
	default:
		return nil, ErrUnknownMode
	}
}

func (r *Resolver) existing(ctx context.Context, id string) (Source, error) {
	if id == "" {
		return nil, invalid(MissingSelection, "")
	}
	if r.catalog == nil {
		return ExistingContent{ContentID: id}, nil
	}

	c, err := r.catalog.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, invalid(MissingSelection, "content "+id+" is not in the catalog")
	}
	if !c.Finalized() {
		return nil, invalid(MissingSelection, "content "+id+" is "+string(c.Status))
	}
	return ExistingContent{ContentID: id, Content: c}, nil
}

func (r *Resolver) upload(ctx context.Context, in Input) (Source, error) {
	if in.File == nil {
		return nil, invalid(MissingFile, "")
	}
	c, err := r.ingester.Ingest(ctx, content.Metadata{Name: in.FileName}, in.File, in.OnProgress)
	if err != nil {
		return nil, err
	}
	if adder, ok := r.catalog.(interface{ Add(models.Content) }); ok {
		adder.Add(*c)
	}
	return UploadedContent{Content: *c}, nil
}

func resolveVideo(raw string) (Source, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, invalid(InvalidVideoURL, "")
	}
	v, ok := embed.Normalize(raw)
	if !ok {
		return nil, invalid(InvalidVideoURL, strings.TrimSpace(raw))
	}
	return EmbeddedVideo{URL: v.URL, EmbedURL: v.EmbedURL}, nil
}

func resolveText(fragment string) (Source, error) {
	if RenderedText(fragment) == "" {
		return nil, invalid(EmptyText, "")
	}
	return InlineText{HTML: strings.TrimSpace(fragment)}, nil
}
