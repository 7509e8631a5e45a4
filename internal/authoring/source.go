// ABOUTME: Module source variants produced by the resolver
// ABOUTME: Content-bearing variants reference finalized content; data variants carry inline data

package authoring

import (
	"fmt"
	"strings"

	"github.com/lmsgo/course-author/internal/embed"
	"github.com/lmsgo/course-author/models"
)

// Mode selects how a module gets its material.
type Mode string

const (
	ModeExistingContent Mode = "existing-content"
	ModeUpload          Mode = "upload"
	ModeEmbeddedVideo   Mode = "embedded-video"
	ModeInlineText      Mode = "inline-text"
)

// Modes lists every supported mode in presentation order.
var Modes = []Mode{ModeExistingContent, ModeUpload, ModeEmbeddedVideo, ModeInlineText}

// ParseMode accepts a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Source is the resolved material for a module. The set of
// implementations is closed.
type Source interface {
	isSource()
}

// ExistingContent references content chosen from the catalog. Content is
// nil when no catalog was consulted.
type ExistingContent struct {
	ContentID string
	Content   *models.Content
}

// UploadedContent references content that was just ingested and finalized.
type UploadedContent struct {
	Content models.Content
}

// EmbeddedVideo is a normalized third-party video.
type EmbeddedVideo struct {
	URL      string
	EmbedURL string
}

// InlineText is rich text stored on the module itself.
type InlineText struct {
	HTML string
}

func (ExistingContent) isSource() {}
func (UploadedContent) isSource() {}
func (EmbeddedVideo) isSource()   {}
func (InlineText) isSource()      {}

// Data kinds stored in module data.
const (
	DataKindVideo    = embed.Kind
	DataKindRichText = "richtext"
)

// apply fills the content reference or the inline data for src, and returns
// the module type implied by the material ("" when nothing is implied).
func apply(req *models.ModuleRequest, src Source) string {
	switch s := src.(type) {
	case ExistingContent:
		id := s.ContentID
		req.ContentID = &id
		if s.Content != nil {
			return DetectModuleType(s.Content.MimeType)
		}
		return ""
	case UploadedContent:
		id := s.Content.ID
		req.ContentID = &id
		return DetectModuleType(s.Content.MimeType)
	case EmbeddedVideo:
		req.Data = map[string]any{
			"kind":      DataKindVideo,
			"url":       s.URL,
			"embed_url": s.EmbedURL,
		}
		return models.ModuleTypeVideo
	case InlineText:
		req.Data = map[string]any{
			"kind": DataKindRichText,
			"html": s.HTML,
		}
		return models.ModuleTypeArticle
	default:
		panic(fmt.Sprintf("authoring: unhandled source %T", src))
	}
}

// DetectModuleType guesses a module type from a MIME type, or "" when the
// type says nothing useful.
func DetectModuleType(mimeType string) string {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lower, "video"):
		return models.ModuleTypeVideo
	case strings.Contains(lower, "audio"):
		return models.ModuleTypeAudio
	case strings.Contains(lower, "pdf"):
		return models.ModuleTypePDF
	case strings.Contains(lower, "html"), strings.Contains(lower, "text"):
		return models.ModuleTypeArticle
	case strings.Contains(lower, "zip"):
		return models.ModuleTypeSCORM
	}
	return ""
}
