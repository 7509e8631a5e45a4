// ABOUTME: Data models for contents, upload targets, and API error responses
// ABOUTME: JSON-serializable structures matching the LMS backend contract

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultMimeType is used whenever a file's type cannot be determined.
const DefaultMimeType = "application/octet-stream"

// ContentStatus is the lifecycle status of a stored content object.
type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentFinalized ContentStatus = "finalized"
	ContentArchived  ContentStatus = "archived"
)

// ParseContentStatus maps backend wire values onto the client statuses.
// The backend reports drafts as "pending" and finalized objects as "available".
func ParseContentStatus(s string) ContentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "draft":
		return ContentDraft
	case "available", "finalized":
		return ContentFinalized
	case "archived":
		return ContentArchived
	default:
		return ContentStatus(s)
	}
}

// UnmarshalJSON normalizes backend aliases.
func (s *ContentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseContentStatus(raw)
	return nil
}

// Content is the client's projection of a backend content record
type Content struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	MimeType   string         `json:"mime_type"`
	SizeBytes  int64          `json:"size_bytes"`
	StorageKey string         `json:"storage_key"`
	Status     ContentStatus  `json:"status"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Finalized reports whether the content may be referenced by a module.
func (c *Content) Finalized() bool {
	return c != nil && c.Status == ContentFinalized
}

// UploadTarget is returned by the register step. It is single-use and
// bound to exactly one draft Content.
type UploadTarget struct {
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
	Content   Content   `json:"content"`
}

// CreateContentRequest registers a new draft content
type CreateContentRequest struct {
	Name      string         `json:"name"`
	MimeType  string         `json:"mime_type"`
	SizeBytes int64          `json:"size_bytes"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FinalizeContentRequest re-sends the registered attributes for consistency checking
type FinalizeContentRequest struct {
	Name      string         `json:"name,omitempty"`
	MimeType  string         `json:"mime_type,omitempty"`
	SizeBytes int64          `json:"size_bytes,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// DownloadLink is a presigned GET URL for a finalized content
type DownloadLink struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// RelayErrorResponse is returned by the upload relay when the upstream
// storage rejects a transfer.
type RelayErrorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}
