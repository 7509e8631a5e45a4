// ABOUTME: Course module request/response models
// ABOUTME: Mirrors the backend POST courses/{id}/modules contract

package models

import "time"

// Module types understood by the backend.
const (
	ModuleTypePDF      = "pdf"
	ModuleTypeVideo    = "video"
	ModuleTypeAudio    = "audio"
	ModuleTypeArticle  = "article"
	ModuleTypeDocument = "document"
	ModuleTypeQuiz     = "quiz"
	ModuleTypeSCORM    = "scorm"
)

// ValidModuleType reports whether t is one of the known module types.
func ValidModuleType(t string) bool {
	switch t {
	case ModuleTypePDF, ModuleTypeVideo, ModuleTypeAudio, ModuleTypeArticle,
		ModuleTypeDocument, ModuleTypeQuiz, ModuleTypeSCORM:
		return true
	}
	return false
}

// ModuleRequest creates a module. ContentID and Data are mutually exclusive.
type ModuleRequest struct {
	Title           string         `json:"title"`
	ModuleType      string         `json:"module_type"`
	ContentID       *string        `json:"content_id,omitempty"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// Module is a course module as returned by the backend
type Module struct {
	ID              string         `json:"id"`
	CourseID        string         `json:"course_id"`
	Title           string         `json:"title"`
	ModuleType      string         `json:"module_type"`
	ContentID       *string        `json:"content_id,omitempty"`
	Position        int            `json:"position"`
	DurationSeconds int            `json:"duration_seconds"`
	Status          string         `json:"status"`
	Data            map[string]any `json:"data"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
