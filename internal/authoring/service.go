// ABOUTME: Creates a course module from an authoring draft
// ABOUTME: Resolves the source, builds the module request, and posts it

package authoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmsgo/course-author/models"
)

// ModuleCreator is satisfied by *client.Client.
type ModuleCreator interface {
	CreateModule(ctx context.Context, courseID string, req models.ModuleRequest) (*models.Module, error)
}

// Draft is everything needed to create one module.
type Draft struct {
	Title           string
	ModuleType      string // empty picks a type from the material
	DurationMinutes int    // zero or negative omits the duration
	Input           Input
}

type Service struct {
	resolver *Resolver
	modules  ModuleCreator
}

func NewService(resolver *Resolver, modules ModuleCreator) *Service {
	return &Service{resolver: resolver, modules: modules}
}

// Create validates the draft, resolves its source, and creates the module.
// Nothing is written to the backend when validation fails.
func (s *Service) Create(ctx context.Context, courseID string, d Draft) (*models.Module, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, ErrCourseIDRequired
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	src, err := s.resolver.Resolve(ctx, d.Input)
	if err != nil {
		return nil, err
	}

	req := BuildRequest(d, src)
	module, err := s.modules.CreateModule(ctx, courseID, req)
	if err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	slog.Info("Module created", "course_id", courseID, "module_id", module.ID, "module_type", module.ModuleType, "mode", d.Input.Mode)
	return module, nil
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if d.ModuleType != "" && !models.ValidModuleType(d.ModuleType) {
		return fmt.Errorf("%w: %q", ErrInvalidModuleType, d.ModuleType)
	}
	return nil
}

// BuildRequest turns a draft and its resolved source into the backend payload.
func BuildRequest(d Draft, src Source) models.ModuleRequest {
	req := models.ModuleRequest{Title: strings.TrimSpace(d.Title)}

	implied := apply(&req, src)
	switch {
	case d.ModuleType != "":
		req.ModuleType = d.ModuleType
	case implied != "":
		req.ModuleType = implied
	default:
		req.ModuleType = models.ModuleTypeArticle
	}

	if d.DurationMinutes > 0 {
		seconds := d.DurationMinutes * 60
		req.DurationSeconds = &seconds
	}
	return req
}
