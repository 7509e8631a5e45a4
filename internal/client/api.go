// ABOUTME: Typed wrappers for the backend endpoints used by course authoring
// ABOUTME: Auth, contents, and course modules

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lmsgo/course-author/models"
)

func decodeJSON(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req := &Request{Method: method, Path: path}
	if in != nil {
		body, err := JSON(in)
		if err != nil {
			return err
		}
		req.Body = body
	}
	return c.Do(ctx, req, out)
}

// Login establishes a cookie session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := JSON(models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	err = c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Query:  url.Values{"use_cookies": {"true"}},
		Body:   body,
	}, nil)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.session.renewed()
	return nil
}

// Logout ends the session server-side and always clears it locally.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Teardown()
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the authenticated profile.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListContents lists the organization's contents.
func (c *Client) ListContents(ctx context.Context) ([]models.Content, error) {
	var contents []models.Content
	if err := c.doJSON(ctx, http.MethodGet, "/contents", nil, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// GetContent fetches one content by id.
func (c *Client) GetContent(ctx context.Context, id string) (*models.Content, error) {
	var content models.Content
	if err := c.doJSON(ctx, http.MethodGet, "/contents/"+url.PathEscape(id), nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// CreateContent registers a draft content and returns its upload target.
func (c *Client) CreateContent(ctx context.Context, req models.CreateContentRequest) (*models.UploadTarget, error) {
	var target models.UploadTarget
	if err := c.doJSON(ctx, http.MethodPost, "/contents", req, &target); err != nil {
		return nil, err
	}
	return &target, nil
}

// FinalizeContent commits a draft once its bytes are in storage.
func (c *Client) FinalizeContent(ctx context.Context, id string, req models.FinalizeContentRequest) (*models.Content, error) {
	var content models.Content
	if err := c.doJSON(ctx, http.MethodPost, "/contents/"+url.PathEscape(id)+"/finalize", req, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// DownloadLink returns a presigned GET URL for a finalized content.
func (c *Client) DownloadLink(ctx context.Context, id string) (*models.DownloadLink, error) {
	var link models.DownloadLink
	if err := c.doJSON(ctx, http.MethodGet, "/contents/"+url.PathEscape(id)+"/download", nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// ListModules lists a course's modules in position order.
func (c *Client) ListModules(ctx context.Context, courseID string) ([]models.Module, error) {
	var modules []models.Module
	if err := c.doJSON(ctx, http.MethodGet, "/courses/"+url.PathEscape(courseID)+"/modules", nil, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// CreateModule appends a module to a course.
func (c *Client) CreateModule(ctx context.Context, courseID string, req models.ModuleRequest) (*models.Module, error) {
	var module models.Module
	if err := c.doJSON(ctx, http.MethodPost, "/courses/"+url.PathEscape(courseID)+"/modules", req, &module); err != nil {
		return nil, err
	}
	return &module, nil
}
