// ABOUTME: Organization content catalog, listed once per TTL
// ABOUTME: Existing-content selections are checked against it

package authoring

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lmsgo/course-author/cache"
	"github.com/lmsgo/course-author/models"
)

// Catalog answers whether a content id may be referenced. Lookup returns
// nil without error when the id is unknown.
type Catalog interface {
	Lookup(ctx context.Context, id string) (*models.Content, error)
}

// Lister is satisfied by *client.Client.
type Lister interface {
	ListContents(ctx context.Context) ([]models.Content, error)
}

const (
	catalogKey = "contents"

	// listTimeout bounds a shared listing once it no longer follows any
	// single caller's context.
	listTimeout = 30 * time.Second
)

// CachedCatalog lists contents through a Lister and keeps the result for a TTL.
type CachedCatalog struct {
	lister  Lister
	entries *cache.Cache[[]models.Content]
	sfGroup singleflight.Group
}

func NewCachedCatalog(lister Lister, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{lister: lister, entries: cache.New[[]models.Content](ttl)}
}

// List returns every content visible to the organization.
func (c *CachedCatalog) List(ctx context.Context) ([]models.Content, error) {
	if contents, ok := c.entries.Get(catalogKey); ok {
		return contents, nil
	}
	// The listing is shared, so it must outlive whichever caller started it.
	ch := c.sfGroup.DoChan(catalogKey, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()

		contents, err := c.lister.ListContents(lctx)
		if err != nil {
			return nil, err
		}
		c.entries.Set(catalogKey, contents)
		return contents, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for content listing: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Content), nil
	}
}

// Finalized lists only contents a module may reference.
func (c *CachedCatalog) Finalized(ctx context.Context) ([]models.Content, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Content, 0, len(all))
	for _, content := range all {
		if content.Finalized() {
			out = append(out, content)
		}
	}
	return out, nil
}

func (c *CachedCatalog) Lookup(ctx context.Context, id string) (*models.Content, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			content := all[i]
			return &content, nil
		}
	}
	return nil, nil
}

// Add makes freshly finalized content visible without waiting for the TTL.
func (c *CachedCatalog) Add(content models.Content) {
	if contents, ok := c.entries.Get(catalogKey); ok {
		updated := append([]models.Content{content}, contents...)
		c.entries.Set(catalogKey, updated)
	}
}

// Invalidate forces the next List to hit the backend.
func (c *CachedCatalog) Invalidate() {
	c.entries.Clear(catalogKey)
}

func (c *CachedCatalog) Close() {
	c.entries.Close()
}
