// ABOUTME: Capability probe deciding whether a storage host is directly reachable
// ABOUTME: Results are cached per host for the lifetime of a Transport

package upload

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/lmsgo/course-author/cache"
)

const (
	defaultProbeTTL     = 5 * time.Minute
	defaultProbeTimeout = 2 * time.Second
)

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type prober struct {
	resolver Resolver
	results  *cache.Cache[error]
	timeout  time.Duration
}

func newProber(resolver Resolver, ttl time.Duration) *prober {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if ttl <= 0 {
		ttl = defaultProbeTTL
	}
	return &prober{resolver: resolver, results: cache.New[error](ttl), timeout: defaultProbeTimeout}
}

// check returns nil when host resolves from this process. IP literals
// always pass.
func (p *prober) check(ctx context.Context, host string) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrDirectUnavailable)
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if err, ok := p.results.Get(host); ok {
		return err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var result error
	if _, err := p.resolver.LookupHost(lookupCtx, host); err != nil {
		// Caller gave up; that says nothing about the host.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		result = fmt.Errorf("%w: cannot resolve %s: %v", ErrDirectUnavailable, host, err)
	}

	slog.Debug("Storage host probed", "host", host, "reachable", result == nil)
	p.results.Set(host, result)
	return result
}

func (p *prober) close() {
	p.results.Close()
}
