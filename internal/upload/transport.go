// ABOUTME: Dual-strategy upload transport
// ABOUTME: Tries a direct PUT to storage, then falls back to the authenticated relay

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lmsgo/course-author/internal/client"
)

const (
	defaultUploadTimeout = 10 * time.Minute
	maxErrorDetails      = 2048
)

var errDirectDisabled = fmt.Errorf("%w: disabled by configuration", ErrDirectUnavailable)

// Options configures a Transport.
type Options struct {
	// Client carries relayed uploads so they share the session and its renewal.
	Client   *client.Client
	RelayURL string

	DirectDisabled bool
	// HTTPClient performs direct PUTs. It must not carry session cookies.
	HTTPClient *http.Client
	Timeout    time.Duration

	Resolver Resolver
	ProbeTTL time.Duration
}

// Transport moves bytes from a Source to a presigned storage URL.
type Transport struct {
	client         *client.Client
	relayURL       string
	directDisabled bool
	httpClient     *http.Client
	timeout        time.Duration
	probe          *prober
}

// NewTransport creates a transport. Close releases the probe cache.
func NewTransport(opts Options) *Transport {
	t := &Transport{
		client:         opts.Client,
		relayURL:       opts.RelayURL,
		directDisabled: opts.DirectDisabled,
		httpClient:     opts.HTTPClient,
		timeout:        opts.Timeout,
		probe:          newProber(opts.Resolver, opts.ProbeTTL),
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{}
	}
	// Presigned URLs are exact: a redirect means the object was not stored.
	copied := *t.httpClient
	copied.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	t.httpClient = &copied
	if t.timeout <= 0 {
		t.timeout = defaultUploadTimeout
	}
	return t
}

func (t *Transport) Close() {
	t.probe.close()
}

// Transfer uploads src to targetURL. A failed direct attempt is logged and
// followed by one relayed attempt; only when both fail is an *Error returned.
// onProgress sees 100 at least once on success and is never called after
// Transfer returns.
func (t *Transport) Transfer(ctx context.Context, targetURL string, src Source, onProgress ProgressFunc) error {
	target, err := url.Parse(targetURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return fmt.Errorf("invalid upload URL %q", redactURL(targetURL))
	}

	direct := newSession(src, targetURL, StrategyDirect, onProgress)
	directErr := t.direct(ctx, direct, target)
	direct.close()
	if directErr == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("upload of %s interrupted: %w", src.Name(), ctxErr)
	}

	if errors.Is(directErr, errDirectDisabled) {
		slog.Debug("Direct upload disabled, using relay", "file", src.Name())
	} else {
		slog.Warn("Direct upload failed, falling back to relay",
			"file", src.Name(),
			"host", target.Hostname(),
			"error", directErr,
		)
	}

	relayed := newSession(src, targetURL, StrategyRelayed, onProgress)
	defer relayed.close()
	relayed.start()

	if relayErr := t.relay(ctx, relayed); relayErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("upload of %s interrupted: %w", src.Name(), ctxErr)
		}
		return &Error{Direct: directErr, Relay: relayErr}
	}
	relayed.complete()
	return nil
}

func (t *Transport) direct(ctx context.Context, sess *Session, target *url.URL) error {
	if t.directDisabled {
		return errDirectDisabled
	}
	if err := t.probe.check(ctx, target.Hostname()); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	src := sess.Source
	var body io.ReadCloser = http.NoBody
	if src.Size() > 0 {
		f, err := src.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", src.Name(), err)
		}
		body = &progressReader{r: f, total: src.Size(), sess: sess}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sess.TargetURL, body)
	if err != nil {
		body.Close()
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = src.Size()
	req.Header.Set("Content-Type", ContentTypeOf(src))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the presigned URL; keep only the cause.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("direct PUT to %s: %w", target.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorDetails))
		return &StorageError{Status: resp.StatusCode, Details: strings.TrimSpace(string(details))}
	}
	io.Copy(io.Discard, resp.Body)

	sess.complete()
	return nil
}

func (t *Transport) relay(ctx context.Context, sess *Session) error {
	if t.client == nil || t.relayURL == "" {
		return errors.New("no upload relay configured")
	}

	body, err := newRelayBody(sess.TargetURL, sess.Source, sess)
	if err != nil {
		return err
	}

	_, err = t.client.Call(ctx, &client.Request{
		Method:  http.MethodPost,
		Path:    t.relayURL,
		Body:    body,
		Timeout: t.timeout,
	})
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

// redactURL strips the query string, which carries presigned credentials.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
