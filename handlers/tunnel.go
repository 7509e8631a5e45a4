// ABOUTME: SSH+SOCKS5 tunnel for relay upstream connections
// ABOUTME: Lets the relay reach storage that is only routable through a jump host

package handlers

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloudfoundry/socks5-proxy"
)

// tunnelDialContext creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
// Returns nil when the proxy URL or key is unusable; the relay then dials directly.
func tunnelDialContext(allProxy string) func(ctx context.Context, network, address string) (net.Conn, error) {
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		slog.Error("Failed to parse RELAY_ALL_PROXY URL", "error", err)
		return nil
	}
	if proxyURL.Host == "" {
		slog.Error("RELAY_ALL_PROXY has no host")
		return nil
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	keyPath, err := sshKeyPath(proxyURL.Query().Get("private-key"))
	if err != nil {
		slog.Error("Invalid RELAY_ALL_PROXY private key", "error", err)
		return nil
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		slog.Error("Failed to read SSH private key", "path", keyPath, "error", err)
		return nil
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	// The SSH session is opened lazily on first dial and shared afterwards.
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		d := dialer
		mut.RUnlock()
		if d != nil {
			return d(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			d, err := socks5Proxy.Dialer(username, string(key), proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("creating SOCKS5 dialer: %w", err)
			}
			dialer = d
		}
		return dialer(network, address)
	}
}

// sshKeyPath rejects empty, relative, and traversing key paths.
func sshKeyPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("missing required 'private-key' query param")
	}
	if strings.Contains(p, "..") {
		return "", fmt.Errorf("private-key path %q must not contain '..'", p)
	}
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("private-key path %q must be absolute", p)
	}
	return filepath.Clean(p), nil
}
