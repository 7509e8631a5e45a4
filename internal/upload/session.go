// ABOUTME: One transfer attempt and its progress reporting
// ABOUTME: Progress is monotonic per attempt and held below 100 until storage confirms

package upload

import (
	"io"
	"sync"
)

// ProgressFunc receives whole percentages in [0, 100].
type ProgressFunc func(percent int)

// Strategy names how bytes reach storage.
type Strategy string

const (
	StrategyDirect  Strategy = "direct"
	StrategyRelayed Strategy = "relayed"
)

// pendingCeiling is the highest percentage reported before storage acknowledges the bytes.
const pendingCeiling = 99

// Session is a single attempt to move a Source to a target URL.
type Session struct {
	Source    Source
	TargetURL string
	Strategy  Strategy

	mu         sync.Mutex
	percent    int
	closed     bool
	onProgress ProgressFunc
}

func newSession(src Source, targetURL string, strategy Strategy, onProgress ProgressFunc) *Session {
	return &Session{Source: src, TargetURL: targetURL, Strategy: strategy, onProgress: onProgress}
}

// Percent is the last percentage reported for this attempt.
func (s *Session) Percent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// start announces the attempt at 0%.
func (s *Session) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit(0)
}

// advance reports bytes sent, never going backwards and never reaching 100.
func (s *Session) advance(sent, total int64) {
	pct := pendingCeiling
	if total > 0 {
		pct = int(sent * 100 / total)
	}
	if pct > pendingCeiling {
		pct = pendingCeiling
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pct > s.percent {
		s.percent = pct
		s.emit(pct)
	}
}

// complete reports 100 once storage has acknowledged the bytes.
func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percent = 100
	s.emit(100)
}

// close silences the session; readers still draining in the HTTP
// transport cannot report after Transfer returns.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// emit must be called with s.mu held.
func (s *Session) emit(pct int) {
	if s.closed || s.onProgress == nil {
		return
	}
	s.onProgress(pct)
}

// progressReader counts bytes as the HTTP transport consumes them.
type progressReader struct {
	r     io.ReadCloser
	total int64
	sent  int64
	sess  *Session
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.sess.advance(p.sent, p.total)
	}
	return n, err
}

func (p *progressReader) Close() error {
	return p.r.Close()
}
