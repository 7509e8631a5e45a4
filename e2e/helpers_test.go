// ABOUTME: Test helpers for e2e tests
// ABOUTME: Provides an LMS origin serving the API and the upload relay, plus a storage server

package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lmsgo/course-author/config"
	"github.com/lmsgo/course-author/handlers"
	"github.com/lmsgo/course-author/internal/client"
	"github.com/lmsgo/course-author/models"
)

// storageHost is the name the relay resolves to the storage server. The
// client side cannot resolve it.
const storageHost = "storage.internal"

type storage struct {
	*httptest.Server

	mu       sync.Mutex
	objects  map[string][]byte
	puts     int
	lastType string
}

func newStorage(t *testing.T) *storage {
	t.Helper()
	s := &storage{objects: make(map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Query().Get("X-Amz-Signature") == "" {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, "<Error><Code>AccessDenied</Code></Error>")
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.objects[r.URL.Path] = body
		s.puts++
		s.lastType = r.Header.Get("Content-Type")
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *storage) object(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[path]
	return b, ok
}

func (s *storage) contentType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastType
}

func (s *storage) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// port returns the storage listener's port.
func (s *storage) port() string {
	_, port, _ := net.SplitHostPort(s.Listener.Addr().String())
	return port
}

// lms is one origin serving the backend API under /api and the upload relay
// under /internal/upload-proxy, both behind a cookie session.
type lms struct {
	*httptest.Server
	storage *storage

	// uploadBase is where presigned URLs point.
	uploadBase string

	mu        sync.Mutex
	token     int
	refreshes int
	nextID    int
	contents  map[string]models.Content
	modules   []models.ModuleRequest
}

// newLMS starts the origin. allowed is the relay allow-list. The relay
// reaches storageHost through a dialer that maps it to the storage server.
func newLMS(t *testing.T, st *storage, allowed ...string) *lms {
	t.Helper()

	l := &lms{
		storage:    st,
		uploadBase: "http://" + storageHost + ":" + st.port(),
		token:      1,
		contents:   make(map[string]models.Content),
	}

	relay := handlers.NewHandler(&config.Config{
		AllowedHosts:     allowed,
		RelayMaxUploadMB: 16,
		UploadTimeout:    10 * time.Second,
	})
	storageAddr := st.Listener.Addr().String()
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	relay.SetHTTPClient(&http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if host, _, _ := net.SplitHostPort(addr); host == storageHost {
					addr = storageAddr
				}
				return dialer.DialContext(ctx, network, addr)
			},
		},
	})

	mux := http.NewServeMux()
	relayMux := http.NewServeMux()
	relay.Register(relayMux, nil)
	mux.Handle(handlers.UploadProxyPath, l.authenticated(relayMux.ServeHTTP))

	mux.HandleFunc("POST /api/auth/login", l.login)
	mux.HandleFunc("POST /api/auth/refresh", l.refresh)
	mux.HandleFunc("POST /api/contents", l.authenticated(l.createContent))
	mux.HandleFunc("POST /api/contents/{id}/finalize", l.authenticated(l.finalize))
	mux.HandleFunc("GET /api/contents", l.authenticated(l.listContents))
	mux.HandleFunc("POST /api/courses/{id}/modules", l.authenticated(l.createModule))

	l.Server = httptest.NewServer(mux)
	t.Cleanup(l.Close)
	return l
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (l *lms) currentToken() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strconv.Itoa(l.token)
}

// expireSession invalidates the cookie the client holds.
func (l *lms) expireSession() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token++
}

func (l *lms) refreshCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes
}

func (l *lms) issue(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: l.currentToken(), Path: "/", HttpOnly: true})
}

func (l *lms) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("access_token")
		if err != nil || c.Value != l.currentToken() {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Session expired"})
			return
		}
		next(w, r)
	}
}

func (l *lms) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
		return
	}
	l.issue(w)
	w.WriteHeader(http.StatusNoContent)
}

func (l *lms) refresh(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	l.refreshes++
	l.mu.Unlock()
	l.issue(w)
	w.WriteHeader(http.StatusNoContent)
}

func (l *lms) createContent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid body"})
		return
	}

	l.mu.Lock()
	l.nextID++
	id := "c" + strconv.Itoa(l.nextID)
	c := models.Content{
		ID:         id,
		Name:       req.Name,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
		StorageKey: "org-1/" + id,
		Status:     models.ContentDraft,
	}
	l.contents[id] = c
	l.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.UploadTarget{
		UploadURL: l.uploadBase + "/bucket/" + c.StorageKey + "?X-Amz-Signature=sig",
		ExpiresAt: time.Now().Add(time.Hour),
		Content:   c,
	})
}

func (l *lms) finalize(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.contents[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Content not found"})
		return
	}
	if _, stored := l.storage.object("/bucket/" + c.StorageKey); !stored {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Object not uploaded"})
		return
	}
	c.Status = models.ContentFinalized
	l.contents[c.ID] = c
	writeJSON(w, http.StatusOK, c)
}

func (l *lms) listContents(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := make([]models.Content, 0, len(l.contents))
	for _, c := range l.contents {
		list = append(list, c)
	}
	writeJSON(w, http.StatusOK, list)
}

func (l *lms) createModule(w http.ResponseWriter, r *http.Request) {
	var req models.ModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid body"})
		return
	}
	l.mu.Lock()
	l.modules = append(l.modules, req)
	n := len(l.modules)
	l.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.Module{
		ID:         "m" + strconv.Itoa(n),
		CourseID:   r.PathValue("id"),
		Title:      req.Title,
		ModuleType: req.ModuleType,
		ContentID:  req.ContentID,
		Position:   n,
		Data:       req.Data,
	})
}

// signIn returns a client with a live session on the origin.
func signIn(t *testing.T, l *lms) *client.Client {
	t.Helper()
	c := client.New(client.Options{BaseURL: l.URL + "/api", OrgID: "org-1"})
	if err := c.Login(context.Background(), "author@example.com", "secret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	return c
}

// unresolvable fails every lookup, as a client outside the storage network would.
type unresolvable struct{}

func (unresolvable) LookupHost(ctx context.Context, host string) ([]string, error) {
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}
