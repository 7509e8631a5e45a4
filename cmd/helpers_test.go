// ABOUTME: Test helpers for command tests
// ABOUTME: Provides a fake LMS backend, a fake object store, and environment setup

package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lmsgo/course-author/models"
)

// fakeLMS serves the subset of the backend API the commands use.
type fakeLMS struct {
	*httptest.Server
	storage *fakeStorage

	mu             sync.Mutex
	contents       []models.Content
	modules        []models.ModuleRequest
	requests       int
	finalizeStatus int  // non-zero fails finalize with this status
	expired        bool // every non-auth request and refresh is rejected
}

func newFakeLMS(t *testing.T, contents ...models.Content) *fakeLMS {
	t.Helper()

	lms := &fakeLMS{contents: contents, storage: newFakeStorage(t)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", lms.login)
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeFake(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Refresh token expired"})
	})
	mux.HandleFunc("GET /api/auth/me", lms.me)
	mux.HandleFunc("GET /api/contents", lms.listContents)
	mux.HandleFunc("POST /api/contents", lms.createContent)
	mux.HandleFunc("GET /api/contents/{id}", lms.getContent)
	mux.HandleFunc("POST /api/contents/{id}/finalize", lms.finalize)
	mux.HandleFunc("GET /api/contents/{id}/download", lms.download)
	mux.HandleFunc("GET /api/courses/{id}/modules", lms.listModules)
	mux.HandleFunc("POST /api/courses/{id}/modules", lms.createModule)

	lms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lms.mu.Lock()
		lms.requests++
		expired := lms.expired
		lms.mu.Unlock()

		if expired && r.URL.Path != "/api/auth/login" && r.URL.Path != "/api/auth/refresh" {
			writeFake(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Session expired"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(lms.Close)
	return lms
}

func writeFake(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (l *fakeLMS) requestCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests
}

func (l *fakeLMS) createdModules() []models.ModuleRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ModuleRequest(nil), l.modules...)
}

func (l *fakeLMS) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "secret" {
		writeFake(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok", Path: "/"})
	writeFake(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (l *fakeLMS) me(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie("access_token"); err != nil {
		writeFake(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not signed in"})
		return
	}
	var p models.Profile
	p.User.ID = "u1"
	p.User.Email = "author@example.com"
	p.User.Role = "instructor"
	p.Organization.Name = "Acme Academy"
	p.Organization.Slug = "acme"
	writeFake(w, http.StatusOK, p)
}

func (l *fakeLMS) listContents(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	writeFake(w, http.StatusOK, l.contents)
}

func (l *fakeLMS) find(id string) (int, bool) {
	for i, c := range l.contents {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (l *fakeLMS) getContent(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.find(r.PathValue("id"))
	if !ok {
		writeFake(w, http.StatusNotFound, models.ErrorResponse{Error: "Content not found"})
		return
	}
	writeFake(w, http.StatusOK, l.contents[i])
}

func (l *fakeLMS) createContent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFake(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid body"})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	c := models.Content{
		ID:         "c-new",
		Name:       req.Name,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
		StorageKey: "org/c-new",
		Status:     models.ContentDraft,
	}
	l.contents = append(l.contents, c)
	writeFake(w, http.StatusCreated, models.UploadTarget{
		UploadURL: l.storage.URL + "/bucket/org/c-new?X-Amz-Signature=abc",
		ExpiresAt: time.Now().Add(time.Hour),
		Content:   c,
	})
}

func (l *fakeLMS) finalize(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finalizeStatus != 0 {
		writeFake(w, l.finalizeStatus, models.ErrorResponse{Error: "Finalize failed"})
		return
	}
	i, ok := l.find(r.PathValue("id"))
	if !ok {
		writeFake(w, http.StatusNotFound, models.ErrorResponse{Error: "Content not found"})
		return
	}
	l.contents[i].Status = models.ContentFinalized
	writeFake(w, http.StatusOK, l.contents[i])
}

func (l *fakeLMS) download(w http.ResponseWriter, r *http.Request) {
	writeFake(w, http.StatusOK, models.DownloadLink{
		DownloadURL: l.storage.URL + "/bucket/" + r.PathValue("id") + "?X-Amz-Signature=dl",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
}

func (l *fakeLMS) listModules(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	modules := make([]models.Module, 0, len(l.modules))
	for i, req := range l.modules {
		modules = append(modules, moduleFrom(r.PathValue("id"), i, req))
	}
	writeFake(w, http.StatusOK, modules)
}

func (l *fakeLMS) createModule(w http.ResponseWriter, r *http.Request) {
	var req models.ModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFake(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid body"})
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.modules = append(l.modules, req)
	writeFake(w, http.StatusCreated, moduleFrom(r.PathValue("id"), len(l.modules)-1, req))
}

func moduleFrom(courseID string, i int, req models.ModuleRequest) models.Module {
	m := models.Module{
		ID:         "m" + strconv.Itoa(i+1),
		CourseID:   courseID,
		Title:      req.Title,
		ModuleType: req.ModuleType,
		ContentID:  req.ContentID,
		Position:   i + 1,
		Data:       req.Data,
	}
	if req.DurationSeconds != nil {
		m.DurationSeconds = *req.DurationSeconds
	}
	return m
}

// fakeStorage accepts presigned PUTs.
type fakeStorage struct {
	*httptest.Server

	mu       sync.Mutex
	received []byte
	puts     int
}

func newFakeStorage(t *testing.T) *fakeStorage {
	t.Helper()
	s := &fakeStorage{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.received = body
		s.puts++
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeStorage) body() ([]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received, s.puts
}

// useLMS points configuration at lms with valid credentials and isolates
// the journal and recent-files state in temporary directories.
func useLMS(t *testing.T, lms *fakeLMS) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("APP_ENV", "production")
	t.Setenv("LMS_API_URL", lms.URL+"/api")
	t.Setenv("LMS_ORG_ID", "org-1")
	t.Setenv("LMS_EMAIL", "author@example.com")
	t.Setenv("LMS_PASSWORD", "secret")
	t.Setenv("UPLOAD_RELAY_URL", "")
	t.Setenv("UPLOAD_DIRECT_DISABLED", "")
	t.Setenv("UPLOAD_JOURNAL_PATH", filepath.Join(dir, "journal.db"))
	t.Setenv("XDG_CONFIG_HOME", dir)
	resetFlags(t)
	return dir
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		apiURL = ""
		orgID = ""
		jsonOutput = false
		uploadName = ""
	})
}
