// ABOUTME: Tests for the content commands
// ABOUTME: Runs list, show, link, and upload against fake backend and storage servers

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lmsgo/course-author/internal/tui/recentfiles"
	"github.com/lmsgo/course-author/models"
)

var libraryContents = []models.Content{
	{ID: "c1", Name: "syllabus.pdf", MimeType: "application/pdf", SizeBytes: 2048, Status: models.ContentFinalized},
	{ID: "c2", Name: "lecture.mp4", MimeType: "video/mp4", SizeBytes: 5 << 20, Status: models.ContentDraft},
}

func writeLesson(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "lesson.txt")
	if err := os.WriteFile(path, []byte("Welcome to the course."), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormatContentsHuman(t *testing.T) {
	output := formatContentsHuman(libraryContents)

	checks := []string{"ID", "STATUS", "c1", "syllabus.pdf", "2.0 KiB", "lecture.mp4", "5.0 MiB", "draft"}
	for _, check := range checks {
		if !strings.Contains(output, check) {
			t.Errorf("expected output to contain %q:\n%s", check, output)
		}
	}
}

func TestFormatContentsHuman_Empty(t *testing.T) {
	if got := formatContentsHuman(nil); !strings.Contains(got, "No content") {
		t.Errorf("expected empty message, got %q", got)
	}
}

func TestContentList_Human(t *testing.T) {
	lms := newFakeLMS(t, libraryContents...)
	useLMS(t, lms)

	var buf bytes.Buffer
	exitCode := runContentList(context.Background(), &buf)

	if exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "syllabus.pdf") {
		t.Errorf("expected content name in output:\n%s", buf.String())
	}
}

func TestContentList_JSON(t *testing.T) {
	lms := newFakeLMS(t, libraryContents...)
	useLMS(t, lms)
	jsonOutput = true

	var buf bytes.Buffer
	exitCode := runContentList(context.Background(), &buf)

	if exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	var parsed []models.Content
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 2 || parsed[1].Status != models.ContentDraft {
		t.Errorf("unexpected contents %+v", parsed)
	}
}

func TestContentList_SessionExpired(t *testing.T) {
	lms := newFakeLMS(t, libraryContents...)
	useLMS(t, lms)
	lms.mu.Lock()
	lms.expired = true
	lms.mu.Unlock()

	var buf bytes.Buffer
	exitCode := runContentList(context.Background(), &buf)

	if exitCode != exitSessionExpired {
		t.Errorf("expected exit code %d, got %d: %s", exitSessionExpired, exitCode, buf.String())
	}
}

func TestContentList_BadCredentials(t *testing.T) {
	lms := newFakeLMS(t)
	useLMS(t, lms)
	t.Setenv("LMS_PASSWORD", "wrong")

	var buf bytes.Buffer
	exitCode := runContentList(context.Background(), &buf)

	if exitCode != exitFailure {
		t.Errorf("expected exit code %d, got %d", exitFailure, exitCode)
	}
	if !strings.Contains(buf.String(), "login") {
		t.Errorf("expected login failure in output, got %q", buf.String())
	}
}

func TestContentShow_NotFound(t *testing.T) {
	lms := newFakeLMS(t, libraryContents...)
	useLMS(t, lms)

	var buf bytes.Buffer
	exitCode := runContentShow(context.Background(), &buf, "missing")

	if exitCode != exitFailure {
		t.Errorf("expected exit code %d, got %d", exitFailure, exitCode)
	}
	if !strings.Contains(buf.String(), "404") {
		t.Errorf("expected status in output, got %q", buf.String())
	}
}

func TestContentShow(t *testing.T) {
	lms := newFakeLMS(t, libraryContents...)
	useLMS(t, lms)

	var buf bytes.Buffer
	exitCode := runContentShow(context.Background(), &buf, "c1")

	if exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	for _, check := range []string{"c1", "syllabus.pdf", "application/pdf"} {
		if !strings.Contains(buf.String(), check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestContentLink(t *testing.T) {
	lms := newFakeLMS(t, libraryContents...)
	useLMS(t, lms)

	var buf bytes.Buffer
	exitCode := runContentLink(context.Background(), &buf, "c1")

	if exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	want := lms.storage.URL + "/bucket/c1?X-Amz-Signature=dl\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestContentUpload_Direct(t *testing.T) {
	lms := newFakeLMS(t)
	dir := useLMS(t, lms)
	path := writeLesson(t, dir)

	var buf bytes.Buffer
	exitCode := runContentUpload(context.Background(), &buf, path)

	if exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}

	body, puts := lms.storage.body()
	if puts != 1 || string(body) != "Welcome to the course." {
		t.Errorf("expected one PUT with the file, got %d puts with %q", puts, body)
	}

	output := buf.String()
	for _, check := range []string{"Uploaded lesson.txt", "c-new", "finalized"} {
		if !strings.Contains(output, check) {
			t.Errorf("expected output to contain %q:\n%s", check, output)
		}
	}

	recent, _ := recentfiles.New(recentfiles.DefaultConfigDir()).Load()
	if len(recent) != 1 || recent[0] != path {
		t.Errorf("expected %s remembered, got %v", path, recent)
	}
}

func TestContentUpload_NameFlag(t *testing.T) {
	lms := newFakeLMS(t)
	dir := useLMS(t, lms)
	path := writeLesson(t, dir)
	jsonOutput = true
	uploadName = "Week 1 notes"

	var buf bytes.Buffer
	exitCode := runContentUpload(context.Background(), &buf, path)

	if exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	var parsed models.Content
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if parsed.Name != "Week 1 notes" || !parsed.Finalized() {
		t.Errorf("unexpected content %+v", parsed)
	}
}

func TestContentUpload_MissingFile(t *testing.T) {
	lms := newFakeLMS(t)
	dir := useLMS(t, lms)

	var buf bytes.Buffer
	exitCode := runContentUpload(context.Background(), &buf, filepath.Join(dir, "nope.pdf"))

	if exitCode != exitInvalid {
		t.Errorf("expected exit code %d, got %d", exitInvalid, exitCode)
	}
	if lms.requestCount() != 0 {
		t.Errorf("expected no backend requests, got %d", lms.requestCount())
	}
}

func TestContentUpload_FinalizeFailureLeavesOrphan(t *testing.T) {
	lms := newFakeLMS(t)
	dir := useLMS(t, lms)
	path := writeLesson(t, dir)
	lms.mu.Lock()
	lms.finalizeStatus = 500
	lms.mu.Unlock()

	var buf bytes.Buffer
	exitCode := runContentUpload(context.Background(), &buf, path)

	if exitCode != exitFailure {
		t.Fatalf("expected exit code %d, got %d: %s", exitFailure, exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "content c-new was not finalized") {
		t.Errorf("expected finalize hint in output:\n%s", buf.String())
	}

	buf.Reset()
	jsonOutput = true
	if code := runJournalOrphans(context.Background(), &buf); code != exitOK {
		t.Fatalf("journal orphans exit code %d: %s", code, buf.String())
	}
	var orphans []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &orphans); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(orphans) != 1 || orphans[0]["content_id"] != "c-new" || orphans[0]["stage"] != "transferred" {
		t.Errorf("expected c-new orphaned at transferred, got %v", orphans)
	}
}
