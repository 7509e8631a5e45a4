package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lmsgo/course-author/internal/content"
	"github.com/lmsgo/course-author/models"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecord_UpsertsStage(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	c := &models.Content{ID: "c1", Name: "intro.mp4", MimeType: "video/mp4", SizeBytes: 42, StorageKey: "org/c1"}

	if err := j.Record(ctx, c, content.StateRegistered, nil); err != nil {
		t.Fatal(err)
	}
	if err := j.Record(ctx, c, content.StateRegistered, errors.New("relay: 502")); err != nil {
		t.Fatal(err)
	}

	e, err := j.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if e.Stage != content.StateRegistered || e.Error != "relay: 502" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.StorageKey != "org/c1" || e.SizeBytes != 42 {
		t.Errorf("expected attributes preserved, got %+v", e)
	}

	// A later record without storage key keeps the earlier one; nil cause clears the error.
	if err := j.Record(ctx, &models.Content{ID: "c1", Name: "intro.mp4", MimeType: "video/mp4"}, content.StateFinalized, nil); err != nil {
		t.Fatal(err)
	}
	e, _ = j.Get(ctx, "c1")
	if e.Stage != content.StateFinalized || e.Error != "" || e.StorageKey != "org/c1" {
		t.Errorf("unexpected entry after finalize %+v", e)
	}
}

func TestOrphans(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	j.Record(ctx, &models.Content{ID: "done", Name: "a"}, content.StateFinalized, nil)
	j.Record(ctx, &models.Content{ID: "stuck-transfer", Name: "b"}, content.StateRegistered, errors.New("upload failed"))
	j.Record(ctx, &models.Content{ID: "stuck-finalize", Name: "c"}, content.StateTransferred, errors.New("500"))

	orphans, err := j.Orphans(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 2 {
		t.Fatalf("expected 2 orphans, got %+v", orphans)
	}
	if orphans[0].ContentID != "stuck-transfer" || orphans[1].ContentID != "stuck-finalize" {
		t.Errorf("expected oldest first, got %s, %s", orphans[0].ContentID, orphans[1].ContentID)
	}
}

func TestGet_NotFound(t *testing.T) {
	j := openTestJournal(t)
	if _, err := j.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecord_RequiresID(t *testing.T) {
	j := openTestJournal(t)
	if err := j.Record(context.Background(), &models.Content{}, content.StateRegistered, nil); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	j.Record(context.Background(), &models.Content{ID: "c1", Name: "a"}, content.StateRegistered, nil)
	j.Close()

	j, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if _, err := j.Get(context.Background(), "c1"); err != nil {
		t.Errorf("expected entry to survive reopen: %v", err)
	}
}

func TestJournal_SatisfiesRecorder(t *testing.T) {
	var _ content.Recorder = (*Journal)(nil)
}
