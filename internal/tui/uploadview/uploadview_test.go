package uploadview

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lmsgo/course-author/internal/upload"
)

func TestRun_PlainOutputWhenNotTerminal(t *testing.T) {
	var out bytes.Buffer

	err := Run(context.Background(), &out, "lesson.pdf", func(ctx context.Context, report upload.ProgressFunc) error {
		for _, p := range []int{0, 3, 9, 12, 55, 58, 99, 100} {
			report(p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{
		"Uploading lesson.pdf: 0%",
		"Uploading lesson.pdf: 12%",
		"Uploading lesson.pdf: 55%",
		"Uploading lesson.pdf: 99%",
		"Uploading lesson.pdf: 100%",
		"Uploaded lesson.pdf",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("output lines:\n got %q\nwant %q", got, want)
	}
}

func TestRun_PlainReportsFailure(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("both strategies failed")

	err := Run(context.Background(), &out, "clip.mp4", func(ctx context.Context, report upload.ProgressFunc) error {
		report(0)
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if !strings.Contains(out.String(), "Upload of clip.mp4 failed") {
		t.Errorf("expected failure line, got %q", out.String())
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

func TestModel_ProgressAndCompletion(t *testing.T) {
	m := New("lesson.pdf")

	m, _ = update(t, m, progressMsg(42))
	if m.Percent() != 42 {
		t.Errorf("Percent() = %d, want 42", m.Percent())
	}
	if !strings.Contains(m.View(), "Uploading lesson.pdf") {
		t.Errorf("View() missing in-progress title: %q", m.View())
	}

	m, _ = update(t, m, progressMsg(140))
	if m.Percent() != 100 {
		t.Errorf("Percent() = %d, want clamp to 100", m.Percent())
	}

	m, cmd := update(t, m, doneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command on completion")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg on completion")
	}
	if !strings.Contains(m.View(), "Uploaded lesson.pdf") {
		t.Errorf("View() missing success line: %q", m.View())
	}
}

func TestModel_FailureKeepsPercent(t *testing.T) {
	m := New("clip.mp4")
	m, _ = update(t, m, progressMsg(30))
	m, _ = update(t, m, doneMsg{err: errors.New("relay rejected")})

	if m.Percent() != 30 {
		t.Errorf("Percent() = %d, want 30 after failure", m.Percent())
	}
	if !strings.Contains(m.View(), "Upload failed") {
		t.Errorf("View() missing failure line: %q", m.View())
	}
}

func TestModel_CtrlCInterrupts(t *testing.T) {
	m := New("lesson.pdf")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if !m.Interrupted() {
		t.Error("expected Interrupted() after ctrl+c")
	}
	if cmd == nil {
		t.Fatal("expected quit command after ctrl+c")
	}
}
