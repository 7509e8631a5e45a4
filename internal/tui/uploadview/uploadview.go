// ABOUTME: Upload progress display as a bubbletea model
// ABOUTME: Draws a progress bar on terminals and prints plain lines everywhere else

package uploadview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/lmsgo/course-author/internal/tui/icons"
	"github.com/lmsgo/course-author/internal/tui/styles"
	"github.com/lmsgo/course-author/internal/upload"
)

// Task runs a transfer, reporting whole percentages through report.
type Task func(ctx context.Context, report upload.ProgressFunc) error

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run executes task while showing its progress on out. Pressing ctrl+c in
// the terminal view cancels the task.
func Run(ctx context.Context, out io.Writer, label string, task Task) error {
	if !IsTerminal(out) {
		return runPlain(ctx, out, label, task)
	}
	return runInteractive(ctx, out, label, task)
}

func runInteractive(ctx context.Context, out io.Writer, label string, task Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(label), tea.WithOutput(out), tea.WithContext(ctx))

	result := make(chan error, 1)
	go func() {
		err := task(ctx, func(percent int) { p.Send(progressMsg(percent)) })
		result <- err
		p.Send(doneMsg{err: err})
	}()

	final, runErr := p.Run()
	switch {
	case runErr != nil:
		// the transfer keeps going without a view
		slog.Debug("Progress view stopped", "error", runErr)
	case final.(Model).Interrupted():
		cancel()
	}
	return <-result
}

// runPlain prints a line at every tenth of the way and on completion.
func runPlain(ctx context.Context, out io.Writer, label string, task Task) error {
	var (
		mu   sync.Mutex
		last = -1
	)
	report := func(percent int) {
		bucket := percent / 10
		mu.Lock()
		defer mu.Unlock()
		if bucket == last {
			return
		}
		last = bucket
		fmt.Fprintf(out, "Uploading %s: %d%%\n", label, percent)
	}

	err := task(ctx, report)
	if err != nil {
		fmt.Fprintf(out, "Upload of %s failed\n", label)
		return err
	}
	fmt.Fprintf(out, "Uploaded %s\n", label)
	return nil
}

type progressMsg int

type doneMsg struct{ err error }

// Model renders one upload.
type Model struct {
	label       string
	bar         progress.Model
	percent     int
	done        bool
	err         error
	interrupted bool
}

func New(label string) Model {
	return Model{
		label: label,
		bar:   progress.New(progress.WithGradient(string(styles.Primary), string(styles.Secondary)), progress.WithWidth(40)),
	}
}

// Percent is the last reported percentage.
func (m Model) Percent() int { return m.percent }

// Interrupted reports whether the user cancelled from the keyboard.
func (m Model) Interrupted() bool { return m.interrupted }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.percent = min(max(int(msg), 0), 100)
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		if msg.err == nil {
			m.percent = 100
		}
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-len(m.label)-12, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	switch {
	case m.done && m.err == nil:
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " Uploaded " + m.label))
	case m.done:
		sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " Upload failed: " + m.label))
	case m.interrupted:
		sb.WriteString(styles.StatusWarning.Render(icons.Warning.String() + " Cancelling " + m.label))
	default:
		sb.WriteString(styles.Title.Render(icons.Upload.String() + " Uploading " + m.label))
	}
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(float64(m.percent) / 100))
	sb.WriteString("\n")
	if !m.done {
		sb.WriteString(styles.Help.Render("ctrl+c to cancel"))
		sb.WriteString("\n")
	}
	return sb.String()
}
