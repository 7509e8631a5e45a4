// ABOUTME: Interactive module authoring form built with huh
// ABOUTME: Collects title, type, duration, and the material for the selected mode

package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/lmsgo/course-author/internal/authoring"
	"github.com/lmsgo/course-author/internal/embed"
	"github.com/lmsgo/course-author/internal/tui/icons"
	"github.com/lmsgo/course-author/internal/tui/styles"
	"github.com/lmsgo/course-author/internal/upload"
	"github.com/lmsgo/course-author/models"
)

// Values are the raw form fields. Fields set before Run become defaults.
type Values struct {
	Title      string
	ModuleType string
	Duration   string // minutes
	Mode       string
	ContentID  string
	FilePath   string
	VideoURL   string
	HTML       string
}

// Wizard manages the authoring form.
type Wizard struct {
	values   Values
	contents []models.Content
	recent   []string
	form     *huh.Form
}

var modeLabels = map[authoring.Mode]string{
	authoring.ModeExistingContent: "Existing content from the library",
	authoring.ModeUpload:          "Upload a new file",
	authoring.ModeEmbeddedVideo:   "Embed a YouTube video",
	authoring.ModeInlineText:      "Write the text inline",
}

// createTheme returns a huh theme built on the shared palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(styles.Muted).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(styles.Muted)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(styles.Danger).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(styles.Danger)
	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(styles.Primary).
		SetString("> ")
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(styles.Muted)
	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Info).
		Padding(0, 2).
		MarginRight(1)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(styles.Muted)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		SetString("  ")

	return t
}

// New builds the form. contents feeds the existing-content picker (only
// finalized items are offered) and recent suggests file paths for uploads.
func New(seed Values, contents []models.Content, recent []string) *Wizard {
	if seed.Mode == "" {
		seed.Mode = string(authoring.ModeUpload)
	}
	w := &Wizard{values: seed, recent: recent}
	for _, c := range contents {
		if c.Finalized() {
			w.contents = append(w.contents, c)
		}
	}
	w.form = w.createForm()
	return w
}

func (w *Wizard) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("e.g., Introduction to the course").
				Value(&w.values.Title).
				Validate(validateTitle),
			huh.NewSelect[string]().
				Title("Module type").
				Description("Leave on auto to pick a type from the material").
				Options(moduleTypeOptions()...).
				Value(&w.values.ModuleType),
			huh.NewInput().
				Title("Duration (minutes)").
				Placeholder("optional").
				CharLimit(5).
				Value(&w.values.Duration).
				Validate(validateMinutes),
			huh.NewSelect[string]().
				Title("Material").
				Options(modeOptions()...).
				Value(&w.values.Mode),
		).Title("New module").
			Description("Describe the module and choose where its material comes from"),

		w.contentGroup().
			WithHideFunc(w.hidden(authoring.ModeExistingContent)),

		huh.NewGroup(
			huh.NewInput().
				Title("File").
				Description("Path to the file to upload").
				Suggestions(w.recent).
				Value(&w.values.FilePath).
				Validate(validateFilePath),
		).Title(icons.Upload.String()+" Upload").
			WithHideFunc(w.hidden(authoring.ModeUpload)),

		huh.NewGroup(
			huh.NewInput().
				Title("Video URL").
				Placeholder("https://youtu.be/...").
				Value(&w.values.VideoURL).
				Validate(validateVideoURL),
		).Title(icons.Video.String()+" Embedded video").
			WithHideFunc(w.hidden(authoring.ModeEmbeddedVideo)),

		huh.NewGroup(
			huh.NewText().
				Title("Text").
				Description("HTML is accepted").
				CharLimit(0).
				Value(&w.values.HTML).
				Validate(validateHTML),
		).Title(icons.Article.String()+" Inline text").
			WithHideFunc(w.hidden(authoring.ModeInlineText)),
	).WithTheme(createTheme())
}

func (w *Wizard) contentGroup() *huh.Group {
	if len(w.contents) == 0 {
		return huh.NewGroup(
			huh.NewInput().
				Title("Content ID").
				Value(&w.values.ContentID).
				Validate(validateRequired("a content id")),
		).Title("Existing content")
	}

	options := make([]huh.Option[string], 0, len(w.contents))
	for _, c := range w.contents {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", c.Name, c.MimeType), c.ID))
	}
	return huh.NewGroup(
		huh.NewSelect[string]().
			Title("Content").
			Options(options...).
			Value(&w.values.ContentID),
	).Title("Existing content")
}

func (w *Wizard) hidden(mode authoring.Mode) func() bool {
	return func() bool { return w.values.Mode != string(mode) }
}

func moduleTypeOptions() []huh.Option[string] {
	types := []string{
		models.ModuleTypePDF, models.ModuleTypeVideo, models.ModuleTypeAudio, models.ModuleTypeArticle,
		models.ModuleTypeDocument, models.ModuleTypeQuiz, models.ModuleTypeSCORM,
	}
	options := []huh.Option[string]{huh.NewOption("auto", "")}
	for _, t := range types {
		options = append(options, huh.NewOption(icons.ForModuleType(t).String()+" "+t, t))
	}
	return options
}

func modeOptions() []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(authoring.Modes))
	for _, m := range authoring.Modes {
		options = append(options, huh.NewOption(modeLabels[m], string(m)))
	}
	return options
}

// Run shows the form until it is submitted or aborted.
func (w *Wizard) Run(ctx context.Context) error {
	return w.form.RunWithContext(ctx)
}

// Values returns the collected fields.
func (w *Wizard) Values() Values {
	return w.values
}

// Draft turns form values into an authoring draft. Only the selected
// mode's fields are read.
func (v Values) Draft() (authoring.Draft, error) {
	mode, err := authoring.ParseMode(v.Mode)
	if err != nil {
		return authoring.Draft{}, err
	}
	minutes, err := parseMinutes(v.Duration)
	if err != nil {
		return authoring.Draft{}, err
	}

	d := authoring.Draft{
		Title:           strings.TrimSpace(v.Title),
		ModuleType:      v.ModuleType,
		DurationMinutes: minutes,
		Input:           authoring.Input{Mode: mode},
	}

	switch mode {
	case authoring.ModeExistingContent:
		d.Input.ContentID = strings.TrimSpace(v.ContentID)
	case authoring.ModeUpload:
		if p := strings.TrimSpace(v.FilePath); p != "" {
			src, err := upload.OpenFile(p)
			if err != nil {
				return authoring.Draft{}, err
			}
			d.Input.File = src
		}
	case authoring.ModeEmbeddedVideo:
		d.Input.VideoURL = v.VideoURL
	case authoring.ModeInlineText:
		d.Input.HTML = v.HTML
	}
	return d, nil
}

func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("duration must be a whole number of minutes, got %q", s)
	}
	return n, nil
}

func validateRequired(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("enter %s", what)
		}
		return nil
	}
}

var validateTitle = validateRequired("a title")

func validateMinutes(s string) error {
	_, err := parseMinutes(s)
	return err
}

func validateFilePath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("enter a file path")
	}
	info, err := os.Stat(s)
	if err != nil {
		return errors.New("file not found")
	}
	if info.IsDir() {
		return errors.New("path is a directory")
	}
	return nil
}

func validateVideoURL(s string) error {
	if _, ok := embed.Normalize(s); !ok {
		return errors.New("not a recognized YouTube link")
	}
	return nil
}

func validateHTML(s string) error {
	if authoring.RenderedText(s) == "" {
		return errors.New("enter some text")
	}
	return nil
}
