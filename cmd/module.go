// ABOUTME: Module commands for listing and creating course modules
// ABOUTME: Creation accepts flags or an interactive form and supports four material modes

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lmsgo/course-author/internal/authoring"
	"github.com/lmsgo/course-author/internal/tui/icons"
	"github.com/lmsgo/course-author/internal/tui/recentfiles"
	"github.com/lmsgo/course-author/internal/tui/uploadview"
	"github.com/lmsgo/course-author/internal/tui/wizard"
	"github.com/lmsgo/course-author/internal/upload"
	"github.com/lmsgo/course-author/models"
)

// moduleFlags holds the create command's flags.
type moduleFlags struct {
	title       string
	moduleType  string
	duration    string
	mode        string
	contentID   string
	file        string
	videoURL    string
	html        string
	htmlFile    string
	interactive bool
}

var newModule moduleFlags

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "List and create course modules",
}

var moduleListCmd = &cobra.Command{
	Use:   "list <course-id>",
	Short: "List a course's modules",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runModuleList(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var moduleCreateCmd = &cobra.Command{
	Use:   "create <course-id>",
	Short: "Create a module in a course",
	Long: `Create a module whose material comes from one of four sources:

  existing-content  a finalized item from the library (--content-id)
  upload            a new file, uploaded then referenced (--file)
  embedded-video    a YouTube link (--video-url)
  inline-text       HTML written inline (--html or --html-file)

The mode is inferred from whichever source flag is given unless --mode is set.
Only the selected mode's flags are read. With --interactive a form collects
the same fields.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runModuleCreate(ctx, os.Stdout, args[0], newModule)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(moduleCmd)
	moduleCmd.AddCommand(moduleListCmd, moduleCreateCmd)

	f := moduleCreateCmd.Flags()
	f.StringVar(&newModule.title, "title", "", "Module title")
	f.StringVar(&newModule.moduleType, "type", "", "Module type: pdf, video, audio, article, document, quiz, scorm (default: inferred)")
	f.StringVar(&newModule.duration, "duration", "", "Duration in minutes")
	f.StringVar(&newModule.mode, "mode", "", "Material mode: existing-content, upload, embedded-video, inline-text")
	f.StringVar(&newModule.contentID, "content-id", "", "Finalized content to reference")
	f.StringVar(&newModule.file, "file", "", "File to upload")
	f.StringVar(&newModule.videoURL, "video-url", "", "YouTube link to embed")
	f.StringVar(&newModule.html, "html", "", "Inline HTML text")
	f.StringVar(&newModule.htmlFile, "html-file", "", "Read inline HTML text from a file")
	f.BoolVarP(&newModule.interactive, "interactive", "i", false, "Fill in the module with a form")
}

func runModuleList(ctx context.Context, w io.Writer, courseID string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	modules, err := a.client.ListModules(ctx, courseID)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, modules)
	} else {
		fmt.Fprint(w, formatModulesHuman(modules))
	}
	return exitOK
}

func runModuleCreate(ctx context.Context, w io.Writer, courseID string, flags moduleFlags) int {
	values, err := flags.values()
	if err != nil {
		return reportError(w, fmt.Errorf("%w: %w", errUsage, err))
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if flags.interactive {
		contents, err := a.catalog.Finalized(ctx)
		if err != nil {
			slog.Warn("Content library unavailable, enter a content id by hand", "error", err)
		}
		recent, _ := recentfiles.New(recentfiles.DefaultConfigDir()).Load()

		form := wizard.New(values, contents, recent)
		if err := form.Run(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return reportError(w, fmt.Errorf("%w: module creation cancelled", errUsage))
			}
			return reportError(w, err)
		}
		values = form.Values()
	}

	draft, err := values.Draft()
	if err != nil {
		return reportError(w, fmt.Errorf("%w: %w", errUsage, err))
	}

	service := authoring.NewService(authoring.NewResolver(a.manager, a.catalog), a.client)

	var module *models.Module
	if draft.Input.Mode == authoring.ModeUpload && draft.Input.File != nil && !IsJSONOutput() {
		restore := logToFileWhile(w)
		err = uploadview.Run(ctx, w, draft.Input.File.Name(), func(ctx context.Context, report upload.ProgressFunc) error {
			d := draft
			d.Input.OnProgress = report
			m, err := service.Create(ctx, courseID, d)
			module = m
			return err
		})
		restore()
	} else {
		module, err = service.Create(ctx, courseID, draft)
	}
	if err != nil {
		return reportError(w, err)
	}

	if draft.Input.Mode == authoring.ModeUpload {
		rememberFile(values.FilePath)
	}

	if IsJSONOutput() {
		writeJSON(w, module)
	} else {
		fmt.Fprintln(w, formatModuleHuman(module))
	}
	return exitOK
}

// values maps flags onto form values, inferring the mode from the single
// source flag given when --mode is empty.
func (f moduleFlags) values() (wizard.Values, error) {
	v := wizard.Values{
		Title:      f.title,
		ModuleType: strings.ToLower(strings.TrimSpace(f.moduleType)),
		Duration:   f.duration,
		Mode:       f.mode,
		ContentID:  f.contentID,
		FilePath:   f.file,
		VideoURL:   f.videoURL,
		HTML:       f.html,
	}

	if f.htmlFile != "" {
		if f.html != "" {
			return v, errors.New("--html and --html-file are mutually exclusive")
		}
		data, err := os.ReadFile(f.htmlFile)
		if err != nil {
			return v, fmt.Errorf("read --html-file: %w", err)
		}
		v.HTML = string(data)
	}

	if v.Mode != "" {
		return v, nil
	}

	var given []authoring.Mode
	if v.ContentID != "" {
		given = append(given, authoring.ModeExistingContent)
	}
	if v.FilePath != "" {
		given = append(given, authoring.ModeUpload)
	}
	if v.VideoURL != "" {
		given = append(given, authoring.ModeEmbeddedVideo)
	}
	if v.HTML != "" {
		given = append(given, authoring.ModeInlineText)
	}

	switch {
	case len(given) == 1:
		v.Mode = string(given[0])
	case len(given) > 1:
		return v, fmt.Errorf("several material flags given (%v); choose one with --mode", given)
	case !f.interactive:
		return v, errors.New("no material given: use --content-id, --file, --video-url, --html, or --interactive")
	}
	return v, nil
}

func formatModulesHuman(modules []models.Module) string {
	if len(modules) == 0 {
		return "No modules yet.\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTYPE\tTITLE\tMINUTES")
	for _, m := range modules {
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%d\n",
			m.Position, m.ID, icons.ForModuleType(m.ModuleType), m.ModuleType, m.Title, m.DurationSeconds/60)
	}
	tw.Flush()
	return sb.String()
}

func formatModuleHuman(m *models.Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Module:   %s\n", m.ID)
	fmt.Fprintf(&sb, "Title:    %s\n", m.Title)
	fmt.Fprintf(&sb, "Type:     %s\n", m.ModuleType)
	fmt.Fprintf(&sb, "Position: %d\n", m.Position)
	if m.ContentID != nil {
		fmt.Fprintf(&sb, "Content:  %s\n", *m.ContentID)
	}
	if m.DurationSeconds > 0 {
		fmt.Fprintf(&sb, "Duration: %d min\n", m.DurationSeconds/60)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
