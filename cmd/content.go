// ABOUTME: Content commands for listing, inspecting, and uploading library content
// ABOUTME: Uploads run the full register, transfer, finalize lifecycle with progress

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lmsgo/course-author/internal/content"
	"github.com/lmsgo/course-author/internal/tui/styles"
	"github.com/lmsgo/course-author/internal/tui/uploadview"
	"github.com/lmsgo/course-author/internal/upload"
	"github.com/lmsgo/course-author/models"
)

var uploadName string

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "List and upload content",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the organization's content",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runContentList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var contentShowCmd = &cobra.Command{
	Use:   "show <content-id>",
	Short: "Show one content item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runContentShow(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var contentLinkCmd = &cobra.Command{
	Use:   "link <content-id>",
	Short: "Print a temporary download URL for finalized content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runContentLink(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var contentUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file as new content",
	Long: `Register a draft, transfer the file to storage, and finalize it.

The file goes straight to storage when possible and through the upload
relay otherwise. If finalization fails after the bytes landed, the draft
is left in place and reported by 'course-author journal orphans'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runContentUpload(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(contentCmd)
	contentCmd.AddCommand(contentListCmd, contentShowCmd, contentLinkCmd, contentUploadCmd)
	contentUploadCmd.Flags().StringVar(&uploadName, "name", "", "Content name (default: the file name)")
}

func runContentList(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	contents, err := a.client.ListContents(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, contents)
	} else {
		fmt.Fprint(w, formatContentsHuman(contents))
	}
	return exitOK
}

func runContentShow(ctx context.Context, w io.Writer, id string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	c, err := a.client.GetContent(ctx, id)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, c)
	} else {
		fmt.Fprintln(w, formatContentHuman(c))
	}
	return exitOK
}

func runContentLink(ctx context.Context, w io.Writer, id string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	link, err := a.client.DownloadLink(ctx, id)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, link)
	} else {
		fmt.Fprintln(w, link.DownloadURL)
	}
	return exitOK
}

func runContentUpload(ctx context.Context, w io.Writer, path string) int {
	src, err := upload.OpenFile(path)
	if err != nil {
		return reportError(w, fmt.Errorf("%w: %w", errUsage, err))
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	var ingested *models.Content
	task := func(ctx context.Context, report upload.ProgressFunc) error {
		c, err := a.manager.Ingest(ctx, content.Metadata{Name: uploadName}, src, report)
		ingested = c
		return err
	}

	if IsJSONOutput() {
		err = task(ctx, nil)
	} else {
		restore := logToFileWhile(w)
		err = uploadview.Run(ctx, w, src.Name(), task)
		restore()
	}
	if err != nil {
		if !IsJSONOutput() && content.IsFinalizeError(err) {
			var ie *content.IngestError
			errors.As(err, &ie)
			fmt.Fprintf(w, "The file reached storage but content %s was not finalized; it remains a draft.\n", ie.ContentID)
		}
		return reportError(w, err)
	}

	rememberFile(path)

	if IsJSONOutput() {
		writeJSON(w, ingested)
	} else {
		fmt.Fprintln(w, formatContentHuman(ingested))
	}
	return exitOK
}

// formatContentsHuman renders contents as an aligned table
func formatContentsHuman(contents []models.Content) string {
	if len(contents) == 0 {
		return "No content yet.\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tSTATUS")
	for _, c := range contents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.MimeType, humanize.IBytes(uint64(max(c.SizeBytes, 0))), c.Status)
	}
	tw.Flush()
	return sb.String()
}

// formatContentHuman formats a single content item for human readability
func formatContentHuman(c *models.Content) string {
	return fmt.Sprintf(`Content: %s
Name:    %s
Type:    %s
Size:    %s
Status:  %s`, c.ID, c.Name, c.MimeType, humanize.IBytes(uint64(max(c.SizeBytes, 0))), styles.ContentStatus(c.Status))
}
