// ABOUTME: Embed command that normalizes a video link to its embeddable form
// ABOUTME: Works offline; no configuration or session is needed

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmsgo/course-author/internal/embed"
)

var embedCmd = &cobra.Command{
	Use:   "embed <url>",
	Short: "Print the embeddable URL for a YouTube link",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runEmbed(os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(w io.Writer, raw string) int {
	video, ok := embed.Normalize(raw)
	if !ok {
		return reportError(w, fmt.Errorf("%w: not a recognized YouTube link: %q", errUsage, raw))
	}

	if IsJSONOutput() {
		writeJSON(w, map[string]string{
			"id":        video.ID,
			"url":       video.URL,
			"embed_url": video.EmbedURL,
		})
		return exitOK
	}
	fmt.Fprintln(w, video.EmbedURL)
	return exitOK
}
