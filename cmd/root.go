// ABOUTME: Root command for the course-author CLI
// ABOUTME: Handles global flags, configuration overrides, and exit codes

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmsgo/course-author/config"
	"github.com/lmsgo/course-author/internal/authoring"
	"github.com/lmsgo/course-author/internal/client"
	"github.com/lmsgo/course-author/internal/content"
	"github.com/lmsgo/course-author/logger"
)

var (
	apiURL     string
	orgID      string
	jsonOutput bool
)

// Exit codes
const (
	exitOK             = 0
	exitInvalid        = 1 // validation or usage
	exitFailure        = 2 // backend or transport
	exitSessionExpired = 3
)

// errUsage marks argument errors detected before any request is made.
var errUsage = errors.New("invalid usage")

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "course-author",
	Short: "Author LMS course content from the command line",
	Long: `course-author uploads content to an LMS, builds course modules from it,
and serves the same-origin upload relay used when storage is not directly reachable.

Environment Variables:
  LMS_API_URL       Backend API URL (default: http://localhost:3000/api)
  LMS_ORG_ID        Organization sent as X-Org-ID
  LMS_EMAIL         Login email; with LMS_PASSWORD, signs in before each command
  LMS_PASSWORD      Login password
  UPLOAD_RELAY_URL  Relay used when direct uploads fail

Exit codes:
  0 - Success
  1 - Invalid input or usage
  2 - Backend or transport failure
  3 - Session expired`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Stderr)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides LMS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "", "Organization ID (overrides LMS_ORG_ID)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		if err := cfg.SetAPIURL(apiURL); err != nil {
			return nil, err
		}
	}
	if orgID != "" {
		cfg.OrgID = orgID
	}
	return cfg, nil
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// exitCodeFor maps an error onto the documented exit codes.
func exitCodeFor(err error) int {
	var invalid *authoring.ValidationError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, client.ErrSessionExpired):
		return exitSessionExpired
	case errors.As(err, &invalid),
		errors.Is(err, errUsage),
		errors.Is(err, authoring.ErrUnknownMode),
		errors.Is(err, authoring.ErrTitleRequired),
		errors.Is(err, authoring.ErrInvalidModuleType),
		errors.Is(err, authoring.ErrCourseIDRequired),
		errors.Is(err, content.ErrNoSource),
		errors.Is(err, content.ErrSizeMismatch):
		return exitInvalid
	}
	return exitFailure
}

// reportError prints err in the selected output format and returns its exit code.
func reportError(w io.Writer, err error) int {
	code := exitCodeFor(err)
	if IsJSONOutput() {
		writeJSON(w, map[string]any{"error": err.Error(), "exit_code": code})
		return code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return code
}

func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
