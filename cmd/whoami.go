// ABOUTME: Whoami command showing the signed-in user and organization
// ABOUTME: Useful for checking credentials before an upload

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var errNotLoggedIn = errors.New("no session: set LMS_EMAIL and LMS_PASSWORD")

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if !a.loggedIn {
		return reportError(w, fmt.Errorf("%w: %w", errUsage, errNotLoggedIn))
	}

	profile, err := a.client.Me(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		writeJSON(w, profile)
		return exitOK
	}
	fmt.Fprintf(w, "%s (%s)\n", profile.User.Email, profile.User.Role)
	if profile.Organization.Name != "" {
		fmt.Fprintf(w, "Organization: %s (%s)\n", profile.Organization.Name, profile.Organization.Slug)
	}
	return exitOK
}
