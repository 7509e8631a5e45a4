// ABOUTME: Entry point for the course-author CLI
// ABOUTME: Uploads LMS content, creates course modules, and serves the upload relay

package main

import (
	"fmt"
	"os"

	"github.com/lmsgo/course-author/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
