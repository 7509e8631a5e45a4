// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography for content, modules, and transfer status

package icons

import (
	"os"
	"strings"
	"sync"

	"github.com/lmsgo/course-author/models"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("COURSE_AUTHOR_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	for _, t := range []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"} {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Module material
	PDF      = Icon{"\U000f0226", "▤"} // nf-md-file_pdf_box
	Video    = Icon{"\U000f0567", "▶"} // nf-md-youtube
	Audio    = Icon{"\U000f075a", "♪"} // nf-md-music_note
	Article  = Icon{"\U000f0219", "¶"} // nf-md-file_document
	Document = Icon{"\U000f0214", "▢"} // nf-md-file
	Quiz     = Icon{"\U000f0a3b", "?"} // nf-md-help_box
	Package  = Icon{"\U000f03d3", "▣"} // nf-md-package_variant

	// Transfer
	Upload = Icon{"\U000f0552", "↑"} // nf-md-upload
	Relay  = Icon{"\U000f0484", "⇄"} // nf-md-swap_horizontal

	// Status indicators
	CheckOK  = Icon{"\uf058", "✓"} // nf-fa-check_circle
	Warning  = Icon{"\uf071", "⚠"} // nf-fa-warning
	Critical = Icon{"\uf057", "✗"} // nf-fa-times_circle
)

// ForModuleType picks the icon shown next to a module of type t.
func ForModuleType(t string) Icon {
	switch t {
	case models.ModuleTypePDF:
		return PDF
	case models.ModuleTypeVideo:
		return Video
	case models.ModuleTypeAudio:
		return Audio
	case models.ModuleTypeArticle:
		return Article
	case models.ModuleTypeQuiz:
		return Quiz
	case models.ModuleTypeSCORM:
		return Package
	}
	return Document
}
