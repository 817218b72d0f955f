// Package report formats session outcomes for the terminal. Every function
// is pure: it reads the values it is given and returns text.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// Category is the operator-facing label and hint for a failure kind.
type Category struct {
	Label string
	Hint  string
}

const (
	hintSpecific = "Try a more specific request or check your API key"
	hintShorter  = "Use more specific requests to reduce execution time"
)

var categories = map[models.FailureKind]Category{
	models.FailureConfiguration: {
		Label: "Configuration error",
		Hint:  "Check .devcrew.yaml and the roster file, then run again",
	},
	models.FailureEmptyRequest: {
		Label: "No request provided",
		Hint:  "Be specific about WHAT and WHERE, e.g. \"Find bugs in the wallet balance fetching logic\"",
	},
	models.FailureCapabilityViolation: {
		Label: "Capability violation",
		Hint:  "A worker tried an action outside its role; narrow the request to what that role can do",
	},
	models.FailureBoundedEffort: {
		Label: "Effort budget exceeded",
		Hint:  hintShorter,
	},
	models.FailureEngine: {
		Label: "Engine error",
		Hint:  hintSpecific,
	},
	models.FailureInterrupted: {
		Label: "Interrupted",
		Hint:  hintShorter,
	},
	models.FailureUnknownTask: {
		Label: "Unknown task",
		Hint:  "Run `devcrew sessions` to list recorded assignment ids",
	},
	models.FailureInternal: {
		Label: "Internal error",
		Hint:  hintSpecific,
	},
}

// Classify returns the category for kind. Unknown kinds fall back to the
// internal error category.
func Classify(kind models.FailureKind) Category {
	if c, ok := categories[kind]; ok {
		return c
	}
	return categories[models.FailureInternal]
}

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)

	banner = lipgloss.NewStyle().Bold(true)
	rule   = strings.Repeat("=", 60)
)

func heading(b *strings.Builder, symbol string, c *color.Color, title string) {
	b.WriteString(rule)
	b.WriteString("\n")
	fmt.Fprintf(b, "%s %s\n", c.Sprint(symbol), banner.Render(title))
	b.WriteString(rule)
	b.WriteString("\n")
}

// Render formats a finished session.
func Render(sess *models.Session) string {
	if sess == nil {
		return RenderError(models.NewFailure(models.FailureInternal, "no session"))
	}
	if !sess.Succeeded() {
		return RenderError(sess.Failure)
	}

	var b strings.Builder
	heading(&b, "✓", green, "WORK COMPLETED")
	b.WriteString("\nFinal Report:\n\n")
	if sess.Result != nil {
		b.WriteString(strings.TrimSpace(sess.Result.Payload))
	}
	b.WriteString("\n\n")

	var roles []string
	if sess.Root != nil {
		for _, r := range sess.Root.RolesUsed() {
			roles = append(roles, r.Title())
		}
	}
	fmt.Fprintf(&b, "%s %s\n", faint.Sprint("Team:"), strings.Join(roles, ", "))
	fmt.Fprintf(&b, "%s %s\n", faint.Sprint("Session:"), sess.ID)
	fmt.Fprintf(&b, "%s %s\n", faint.Sprint("Duration:"), formatDuration(sess.Duration()))
	return b.String()
}

// RenderError formats err with its category and hint. A nil error renders
// as an internal error.
func RenderError(err error) string {
	f := models.AsFailure(err)
	if f == nil {
		f = models.NewFailure(models.FailureInternal, "unknown failure")
	}
	cat := Classify(f.Kind)

	var b strings.Builder
	switch f.Kind {
	case models.FailureEmptyRequest:
		fmt.Fprintf(&b, "%s No request provided.\n", red.Sprint("✗"))
	case models.FailureInterrupted:
		fmt.Fprintf(&b, "\n%s Process interrupted by user\n", yellow.Sprint("⚠"))
	default:
		fmt.Fprintf(&b, "%s %s: %s\n", red.Sprint("✗"), cat.Label, detail(f))
		if f.AssignmentID != "" {
			fmt.Fprintf(&b, "  %s %s\n", faint.Sprint("assignment:"), f.AssignmentID)
		}
	}
	fmt.Fprintf(&b, "\n%s %s\n", cyan.Sprint("Tip:"), cat.Hint)
	return b.String()
}

func detail(f *models.Failure) string {
	d := f.Detail()
	if f.Role != "" {
		d = f.Role.Title() + ": " + d
	}
	if d == "" {
		return string(f.Kind)
	}
	return d
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
