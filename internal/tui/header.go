package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true)
	roleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	tipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

// GoodExamples are requests that name both the work and its location.
var GoodExamples = []string{
	"Analyze internal/wallet/balance.go for race conditions in FetchBalance",
	"Add input validation to the signup handler in api/auth.go",
	"Write table tests for the rate limiter in pkg/limiter",
}

// BadExamples are too vague for the crew to act on.
var BadExamples = []string{
	"fix bugs",
	"make it better",
	"review the code",
}

// Tip is shown under the examples.
const Tip = "Be specific about WHAT and WHERE."

// Header renders the title, roster and request guidance.
type Header struct {
	width   int
	workers []*models.Worker
}

// NewHeader creates a Header listing workers.
func NewHeader(workers []*models.Worker) *Header {
	return &Header{width: 80, workers: workers}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("devcrew"))
	b.WriteString(mutedStyle.Render("  a crew of specialists for your codebase"))
	b.WriteString("\n\n")

	b.WriteString("Your crew:\n")
	for _, w := range h.workers {
		line := fmt.Sprintf("  %s %s", roleStyle.Render(fmt.Sprintf("%-20s", w.Role.Title())), w.Description)
		b.WriteString(lipgloss.NewStyle().MaxWidth(h.width).Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(goodStyle.Render("GOOD:"))
	b.WriteString("\n")
	for _, ex := range GoodExamples {
		b.WriteString("  " + goodStyle.Render("✓ ") + ex + "\n")
	}
	b.WriteString(badStyle.Render("BAD:"))
	b.WriteString("\n")
	for _, ex := range BadExamples {
		b.WriteString("  " + badStyle.Render("✗ ") + ex + "\n")
	}
	b.WriteString("\n")
	b.WriteString(tipStyle.Render("Tip: " + Tip))
	b.WriteString("\n")
	return b.String()
}
