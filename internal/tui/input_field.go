package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const requestCharLimit = 2000

// RequestSubmittedMsg carries the operator's request out of the input.
type RequestSubmittedMsg struct {
	Request string
}

var inputBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

// InputField is the single-line request editor.
type InputField struct {
	input textinput.Model
	width int
}

// NewInputField returns a focused, empty InputField.
func NewInputField() *InputField {
	f := &InputField{input: textinput.New()}
	f.input.Placeholder = "Describe WHAT to do and WHERE, then press Enter..."
	f.input.CharLimit = requestCharLimit
	f.input.Prompt = ""
	f.input.Focus()
	f.SetWidth(80)
	return f
}

// SetWidth resizes the field; the text area loses four columns to the
// prompt and padding.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4
}

// Value returns the current text.
func (f *InputField) Value() string {
	return f.input.Value()
}

// Update handles messages for the input field. Enter submits the trimmed
// text and clears the field; it may be empty, in which case the caller
// decides what to do.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		submitted := RequestSubmittedMsg{Request: strings.TrimSpace(f.input.Value())}
		f.input.Reset()
		return f, func() tea.Msg { return submitted }
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the field in a rounded box.
func (f *InputField) View() string {
	return inputBoxStyle.Width(f.width - 2).Render(promptStyle.Render("> ") + f.input.View())
}
