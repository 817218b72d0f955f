package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

// ErrCancelled is returned by Ask when the operator leaves without
// submitting.
var ErrCancelled = errors.New("prompt cancelled")

// Prompt is the bubbletea model behind Ask.
type Prompt struct {
	header    *Header
	input     *InputField
	request   string
	submitted bool
	cancelled bool
}

// NewPrompt creates a Prompt listing workers.
func NewPrompt(workers []*models.Worker) *Prompt {
	return &Prompt{
		header: NewHeader(workers),
		input:  NewInputField(),
	}
}

// Init implements tea.Model.
func (p *Prompt) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p *Prompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.header.SetWidth(msg.Width)
		p.input.SetWidth(msg.Width)
		return p, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.cancelled = true
			return p, tea.Quit
		}
	case RequestSubmittedMsg:
		p.request = msg.Request
		p.submitted = true
		return p, tea.Quit
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p *Prompt) View() string {
	if p.submitted || p.cancelled {
		return ""
	}
	return p.header.View() + "\n" + p.input.View() + "\n" + mutedStyle.Render("enter submit • esc quit") + "\n"
}

// Result returns the submitted request, or ErrCancelled.
func (p *Prompt) Result() (string, error) {
	if !p.submitted {
		return "", ErrCancelled
	}
	return p.request, nil
}

// Option configures Ask.
type Option func(*[]tea.ProgramOption)

// WithIO runs the prompt on the given streams instead of the terminal.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(opts *[]tea.ProgramOption) {
		*opts = append(*opts, tea.WithInput(in), tea.WithOutput(out))
	}
}

// Ask shows the roster and reads one request. An empty submission returns
// "" with a nil error so the caller can report it.
func Ask(ctx context.Context, workers []*models.Worker, opts ...Option) (string, error) {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	for _, opt := range opts {
		opt(&programOpts)
	}

	final, err := tea.NewProgram(NewPrompt(workers), programOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", err
	}
	return final.(*Prompt).Result()
}
