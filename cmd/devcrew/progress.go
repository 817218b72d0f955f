package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/devcrew/internal/orchestrator"
)

var (
	progressStart = color.New(color.FgCyan)
	progressOK    = color.New(color.FgGreen)
	progressFail  = color.New(color.FgRed)
	progressFaint = color.New(color.Faint)
)

// formatEvent renders one orchestrator event as a progress line, or ""
// for events that are not shown.
func formatEvent(e orchestrator.Event) string {
	indent := ""
	if e.ParentID != "" {
		indent = "  "
	}
	title := e.Role.Title()

	switch e.Type {
	case orchestrator.EventAssignmentStarted:
		return fmt.Sprintf("%s%s %s: %s", indent, progressStart.Sprint("→"), title, oneLine(e.Message, 70))
	case orchestrator.EventToolCalled:
		return fmt.Sprintf("%s  %s", indent, progressFaint.Sprintf("%s used %s (step %d)", title, e.Message, e.Iteration))
	case orchestrator.EventAssignmentCompleted:
		return fmt.Sprintf("%s%s %s done after %d step(s)", indent, progressOK.Sprint("✓"), title, e.Iteration)
	case orchestrator.EventAssignmentFailed:
		return fmt.Sprintf("%s%s %s: %s", indent, progressFail.Sprint("✗"), title, e.Kind)
	case orchestrator.EventDelegationRefused:
		return fmt.Sprintf("%s%s delegation to %s refused: %s", indent, progressFail.Sprint("✗"), title, e.Message)
	case orchestrator.EventPhaseChanged:
		if e.Phase == orchestrator.PhaseSynthesizing {
			return progressFaint.Sprintf("%s is writing the report", title)
		}
	}
	return ""
}

// showProgress prints events from a.emitter to w until the emitter is
// closed.
func (a *app) showProgress(w io.Writer) {
	if a.emitter == nil {
		return
	}
	a.progressDone = make(chan struct{})
	go func() {
		defer close(a.progressDone)
		for e := range a.emitter.Events() {
			if line := formatEvent(e); line != "" {
				fmt.Fprintln(w, line)
			}
		}
	}()
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
