// Package tui provides devcrew's interactive request prompt.
//
// When devcrew is started without a request, it shows the crew roster,
// examples of good and bad requests, and a single-line input. The operator
// types the request and presses Enter; Esc or Ctrl+C leaves without one.
//
// Usage:
//
//	request, err := tui.Ask(ctx, crew.Workers())
//	if errors.Is(err, tui.ErrCancelled) {
//	    // no request
//	}
package tui
