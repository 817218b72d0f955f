package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/devcrew/internal/report"
	"github.com/ShayCichocki/devcrew/internal/tui"
	"github.com/ShayCichocki/devcrew/pkg/models"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [request...]",
		Short: "Run a request once",
		Long: `Run hands the request to the Project Manager, who delegates to
specialists as needed and writes the final report.

Good: "Analyze internal/wallet/balance.go for race conditions in FetchBalance"
Bad:  "fix bugs"`,
		Args: cobra.ArbitraryArgs,
		RunE: runRequest,
	}
}

// interactive reports whether the prompt can be shown.
var interactive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func runRequest(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	request := strings.TrimSpace(strings.Join(args, " "))
	if len(args) == 0 && interactive() {
		request, err = tui.Ask(cmd.Context(), a.crew.Workers())
		if err != nil && !errors.Is(err, tui.ErrCancelled) {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if request == "" {
		fmt.Fprint(out, report.RenderError(models.NewFailure(models.FailureEmptyRequest, "no request provided")))
		return nil
	}

	if err := a.engage(); err != nil {
		return err
	}
	a.showProgress(cmd.ErrOrStderr())

	ctx, stop := a.interruptible(cmd.Context())
	defer stop()

	sess, err := a.manager.Run(ctx, request)
	fmt.Fprint(out, report.Render(sess))
	a.killNotice(cmd.ErrOrStderr())
	return reported(err)
}
