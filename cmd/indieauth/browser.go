package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	slogctx "github.com/veqryn/slog-context"
)

// openInBrowser prints the authorization URL to w and tries to open it in the
// user's browser. Failing to open it is not an error, the URL can be copied.
func openInBrowser(w io.Writer) func(context.Context, string) error {
	return func(ctx context.Context, authURL string) error {
		fmt.Fprintf(w, "Open this URL to sign in:\n\n  %s\n\n", authURL)

		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.CommandContext(ctx, "open", authURL)
		case "windows":
			cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", authURL)
		default:
			cmd = exec.CommandContext(ctx, "xdg-open", authURL)
		}

		if err := cmd.Start(); err != nil {
			slogctx.Debug(ctx, "could not open browser", "error", err)
			return nil
		}

		go func() { _ = cmd.Wait() }()
		return nil
	}
}
