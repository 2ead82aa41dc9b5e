package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/harness"
	"github.com/mj1618/press-monkey/internal/observability"
	"github.com/mj1618/press-monkey/internal/output"
	"github.com/mj1618/press-monkey/internal/platform/browser"
)

var browserCmd = &cobra.Command{
	Use:   "browser [url]",
	Short: "Run the tester against a web page in Chrome",
	Long: `Open a page in Chrome and run the tester in real time until --duration elapses
or the process is interrupted, then print the press report.

Pressable controls are the elements matching browser.selector. The tester's own
overlay is injected into the page; press Enter three times within 0.75s to show it.`,
	Example: `  press-monkey browser https://example.com --start --duration 30s
  press-monkey browser --url http://localhost:3000 --headless=false --dispatch cdp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowser,
}

func init() {
	rootCmd.AddCommand(browserCmd)
	f := browserCmd.Flags()
	f.String("url", "", "Page to open")
	f.Duration("duration", 0, "Run time (0 runs until interrupted)")
	f.Bool("headless", true, "Run Chrome without a window")
	f.String("dispatch", "", "Event delivery: synthetic or cdp")
	f.String("button", "", "Mouse button: left, right or middle")
	f.Duration("tick", 0, "Real-time tick interval")
	f.Bool("start", false, "Start testing immediately instead of waiting for the surface")
	configFlag(f, "url", "browser.url")
	configFlag(f, "headless", "browser.headless")
	configFlag(f, "dispatch", "browser.dispatch")
	configFlag(f, "button", "browser.button")
	configFlag(f, "tick", "browser.tick")
}

func runBrowser(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	start, _ := cmd.Flags().GetBool("start")
	bc := cfg.Browser()
	if len(args) > 0 {
		bc.URL = args[0]
	}
	if bc.URL == "" {
		return fmt.Errorf("no page to open: pass a url or set browser.url")
	}
	if duration < 0 {
		return fmt.Errorf("--duration must not be negative")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.GetLogger()
	page, err := browser.Open(ctx, bc, logger.Named("browser"))
	if err != nil {
		return err
	}
	defer page.Close()

	h, err := harness.New(page.Provider(), cfg, logger.Named("harness"))
	if err != nil {
		return err
	}
	if start {
		h.Start(ctx, 0)
	}

	runCtx := ctx
	if duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	logger.Info("Running.", zap.String("url", bc.URL), zap.String("session", h.SessionID()))
	if err := h.Run(runCtx, bc.Tick); err != nil {
		return err
	}
	return output.Fprint(cmd.OutOrStdout(), h.Report())
}
