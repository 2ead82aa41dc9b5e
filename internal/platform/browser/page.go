// Package browser runs the tester against a live web page through the Chrome
// DevTools protocol. Pressable controls are the DOM elements matching a CSS
// selector; world space is the CSS viewport, so the camera is the identity.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mj1618/press-monkey/internal/config"
	"github.com/mj1618/press-monkey/internal/platform"
)

// executor is the slice of the DevTools protocol the backend needs.
type executor interface {
	// Eval evaluates script in the page and decodes the result into out.
	// out may be nil.
	Eval(ctx context.Context, script string, out any) error
	DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error
}

// cdpExecutor runs commands against a chromedp browser context.
type cdpExecutor struct {
	ctx     context.Context
	timeout time.Duration
}

// run executes actions on the browser context, cancelled by ctx or the
// command timeout, whichever comes first.
func (e *cdpExecutor) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(e.ctx, e.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (e *cdpExecutor) Eval(ctx context.Context, script string, out any) error {
	return e.run(ctx, chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
}

func (e *cdpExecutor) DispatchMouseEvent(ctx context.Context, p *input.DispatchMouseEventParams) error {
	return e.run(ctx, p)
}

// Page is one browser tab driven by the tester.
type Page struct {
	exec     executor
	logger   *zap.Logger
	selector string
	ttl      time.Duration
	now      func() time.Time

	reg       *registry
	scannedAt time.Time
	scanned   bool
	limiter   *rate.Limiter // nil means no cap

	mode   platform.DispatchMode
	button platform.MouseButton

	camera     *Camera
	dispatcher *Dispatcher
	surface    *Surface
	input      *Input

	cancel func()
}

// Open launches Chrome, loads cfg.URL and waits for the document body.
func Open(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Page, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("browser: no url configured")
	}
	vp, err := platform.ParseViewport(cfg.Viewport)
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(vp.Width, vp.Height),
	)
	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Opening page.", zap.String("url", cfg.URL), zap.Bool("headless", cfg.Headless))

	navCtx, navCancel := context.WithTimeout(tabCtx, timeout)
	defer navCancel()
	if err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height)),
		chromedp.Navigate(cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		cancel()
		if navCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("browser: navigation timed out after %s: %w", timeout, err)
		}
		return nil, fmt.Errorf("browser: navigation failed: %w", err)
	}

	p, err := newPage(&cdpExecutor{ctx: tabCtx, timeout: timeout}, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	p.cancel = cancel
	return p, nil
}

// newPage wires a page over exec without launching anything.
func newPage(exec executor, cfg config.BrowserConfig, logger *zap.Logger) (*Page, error) {
	mode, err := platform.ParseDispatchMode(cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	button, err := platform.ParseMouseButton(cfg.Button)
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	selector := cfg.Selector
	if selector == "" {
		selector = config.DefaultSelector
	}
	p := &Page{
		exec:     exec,
		logger:   logger,
		selector: selector,
		ttl:      cfg.Tick,
		now:      time.Now,
		reg:      newRegistry(),
		mode:     mode,
		button:   button,
	}
	if cfg.ScanRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.ScanRate), 1)
	}
	p.camera = &Camera{page: p}
	p.dispatcher = &Dispatcher{page: p}
	p.surface = &Surface{page: p, startVisible: true}
	p.input = &Input{surface: p.surface}
	return p, nil
}

// Close shuts the tab and the browser.
func (p *Page) Close() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Provider bundles the page's capabilities.
func (p *Page) Provider() *platform.Provider {
	return &platform.Provider{
		Scene:      p,
		Camera:     p.camera,
		Dispatcher: p.dispatcher,
		Surface:    p.surface,
		Input:      p.input,
	}
}

// Surface returns the injected harness overlay.
func (p *Page) Surface() *Surface { return p.surface }
