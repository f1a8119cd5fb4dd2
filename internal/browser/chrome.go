package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Options configures the Chrome session.
type Options struct {
	// Headless runs Chrome without a window.
	Headless bool

	// SlowMo is slept before every action.
	SlowMo time.Duration

	// Timeout bounds each action. Zero means no per-action bound.
	Timeout time.Duration
}

// Chrome is a Page backed by a single chromedp tab.
// The browser process is started on first use and stopped by Close.
// Methods must not be called concurrently; the pipeline is sequential.
type Chrome struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	tab         context.Context
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
}

var _ Page = (*Chrome)(nil)

// ChromeOption configures a Chrome.
type ChromeOption func(*Chrome)

// WithLogger sets the logger used for chromedp diagnostics.
func WithLogger(logger *slog.Logger) ChromeOption {
	return func(c *Chrome) {
		c.logger = logger
	}
}

// NewChrome creates a Chrome page. No process is started until the first action.
func NewChrome(opts Options, options ...ChromeOption) *Chrome {
	c := &Chrome{
		opts:   opts,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ensure launches the browser if it is not running yet.
func (c *Chrome) ensure() (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab != nil {
		return c.tab, nil
	}

	// The session outlives any single stage context, so it hangs off Background.
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", c.opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	tab, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			c.logger.Debug("chromedp", "detail", fmt.Sprintf(format, args...))
		}),
	)

	if err := chromedp.Run(tab); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	c.logger.Debug("browser launched", "headless", c.opts.Headless, "slowmo", c.opts.SlowMo)

	c.tab = tab
	c.allocCancel = allocCancel
	c.tabCancel = tabCancel
	return tab, nil
}

// run executes actions on the tab, bounded by the per-action timeout and ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tab, err := c.ensure()
	if err != nil {
		return err
	}

	actx, done := c.actionContext(ctx, tab)
	defer done()

	if c.opts.SlowMo > 0 {
		actions = append([]chromedp.Action{chromedp.Sleep(c.opts.SlowMo)}, actions...)
	}

	if err := chromedp.Run(actx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s: %w", c.opts.Timeout, err)
		}
		return err
	}
	return nil
}

// actionContext derives a context from the chromedp context tab that ends
// when the per-action timeout expires or when ctx is cancelled.
func (c *Chrome) actionContext(ctx, tab context.Context) (context.Context, func()) {
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if c.opts.Timeout > 0 {
		actx, cancel = context.WithTimeout(tab, c.opts.Timeout)
	} else {
		actx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return actx, func() {
		stop()
		cancel()
	}
}

// Goto navigates to url.
func (c *Chrome) Goto(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

// Fill clears the input and types value into it.
func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	q := ParseSelector(selector)
	err := c.run(ctx,
		chromedp.WaitVisible(q.Expr, q.By()...),
		chromedp.SetValue(q.Expr, "", q.By()...),
		chromedp.SendKeys(q.Expr, value, q.By()...),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// SelectOption selects the option with the given value and fires input and change events.
func (c *Chrome) SelectOption(ctx context.Context, selector, value string) error {
	q := ParseSelector(selector)

	var result string
	err := c.run(ctx,
		chromedp.WaitVisible(q.Expr, q.By()...),
		chromedp.Evaluate(selectOptionScript(q, value), &result),
	)
	if err != nil {
		return fmt.Errorf("select %s: %w", selector, err)
	}

	switch result {
	case "ok":
		return nil
	case "no-option":
		return fmt.Errorf("select %s: %w: %q", selector, ErrOptionNotFound, value)
	default:
		return fmt.Errorf("select %s: %w", selector, ErrElementNotFound)
	}
}

// Click clicks the first visible element matched by selector.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	q := ParseSelector(selector)
	err := c.run(ctx,
		chromedp.WaitVisible(q.Expr, q.By()...),
		chromedp.Click(q.Expr, append(q.By(), chromedp.NodeVisible)...),
	)
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// WaitVisible waits for the element matched by selector to become visible.
func (c *Chrome) WaitVisible(ctx context.Context, selector string) error {
	q := ParseSelector(selector)
	if err := c.run(ctx, chromedp.WaitVisible(q.Expr, q.By()...)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// Screenshot captures the viewport as PNG.
func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// InnerHTML returns the inner HTML of the element matched by selector.
func (c *Chrome) InnerHTML(ctx context.Context, selector string) (string, error) {
	q := ParseSelector(selector)
	var html string
	err := c.run(ctx,
		chromedp.WaitReady(q.Expr, q.By()...),
		chromedp.InnerHTML(q.Expr, &html, q.By()...),
	)
	if err != nil {
		return "", fmt.Errorf("inner html of %s: %w", selector, err)
	}
	return html, nil
}

// PrintPDF loads html into a scratch tab and prints it.
// The main tab, and the session in it, is left untouched.
func (c *Chrome) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	tab, err := c.ensure()
	if err != nil {
		return nil, err
	}

	scratch, closeScratch := chromedp.NewContext(tab)
	defer closeScratch()

	pctx, done := c.actionContext(ctx, scratch)
	defer done()

	var pdf []byte
	err = chromedp.Run(pctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}

// Close stops the browser. It is safe to call more than once and on a
// Chrome that was never launched.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab == nil {
		return nil
	}

	err := chromedp.Cancel(c.tab)
	c.tabCancel()
	c.allocCancel()
	c.tab = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
