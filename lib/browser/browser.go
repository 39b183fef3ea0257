// Package browser wraps chromedp with the handful of primitives the
// scraping pipelines need: navigate, inject/read cookies, scroll, and
// take DOM snapshots. One Browser is one Chrome process; callers must
// Close it on every exit path.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

type Options struct {
	// Headless defaults to false: the acquisition flow needs a visible
	// window for the user to log in with, and the platform is far more
	// aggressive towards headless fingerprints.
	Headless bool   `json:"headless"`
	ExecPath string `json:"exec_path"`
}

type Browser struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// Launch starts a Chrome process and waits for it to come up. The
// returned Browser is bound to ctx: cancelling it tears the process down.
func Launch(ctx context.Context, options Options) (*Browser, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", options.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 900),
	)
	if options.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(options.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// an empty run forces the process to actually start
	err := chromedp.Run(browserCtx)
	if err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, err
	}

	return &Browser{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

func (b *Browser) Close() {
	b.cancelCtx()
	b.cancelAlloc()
}

func (b *Browser) Navigate(url string) error {
	return chromedp.Run(b.ctx, chromedp.Navigate(url))
}

// Location reports the url the page currently sits on, after any
// redirects have settled.
func (b *Browser) Location() (string, error) {
	var loc string
	err := chromedp.Run(b.ctx, chromedp.Location(&loc))
	return loc, err
}

// WaitVisible blocks until the selector renders or the timeout elapses.
// A deadline error is returned as-is; callers decide whether it is fatal.
func (b *Browser) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// ScrollViewport advances the page by exactly one viewport height.
func (b *Browser) ScrollViewport() error {
	return chromedp.Run(b.ctx, chromedp.Evaluate(
		`window.scrollBy(0, window.innerHeight)`, nil,
	))
}

// HTML returns a snapshot of the rendered document.
func (b *Browser) HTML() (string, error) {
	var html string
	err := chromedp.Run(b.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// SetCookie injects a session cookie before navigation.
func (b *Browser) SetCookie(name, value, domain string) error {
	return chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).
			WithDomain(domain).
			WithPath("/").
			WithHTTPOnly(true).
			WithSecure(true).
			Do(ctx)
	}))
}

// Cookie reads a cookie by name from the browser's jar, across all
// domains. The second return reports whether it was present.
func (b *Browser) Cookie(name string) (string, bool, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return "", false, err
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true, nil
		}
	}
	return "", false, nil
}
