// Package render drives a shared headless browser and hands out exclusive
// page sessions, one per scrape task.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

type Config struct {
	Visible    bool
	ExecPath   string
	NavTimeout time.Duration
	Width      int
	Height     int
}

// Renderer owns the browser process. Sessions opened from it are tabs of
// the same browser, so cookie state (consent banner) is shared.
type Renderer struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	navTimeout    time.Duration
	logger        *slog.Logger
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Renderer, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.Visible),
		chromedp.NoSandbox,
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// starts the browser process eagerly so a broken setup fails the run
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	logger.Info("browser started", "headless", !cfg.Visible, "width", cfg.Width, "height", cfg.Height)

	return &Renderer{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		navTimeout:    cfg.NavTimeout,
		logger:        logger,
	}, nil
}

// NewSession opens a fresh tab. The caller owns it exclusively and must
// Close it on every exit path.
func (r *Renderer) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(r.browserCtx)
	return &Session{ctx: tabCtx, cancel: cancel, navTimeout: r.navTimeout}, nil
}

func (r *Renderer) Close() error {
	r.browserCancel()
	r.allocCancel()
	return nil
}

// Session is one exclusive browser tab. Every action runs under the
// configured per-navigation timeout, so a hung page surfaces as an error
// local to the owning task.
type Session struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

func (s *Session) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (s *Session) Navigate(url string) error {
	return s.run(chromedp.Navigate(url))
}

func (s *Session) WaitVisible(selector string) error {
	return s.run(chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *Session) Click(selector string) error {
	return s.run(chromedp.Click(selector, chromedp.ByQuery))
}

// Evaluate runs expr against the live DOM and unmarshals the JSON result
// into out. Pass nil to discard the result.
func (s *Session) Evaluate(expr string, out any) error {
	return s.run(chromedp.Evaluate(expr, out))
}

func (s *Session) Close() error {
	s.cancel()
	return nil
}
