// Package browser owns the headless Chrome process lifecycle used to fetch
// JavaScript-rendered listing pages via chromedp.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Network-idle parameters: the page counts as settled once no more than
// idleMaxInflight requests stay in flight for a full idleQuiet window.
// Two in-flight requests are tolerated so long-polling and analytics
// beacons cannot hold the render hostage.
const (
	idleMaxInflight = 2
	idleQuiet       = 500 * time.Millisecond
)

// Config controls the behavior of the headless session.
type Config struct {
	UserAgent   string
	NavTimeout  time.Duration
	SettleDelay time.Duration
}

// Session implements scraper.Renderer with a single shared headless Chrome
// process. The process is launched lazily on first use; Close is safe to
// call at any time, including before Ensure, after a failed Ensure, and
// more than once.
type Session struct {
	cfg    Config
	logger *zap.Logger

	mu          sync.Mutex
	allocator   context.Context
	allocCancel context.CancelFunc
	browser     context.Context
	browserStop context.CancelFunc
}

// New creates a Session. The browser process is not started yet.
func New(cfg Config, logger *zap.Logger) *Session {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{cfg: cfg, logger: logger}
}

// Ensure idempotently starts the headless browser process.
func (s *Session) Ensure(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked()
}

func (s *Session) ensureLocked() error {
	if s.browser != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	s.allocator, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	s.browser, s.browserStop = chromedp.NewContext(s.allocator)

	// Run a no-op to force the process launch now, so a broken Chrome
	// install surfaces here instead of on the first navigation.
	if err := chromedp.Run(s.browser); err != nil {
		s.teardownLocked()
		return fmt.Errorf("launch browser: %w", err)
	}
	s.logger.Info("browser started")
	return nil
}

// Render navigates to the URL in a fresh tab and returns the rendered DOM.
// The tab always closes on exit, whatever path was taken. Navigation waits
// for body readiness and then for the network to go idle, all bounded by
// the navigation timeout; the settle delay is only a final cushion for
// post-idle DOM work.
func (s *Session) Render(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	if err := s.ensureLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	browser := s.browser
	s.mu.Unlock()

	tabCtx, closeTab := chromedp.NewContext(browser)
	defer closeTab()

	// The tab context derives from the browser, not the caller; propagate
	// caller cancellation by hand.
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	tabCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
	defer cancel()

	waiter := newIdleWaiter()
	chromedp.ListenTarget(tabCtx, waiter.captureEvent)

	var html string
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := network.Enable().Do(ctx); err != nil {
				return fmt.Errorf("enable network domain: %w", err)
			}
			if s.cfg.UserAgent == "" {
				return nil
			}
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
			return nil
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := waiter.Wait(ctx, idleQuiet); err != nil {
				return fmt.Errorf("wait for network idle: %w", err)
			}
			return nil
		}),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return []byte(html), nil
}

// idleWaiter tracks in-flight network requests from CDP events so a render
// can wait for traffic to die down before reading the DOM.
type idleWaiter struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	change   chan struct{}
}

func newIdleWaiter() *idleWaiter {
	return &idleWaiter{
		inflight: make(map[network.RequestID]struct{}),
		change:   make(chan struct{}, 1),
	}
}

func (w *idleWaiter) captureEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		w.track(e.RequestID, true)
	case *network.EventLoadingFinished:
		w.track(e.RequestID, false)
	case *network.EventLoadingFailed:
		w.track(e.RequestID, false)
	}
}

func (w *idleWaiter) track(id network.RequestID, started bool) {
	w.mu.Lock()
	if started {
		w.inflight[id] = struct{}{}
	} else {
		delete(w.inflight, id)
	}
	w.mu.Unlock()
	select {
	case w.change <- struct{}{}:
	default:
	}
}

func (w *idleWaiter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight)
}

// Wait blocks until at most idleMaxInflight requests stay in flight for an
// uninterrupted quiet window, or the context ends.
func (w *idleWaiter) Wait(ctx context.Context, quiet time.Duration) error {
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		if w.count() > idleMaxInflight {
			select {
			case <-w.change:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(quiet)
		select {
		case <-timer.C:
			if w.count() <= idleMaxInflight {
				return nil
			}
		case <-w.change:
			// Traffic moved; re-evaluate and re-arm the window.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close terminates the browser process and releases all resources. A later
// Ensure starts a fresh process. Teardown errors are logged, never
// propagated, so a failing close cannot mask the primary crawl result.
// Calling Close without a running browser is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return
	}
	if err := chromedp.Cancel(s.browser); err != nil {
		s.logger.Warn("browser shutdown", zap.Error(err))
	}
	s.teardownLocked()
	s.logger.Info("browser closed")
}

func (s *Session) teardownLocked() {
	if s.browserStop != nil {
		s.browserStop()
		s.browserStop = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.browser = nil
	s.allocator = nil
}
