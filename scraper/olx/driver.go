package olx

import (
	"context"
	"errors"
	"fmt"
	"olx-scraper/config"
	"olx-scraper/utils"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// PageDriver hands the collector full snapshots of the results page.
// Every call returns the whole current document, never a diff.
type PageDriver interface {
	LoadInitial(url string) (*goquery.Document, error)
	AdvancePage() (*goquery.Document, error)
}

// Session is one headless Chrome tab kept open for the whole run.
type Session struct {
	cfg         *config.Config
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	closed      bool
}

var _ PageDriver = (*Session)(nil)

func NewSession(cfg *config.Config) (*Session, error) {
	utils.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		utils.BrowserOpts(cfg.Headless, cfg.UserAgent)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, utils.HideWebDriver()); err != nil {
		s.Close()
		return nil, newError(ErrDriverInit, "launch", err)
	}

	utils.Success("Browser ready")
	return s, nil
}

// Close terminates the browser. Calling it more than once is harmless.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	utils.Info("Closing browser...")
	s.tabCancel()
	s.allocCancel()
}

// LoadInitial opens url and returns the rendered page once the listing
// container is present and the settle delay has passed.
func (s *Session) LoadInitial(url string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(s.tabCtx, s.cfg.NavigateTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return nil, newError(ErrPageLoadTimeout, "navigate "+url, err)
	}
	return s.snapshot("load " + url)
}

// AdvancePage presses the load-more control and returns the grown page.
// ErrControlNotFound signals that the results are exhausted.
func (s *Session) AdvancePage() (*goquery.Document, error) {
	before, err := s.countListings()
	if err != nil {
		return nil, newError(ErrPageLoadTimeout, "count listings", err)
	}

	sel := s.cfg.LoadMoreSelector
	ctx, cancel := context.WithTimeout(s.tabCtx, s.cfg.LoadMoreTimeout)
	err = chromedp.Run(ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
	)
	cancel()
	if err != nil {
		return nil, newError(ErrControlNotFound, "find load more", err)
	}

	// The button can sit under a sticky footer, so a pointer click may land on
	// the overlay. element.click() dispatches on the node itself.
	var clicked bool
	err = chromedp.Run(s.tabCtx,
		chromedp.Sleep(s.cfg.ScrollDelay),
		chromedp.Evaluate(clickScript(sel), &clicked),
	)
	if err != nil {
		return nil, newError(ErrControlNotFound, "click load more", err)
	}
	if !clicked {
		return nil, newError(ErrControlNotFound, "click load more", nil)
	}
	utils.Info("Clicked 'Load More' button via JavaScript.")

	s.waitForGrowth(before)

	return s.snapshot("load more")
}

// waitForGrowth blocks until more listings than before are rendered or the
// load-more settle delay runs out. Running out is not an error; the
// snapshot is taken either way.
func (s *Session) waitForGrowth(before int) {
	var grew bool
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length > %d`, strconv.Quote(s.listingSelector()), before)
	err := chromedp.Run(s.tabCtx, chromedp.Poll(expr, &grew,
		chromedp.WithPollingInterval(250*time.Millisecond),
		chromedp.WithPollingTimeout(s.cfg.LoadMoreSettle),
	))
	switch {
	case errors.Is(err, chromedp.ErrPollingTimeout):
		utils.Debug("No new listings rendered within %v", s.cfg.LoadMoreSettle)
	case err != nil:
		utils.Debug("Waiting for new listings failed: %v", err)
	}
}

func (s *Session) snapshot(op string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(s.tabCtx, s.cfg.PageLoadTimeout)
	err := chromedp.Run(ctx, chromedp.WaitReady(s.cfg.ContainerSelector, chromedp.ByQuery))
	cancel()
	if err != nil {
		return nil, newError(ErrPageLoadTimeout, op, err)
	}

	var html string
	err = chromedp.Run(s.tabCtx,
		chromedp.Sleep(s.cfg.PageSettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, newError(ErrPageLoadTimeout, op, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", op, err)
	}
	return doc, nil
}

func (s *Session) countListings() (int, error) {
	var n int
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length`, strconv.Quote(s.listingSelector()))
	err := chromedp.Run(s.tabCtx, chromedp.Evaluate(expr, &n))
	return n, err
}

func (s *Session) listingSelector() string {
	return fmt.Sprintf("%s > li:not(.%s)", s.cfg.ContainerSelector, s.cfg.SentinelClass)
}

func clickScript(sel string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	})()`, strconv.Quote(sel))
}
