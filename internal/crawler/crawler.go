// Package crawler drives a bounded, same-origin breadth-first crawl of
// a single hotel's site using a real headless browser. Each page goes
// through navigation, lazy-load scrolling, DOM stabilization, DOM
// cleaning, markdown conversion, and content hashing before being
// persisted.
package crawler

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usercommon/hotelcorpus/internal/apperrors"
	"github.com/usercommon/hotelcorpus/internal/browser"
	"github.com/usercommon/hotelcorpus/internal/hashutil"
	"github.com/usercommon/hotelcorpus/internal/markdown"
	"github.com/usercommon/hotelcorpus/internal/store"
)

// Options holds the crawl parameters (CRAWLER_MAX_DEPTH,
// CRAWLER_MAX_CONCURRENCY, CRAWLER_MAX_RETRIES, CRAWLER_TIMEOUT_SECS).
type Options struct {
	MaxDepth        int // -1 means unlimited
	MaxConcurrency  int
	MaxRetries      int
	RequestTimeout  time.Duration
	Headless        bool
}

// PageStore is the subset of *store.PageStore the crawler needs;
// narrowed to an interface so tests can substitute a fake.
type PageStore interface {
	Upsert(ctx context.Context, w store.PageWrite) error
	MarkActiveSet(ctx context.Context, hotelID string, savedURLs []string) error
}

// Crawler drives one hotel's BFS crawl end-to-end.
type Crawler struct {
	opts  Options
	pages PageStore
	log   *zap.Logger
}

// New constructs a Crawler bound to pages, applying default option
// values the same way config.Load does for the process-wide equivalents.
func New(opts Options, pages PageStore, log *zap.Logger) *Crawler {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 3
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Crawler{opts: opts, pages: pages, log: log}
}

type workItem struct {
	url   string
	depth int
}

// frontier is the BFS visited/queue state, guarded by one mutex since
// multiple workers enqueue discoveries concurrently. visited dedupes
// the enqueue graph so the same URL is never queued twice; saved
// records only URLs whose Upsert has actually succeeded this run and
// is what feeds MarkActiveSet — the two sets are deliberately not the
// same map, since a URL can be visited without ever being saved
// (fetch/parse/storage failure).
type frontier struct {
	mu      sync.Mutex
	visited map[string]bool
	saved   map[string]bool
	queue   []workItem
}

func newFrontier(seed string) *frontier {
	return &frontier{
		visited: map[string]bool{seed: true},
		saved:   map[string]bool{},
		queue:   []workItem{{url: seed, depth: 0}},
	}
}

func (f *frontier) pop() (workItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return workItem{}, false
	}
	item := f.queue[0]
	f.queue = f.queue[1:]
	return item, true
}

func (f *frontier) pushMany(items []workItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		if f.visited[it.url] {
			continue
		}
		f.visited[it.url] = true
		f.queue = append(f.queue, it)
	}
}

func (f *frontier) markSaved(u string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[u] = true
}

// visitedSnapshot returns a point-in-time copy of the enqueue-time
// visited set, so filterEnqueueable can drop links already queued
// without racing the frontier's own mutex.
func (f *frontier) visitedSnapshot() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.visited))
	for u := range f.visited {
		out[u] = true
	}
	return out
}

// savedURLs returns every URL successfully saved this run — callers
// must use this, not visitedSnapshot, since a URL merely enqueued or
// visited may never have reached a successful Upsert.
func (f *frontier) savedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.saved))
	for u := range f.saved {
		out = append(out, u)
	}
	return out
}

func (f *frontier) isEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0
}

// Crawl runs the bounded BFS for one hotel, persisting every
// successfully-cleaned page via Upsert and, at the end of the run,
// deactivating any previously-active page that was not successfully
// saved this pass.
func (c *Crawler) Crawl(ctx context.Context, hotelID, hotelName, seedURL string) error {
	base, err := url.Parse(seedURL)
	if err != nil {
		return apperrors.New(apperrors.InvalidInput, "crawler.Crawl", err)
	}

	runID := uuid.New().String()
	log := c.log.With(zap.String("run_id", runID), zap.String("hotel_id", hotelID))
	log.Info("crawler: starting crawl", zap.String("seed_url", seedURL))

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if err := chromedp.Run(browserCtx); err != nil {
		return apperrors.New(apperrors.TransientNetwork, "crawler.Crawl", err)
	}

	f := newFrontier(base.String())

	// Work proceeds in waves: drain the current frontier concurrently,
	// bounded by MaxConcurrency, collect newly-discovered links, then
	// repeat until the frontier is empty. This keeps BFS layer ordering
	// while still capping how many pages are in flight at once.
	for !f.isEmpty() {
		var batch []workItem
		for {
			item, ok := f.pop()
			if !ok {
				break
			}
			batch = append(batch, item)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.MaxConcurrency)

		discoveries := make(chan []workItem, len(batch))
		for _, item := range batch {
			item := item
			g.Go(func() error {
				links, err := c.processOne(gctx, browserCtx, f, hotelID, hotelName, item)
				if err != nil {
					log.Warn("crawler: page failed", zap.String("url", item.url), zap.Error(err))
					return nil // a single page failure must not abort the hotel
				}
				discoveries <- links
				return nil
			})
		}
		_ = g.Wait()
		close(discoveries)
		for links := range discoveries {
			f.pushMany(links)
		}
	}

	saved := f.savedURLs()
	log.Info("crawler: finished crawl", zap.Int("pages_saved", len(saved)))
	return c.pages.MarkActiveSet(ctx, hotelID, saved)
}

// processOne fetches and persists a single URL, returning the
// next-depth work items discovered along the way. It marks the page's
// URL saved on f only once Upsert actually succeeds, since
// MarkActiveSet must never keep active a page that failed to fetch,
// clean, convert, or store this run just because it was enqueued.
func (c *Crawler) processOne(ctx context.Context, browserCtx context.Context, f *frontier, hotelID, hotelName string, item workItem) ([]workItem, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.opts.RequestTimeout)
	defer cancelTimeout()

	status := &statusCapture{}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.record(int64(e.Response.Status))
		}
	})

	var finalURL, title string
	op := func(attemptCtx context.Context) error {
		return chromedp.Run(tabCtx,
			network.Enable(),
			chromedp.Navigate(item.url),
			chromedp.WaitVisible("body", chromedp.ByQuery),
			chromedp.Location(&finalURL),
			chromedp.Title(&title),
		)
	}
	if err := apperrors.Retry(ctx, c.opts.MaxRetries, 500*time.Millisecond, op); err != nil {
		return nil, apperrors.New(apperrors.PageFetchFailure, "crawler.processOne", err)
	}

	if status.get() >= 400 || strings.Contains(title, "404") || strings.Contains(title, "500") {
		return nil, apperrors.New(apperrors.PageFetchFailure, "crawler.processOne", errPageFetchFailed)
	}

	_ = browser.LazyScroll(tabCtx)
	_ = browser.Stabilize(tabCtx, browser.DepthParams(item.depth))

	var rawHTML string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &rawHTML)); err != nil {
		return nil, apperrors.New(apperrors.PageFetchFailure, "crawler.processOne", err)
	}

	links, err := extractRawLinks(tabCtx)
	if err != nil {
		links = nil // link discovery failing must not abort the page itself
	}

	cleanedHTML, err := browser.Clean(tabCtx, item.depth)
	if err != nil {
		return nil, apperrors.New(apperrors.ParseFailure, "crawler.processOne", err)
	}

	md, err := markdown.Convert(cleanedHTML)
	if err != nil {
		return nil, apperrors.New(apperrors.ParseFailure, "crawler.processOne", err)
	}
	checksum := hashutil.Content(md)

	storageURL := finalURL
	if storageURL == "" {
		storageURL = item.url
	}

	if err := c.pages.Upsert(ctx, store.PageWrite{
		HotelID:       hotelID,
		PageURL:       storageURL,
		RawHTML:       rawHTML,
		CanonicalHTML: cleanedHTML,
		Markdown:      md,
		Checksum:      checksum,
		Depth:         item.depth,
	}); err != nil {
		return nil, apperrors.New(apperrors.StorageFailure, "crawler.processOne", err)
	}
	f.markSaved(storageURL)

	base, err := url.Parse(storageURL)
	if err != nil {
		return nil, nil
	}
	next := make([]workItem, 0, len(links))
	for _, u := range filterEnqueueable(links, base, f.visitedSnapshot(), item.depth+1, c.opts.MaxDepth) {
		next = append(next, workItem{url: u, depth: item.depth + 1})
	}
	return next, nil
}

var errPageFetchFailed = apperrors.New(apperrors.PageFetchFailure, "crawler", nil)

// statusCapture records the main-frame document response status seen
// via the network event listener, guarded against the concurrent
// listener goroutine.
type statusCapture struct {
	mu   sync.Mutex
	code int64
}

func (s *statusCapture) record(code int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

func (s *statusCapture) get() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// extractRawLinks collects every anchor's href/class/id/role from the
// live DOM before the DOM cleaner mutates anything.
func extractRawLinks(ctx context.Context) ([]rawLink, error) {
	var links []rawLink
	err := chromedp.Run(ctx, chromedp.Evaluate(`
		Array.from(document.querySelectorAll("a[href]")).map(function(a) {
			return {
				href: a.href,
				class: (a.className && a.className.baseVal !== undefined) ? a.className.baseVal : (a.className || ""),
				id: a.id || "",
				role: a.getAttribute("role") || ""
			};
		})
	`, &links))
	return links, err
}
