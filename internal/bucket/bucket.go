// Package bucket implements the Bucket Collector: the per-hotel
// orchestrator tying the per-page extractor, per-field refiner, merge
// adjudicator, and record writer together into one aggregate pass.
package bucket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usercommon/hotelcorpus/internal/extractor"
	"github.com/usercommon/hotelcorpus/internal/merge"
	"github.com/usercommon/hotelcorpus/internal/refiner"
	"github.com/usercommon/hotelcorpus/internal/schema"
	"github.com/usercommon/hotelcorpus/internal/store"
	"github.com/usercommon/hotelcorpus/internal/writer"
)

// PageStore is the subset of *store.PageStore the collector needs.
type PageStore interface {
	ListDirty(ctx context.Context, hotelID string) ([]store.Page, error)
	MarkExtracted(ctx context.Context, hotelID, pageURL, checksum, llmOutputJSON string) error
}

// MarketStore is the subset of *store.MarketDataStore the collector needs.
type MarketStore interface {
	Get(ctx context.Context, hotelID string) (*store.Record, bool, error)
	Upsert(ctx context.Context, hotelID string, fields map[string]string, otherStructured *string) error
}

// Completer is the shared LLM call surface every sub-component needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error)
}

// Collector orchestrates one hotel's aggregate() pass end to end.
type Collector struct {
	pages      PageStore
	market     MarketStore
	llm        Completer
	maxRetries int
	log        *zap.Logger
}

// New constructs a Collector.
func New(pages PageStore, market MarketStore, llm Completer, maxRetries int, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{pages: pages, market: market, llm: llm, maxRetries: maxRetries, log: log}
}

// extractionConcurrency bounds how many dirty pages are sent to the LLM
// for extraction at once, the same way the crawler bounds concurrent
// page fetches.
const extractionConcurrency = 3

// Run consolidates every dirty page for one hotel into its Market-Data
// Record: list the dirty pages, extract and bucket their content by
// category, refine each category's bucket into one value, adjudicate
// each refined value against the existing record (or direct-write it
// if no record exists yet), then persist whatever changed. The
// homepage URL used to weight the refiner is derived from the dirty
// set itself: the depth-0 page, if one was re-scraped this pass.
func (c *Collector) Run(ctx context.Context, hotelID, hotelName string) error {
	dirty, err := c.pages.ListDirty(ctx, hotelID)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil // nothing dirty means nothing to do
	}
	homepageURL := homepageOf(dirty)

	// Extract every dirty page, bucketing non-empty snippets by
	// category; a page-level failure is logged and skipped rather than
	// aborting the whole hotel.
	buckets := make(map[string][]refiner.Snippet, len(schema.Categories))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractionConcurrency)
	for _, page := range dirty {
		page := page
		g.Go(func() error {
			out, err := extractor.Extract(gctx, c.llm, extractor.Page{URL: page.PageURL, Markdown: page.Markdown}, hotelName, c.maxRetries)
			if err != nil {
				c.log.Warn("bucket: extraction failed, skipping page", zap.String("url", page.PageURL), zap.Error(err))
				return nil
			}

			mu.Lock()
			for name, value := range out {
				if value == "" {
					continue
				}
				buckets[name] = append(buckets[name], refiner.Snippet{PageURL: page.PageURL, Value: value})
			}
			mu.Unlock()

			serialized, marshalErr := json.Marshal(out)
			if marshalErr != nil {
				return nil
			}
			if markErr := c.pages.MarkExtracted(ctx, hotelID, page.PageURL, page.Checksum, string(serialized)); markErr != nil {
				c.log.Warn("bucket: failed to mark page extracted", zap.String("url", page.PageURL), zap.Error(markErr))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Refine each category's bucket into a single consolidated value.
	refined := make(map[string]string, len(schema.Categories))
	for _, cat := range schema.Categories {
		value, err := refiner.Refine(ctx, c.llm, cat, buckets[cat.Name], homepageURL, hotelName, c.maxRetries)
		if err != nil {
			c.log.Warn("bucket: refine failed", zap.String("category", cat.Name), zap.Error(err))
			continue
		}
		if value != "" {
			refined[cat.Name] = value
		}
	}

	// Load the existing Market-Data Record, if any.
	existing, found, err := c.market.Get(ctx, hotelID)
	if err != nil {
		return err
	}

	var changed map[string]string
	if !found {
		// Nothing to adjudicate against yet: write the refined values
		// directly, once filtered for blank/"N/A" noise.
		changed = writer.FilterDirectWrite(refined)
	} else {
		// Adjudicate each refined value against what's already on file.
		changed = make(map[string]string, len(refined))
		for name, newText := range refined {
			existingText := existing.Fields[name]
			isUpdate, mergedText := merge.Adjudicate(ctx, c.llm, name, existingText, newText, c.maxRetries)
			if isUpdate {
				changed[name] = mergedText
			}
		}
	}

	if len(changed) == 0 {
		c.log.Info("bucket: no changed columns, skipping write", zap.String("hotel_id", hotelID))
		return nil
	}
	return writer.Write(ctx, c.llm, c.market, hotelID, hotelName, changed, c.maxRetries)
}

// homepageOf returns the depth-0 page's URL among dirty, or the empty
// string if none was re-scraped this pass.
func homepageOf(dirty []store.Page) string {
	for _, p := range dirty {
		if p.Depth == 0 {
			return p.PageURL
		}
	}
	return ""
}
