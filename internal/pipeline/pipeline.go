// Package pipeline wires the Crawler and the Bucket Collector behind
// two entry points, scrape and aggregate, plus the driver loop that
// invokes them per active hotel and the UNIT_TEST single-phase
// override.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/usercommon/hotelcorpus/internal/bucket"
	"github.com/usercommon/hotelcorpus/internal/crawler"
	"github.com/usercommon/hotelcorpus/internal/hotel"
)

// Pipeline bundles the two components a driver loop needs per hotel.
type Pipeline struct {
	crawler   *crawler.Crawler
	collector *bucket.Collector
	hotels    hotel.Service
	log       *zap.Logger
}

// New constructs a Pipeline.
func New(c *crawler.Crawler, b *bucket.Collector, hotels hotel.Service, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{crawler: c, collector: b, hotels: hotels, log: log}
}

// Scrape runs the Crawler for one hotel.
func (p *Pipeline) Scrape(ctx context.Context, hotelURL, hotelID, hotelName string) error {
	return p.crawler.Crawl(ctx, hotelID, hotelName, hotelURL)
}

// Aggregate runs the Bucket Collector for one hotel.
func (p *Pipeline) Aggregate(ctx context.Context, hotelID, hotelName string) error {
	return p.collector.Run(ctx, hotelID, hotelName)
}

// Mode selects which phase(s) RunAll executes, driven by
// UNIT_TEST/UNIT_TEST_MODULE.
type Mode int

const (
	// ModeBoth runs scrape then aggregate for every active hotel — the
	// normal, non-test invocation.
	ModeBoth Mode = iota
	// ModeScrapeOnly runs only scrape, selected by UNIT_TEST_MODULE=scrape.
	ModeScrapeOnly
	// ModeAggregateOnly runs only aggregate, selected by UNIT_TEST_MODULE=aggregate.
	ModeAggregateOnly
)

// ModeFromEnv maps UNIT_TEST/UNIT_TEST_MODULE to a Mode.
func ModeFromEnv(unitTest bool, unitTestModule string) Mode {
	if !unitTest {
		return ModeBoth
	}
	switch unitTestModule {
	case "scrape":
		return ModeScrapeOnly
	case "aggregate":
		return ModeAggregateOnly
	default:
		return ModeBoth
	}
}

// RunAll is the driver loop: select active hotels and, per hotel,
// invoke scrape then aggregate in order (or just one, under mode).
// One hotel's failure is logged and does not abort the run for the
// remaining hotels, the same way a single page or field failure never
// aborts the hotel it belongs to.
func (p *Pipeline) RunAll(ctx context.Context, mode Mode) error {
	hotels, err := p.hotels.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, h := range hotels {
		if mode != ModeAggregateOnly {
			if err := p.Scrape(ctx, h.URL, h.ID, h.Name); err != nil {
				p.log.Warn("pipeline: scrape failed", zap.String("hotel_id", h.ID), zap.Error(err))
				continue
			}
		}
		if mode != ModeScrapeOnly {
			if err := p.Aggregate(ctx, h.ID, h.Name); err != nil {
				p.log.Warn("pipeline: aggregate failed", zap.String("hotel_id", h.ID), zap.Error(err))
			}
		}
	}
	return nil
}
