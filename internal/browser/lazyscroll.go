package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

const maxLazyScrollIterations = 25

// LazyScroll repeatedly scrolls to the bottom of the page, waiting for
// lazily-loaded content, until scrollHeight stops growing or the
// iteration budget is exhausted, then scrolls back to top.
func LazyScroll(ctx context.Context) error {
	var lastHeight int64
	for i := 0; i < maxLazyScrollIterations; i++ {
		var height int64
		if err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height),
		); err != nil {
			return nil // best-effort, like the stabilizer
		}
		if height <= lastHeight && i > 0 {
			break
		}
		lastHeight = height

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(1500 * time.Millisecond):
		}
	}
	return chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil))
}
