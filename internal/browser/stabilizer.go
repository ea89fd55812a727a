// Package browser drives a headless Chrome instance via chromedp to
// produce a canonical, checksum-stable HTML snapshot of a loaded page:
// waiting for the DOM to settle, scrolling to trigger lazy-loaded
// content, and stripping noise before serialization.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// StabilizeParams bounds one DOM Stabilizer wait.
type StabilizeParams struct {
	QuietMs               int
	TimeoutMs             int
	MinSignatureIntervalMs int
}

// DepthParams returns depth-tuned DOM stabilizer parameters: depth 0
// gets a longer budget than deeper pages, since homepages tend to carry
// more asynchronous widgets.
func DepthParams(depth int) StabilizeParams {
	if depth == 0 {
		return StabilizeParams{QuietMs: 6000, TimeoutMs: 12000, MinSignatureIntervalMs: 400}
	}
	return StabilizeParams{QuietMs: 4000, TimeoutMs: 8000, MinSignatureIntervalMs: 400}
}

// stabilizerScript is evaluated repeatedly inside the page. It keeps
// its signature state on a well-known window property, computing
// elementCount | textLength | djb2(normalizedText) only every
// min_signature_interval_ms and otherwise reusing the last signature
// with the accumulated quiet window.
const stabilizerScript = `
(function(minIntervalMs) {
  var state = window.__domStabilizerState;
  var now = Date.now();
  if (!state) {
    state = { lastSignature: null, lastCheckedAt: 0, quietSince: now };
    window.__domStabilizerState = state;
  }
  if (now - state.lastCheckedAt < minIntervalMs && state.lastSignature !== null) {
    return { signature: state.lastSignature, quietSince: state.quietSince, now: now };
  }
  var text = (document.body ? document.body.innerText : "").replace(/\s+/g, " ").trim();
  var elementCount = document.getElementsByTagName("*").length;
  var textLength = text.length;
  var h = 5381;
  for (var i = 0; i < text.length; i++) {
    h = ((h * 33) ^ text.charCodeAt(i)) >>> 0;
  }
  var signature = elementCount + "|" + textLength + "|" + h;
  state.lastCheckedAt = now;
  if (signature !== state.lastSignature) {
    state.quietSince = now;
  }
  state.lastSignature = signature;
  return { signature: signature, quietSince: state.quietSince, now: now };
})(%d)
`

type signatureSample struct {
	Signature string `json:"signature"`
	QuietSince int64 `json:"quietSince"`
	Now        int64 `json:"now"`
}

// Stabilize blocks until ctx's page has held a stable DOM signature for
// at least QuietMs, or TimeoutMs has elapsed — timeout is treated as
// success, not failure, since most pages do eventually settle well
// within the budget and a slow outlier shouldn't abort the page.
func Stabilize(ctx context.Context, p StabilizeParams) error {
	deadline := time.Now().Add(time.Duration(p.TimeoutMs) * time.Millisecond)
	pollInterval := time.Duration(p.MinSignatureIntervalMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}

	script := fmt.Sprintf(stabilizerScript, p.MinSignatureIntervalMs)

	for {
		var sample signatureSample
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &sample)); err != nil {
			return nil // best-effort: a failed Evaluate is treated like a timeout, not an error
		}

		quietFor := time.Duration(sample.Now-sample.QuietSince) * time.Millisecond
		if quietFor >= time.Duration(p.QuietMs)*time.Millisecond {
			return nil
		}
		if time.Now().After(deadline) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}
	}
}
