// Package extractor issues one LLM request per dirty page, classifying
// its markdown into the closed Category Schema.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/usercommon/hotelcorpus/internal/apperrors"
	"github.com/usercommon/hotelcorpus/internal/llmclient"
	"github.com/usercommon/hotelcorpus/internal/schema"
)

// Completer is the subset of *llmclient.Client the extractor needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error)
}

// Page is the minimal per-page input the extractor needs.
type Page struct {
	URL      string
	Markdown string
}

// Extract issues one LLM request for page and returns a mapping from
// category name to extracted string (empty string means "not present
// on this page"). An unreachable LLM returns a non-nil TransientNetwork
// error and an empty map: the caller must not treat this page as
// extracted, or its llm_input_checksum would be stamped without the
// page ever actually having been classified. A parse failure or empty
// response similarly returns a non-nil ParseFailure error.
func Extract(ctx context.Context, llm Completer, page Page, hotelName string, maxRetries int) (map[string]string, error) {
	prompt := buildPrompt(page, hotelName)

	raw, err := llm.Complete(ctx, prompt, llmclient.ExtractorMaxTokens, maxRetries)
	if err != nil {
		return map[string]string{}, apperrors.New(apperrors.TransientNetwork, "extractor.Extract", err)
	}

	var decoded map[string]string
	if llmclient.ExtractJSON(raw, &decoded) == llmclient.Empty {
		return map[string]string{}, apperrors.New(apperrors.ParseFailure, "extractor.Extract", nil)
	}

	out := make(map[string]string, len(decoded))
	for _, cat := range schema.Categories {
		if v, ok := decoded[cat.Name]; ok {
			out[cat.Name] = strings.TrimSpace(v)
		}
	}
	return out, nil
}

func buildPrompt(page Page, hotelName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are classifying hotel website content for %q into a fixed set of categories.\n", hotelName)
	b.WriteString("Respond with JSON only, whose keys are EXACTLY the following category names, each a string value (use \"\" when the category is not present on this page):\n\n")
	for _, cat := range schema.Categories {
		fmt.Fprintf(&b, "- %s: %s", cat.Name, schema.ResolveDescription(cat, hotelName))
		if cat.CaptureGuide != "" {
			fmt.Fprintf(&b, " (%s)", cat.CaptureGuide)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nContent must originate solely from the page below; never invent facts. ")
	b.WriteString("Preserve list-shaped content as comma- or semicolon-separated text.\n\n")
	fmt.Fprintf(&b, "Page URL: %s\n\n", page.URL)
	b.WriteString("Page content:\n")
	b.WriteString(page.Markdown)
	return b.String()
}
