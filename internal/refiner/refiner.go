// Package refiner consolidates every snippet gathered for one category
// into a single string.
package refiner

import (
	"context"
	"fmt"
	"strings"

	"github.com/usercommon/hotelcorpus/internal/apperrors"
	"github.com/usercommon/hotelcorpus/internal/llmclient"
	"github.com/usercommon/hotelcorpus/internal/schema"
)

// Completer is the subset of *llmclient.Client the refiner needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error)
}

// Snippet is one (page_url, value) pair gathered by the Bucket
// Collector from a page's extractor output, in the order it was
// produced (input order, used for weighting tie-breaks).
type Snippet struct {
	PageURL string
	Value   string
}

// Refine consolidates snippets for the given category into one string.
// An empty bucket short-circuits to "" without an LLM call — the
// latest-revision behavior for a category nothing new was seen for. An
// unreachable LLM returns a non-nil TransientNetwork error so the
// caller can log it instead of silently treating it the same as an
// empty bucket.
func Refine(ctx context.Context, llm Completer, cat schema.Category, snippets []Snippet, homepageURL string, hotelName string, maxRetries int) (string, error) {
	if len(snippets) == 0 {
		return "", nil
	}

	prompt := buildPrompt(cat, snippets, homepageURL, hotelName)
	raw, err := llm.Complete(ctx, prompt, llmclient.RefinerMaxTokens, maxRetries)
	if err != nil {
		return "", apperrors.New(apperrors.TransientNetwork, "refiner.Refine", err)
	}
	return strings.TrimSpace(raw), nil
}

func buildPrompt(cat schema.Category, snippets []Snippet, homepageURL string, hotelName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Consolidate the following snippets about %q's %q into a single coherent value.\n", hotelName, cat.Name)

	if cat.Name != schema.Other {
		fmt.Fprintf(&b, "Field description: %s\n", schema.ResolveDescription(cat, hotelName))
	}
	if cat.MergeGuide != "" {
		fmt.Fprintf(&b, "Merge guidance: %s\n", cat.MergeGuide)
	}
	if cat.Name != schema.Other {
		b.WriteString("Weight snippets from URLs topically related to this field most; weight the homepage second; break ties in input order.\n")
		fmt.Fprintf(&b, "Homepage URL: %s\n", homepageURL)
	}
	b.WriteString("Remove duplicate information while preserving every fact; preserve any URLs that appear in the body text itself. ")
	b.WriteString("Do not emit the source-URL markers below in your output — output only the consolidated text.\n\n")

	for i, s := range snippets {
		fmt.Fprintf(&b, "[%d] source: %s\n%s\n\n", i+1, s.PageURL, s.Value)
	}
	return b.String()
}
