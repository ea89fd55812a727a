// Package writer turns the Merge Adjudicator's per-category decisions
// into a single changed-columns-only upsert against the Market-Data
// table.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/usercommon/hotelcorpus/internal/llmclient"
	"github.com/usercommon/hotelcorpus/internal/schema"
)

// Completer is the subset of *llmclient.Client the writer needs for its
// "other" structuring call.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error)
}

// MarketStore is the subset of *store.MarketDataStore the writer needs.
type MarketStore interface {
	Upsert(ctx context.Context, hotelID string, fields map[string]string, otherStructured *string) error
}

// notAValue is the sentinel text the writer treats as "no value",
// alongside the empty string, when deciding what belongs in a direct
// first-write update.
const notAValue = "n/a"

// Write takes the set of fields the Merge Adjudicator marked
// is_update=true (category name -> merged text) and upserts only those
// columns. If "other" changed, it also invokes the "other_structured"
// LLM call. An empty changed set is a no-op logged by the caller, not
// an error.
func Write(ctx context.Context, llm Completer, market MarketStore, hotelID string, hotelName string, changed map[string]string, maxRetries int) error {
	if len(changed) == 0 {
		return nil
	}

	var otherStructured *string
	if otherText, ok := changed[schema.Other]; ok && strings.TrimSpace(otherText) != "" {
		structured := structureOther(ctx, llm, hotelName, otherText, maxRetries)
		otherStructured = &structured
	}

	return market.Upsert(ctx, hotelID, changed, otherStructured)
}

// FilterDirectWrite handles the case where there is no existing
// Market-Data Record yet: the newly-refined map becomes the update
// directly, filtered for non-empty, non-"N/A" values. No Merge
// Adjudicator call is needed since there is nothing to adjudicate
// against.
func FilterDirectWrite(refined map[string]string) map[string]string {
	out := make(map[string]string, len(refined))
	for name, value := range refined {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || strings.EqualFold(trimmed, notAValue) {
			continue
		}
		out[name] = trimmed
	}
	return out
}

// structureOther converts other's free-form text into a flat JSON
// object with snake_case keys, falling back to "{}" on parse failure.
func structureOther(ctx context.Context, llm Completer, hotelName, otherText string, maxRetries int) string {
	prompt := fmt.Sprintf(
		"Convert the following free-form notes about %q into a flat JSON object with snake_case keys and string values. Respond with JSON only.\n\nNotes:\n%s",
		hotelName, otherText,
	)
	raw, err := llm.Complete(ctx, prompt, llmclient.AdjudicatorMaxTokens, maxRetries)
	if err != nil {
		return "{}"
	}

	var decoded map[string]any
	if llmclient.ExtractJSON(raw, &decoded) == llmclient.Empty {
		return "{}"
	}

	b, err := json.Marshal(decoded)
	if err != nil {
		return "{}"
	}
	return string(b)
}
