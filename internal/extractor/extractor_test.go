package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usercommon/hotelcorpus/internal/apperrors"
)

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error) {
	return f.response, f.err
}

func TestExtractFiltersToKnownCategories(t *testing.T) {
	llm := &fakeCompleter{response: `{"guest_rooms": "Ocean-view rooms from $199.", "not_a_category": "ignored"}`}

	out, err := Extract(context.Background(), llm, Page{URL: "https://hotel.example.com/", Markdown: "Ocean-view rooms from $199."}, "Example Hotel", 1)
	require.NoError(t, err)
	require.Equal(t, "Ocean-view rooms from $199.", out["guest_rooms"])
	_, present := out["not_a_category"]
	require.False(t, present)
}

func TestExtractReturnsEmptyMapOnUnparsableResponse(t *testing.T) {
	llm := &fakeCompleter{response: "I couldn't extract anything structured."}

	out, err := Extract(context.Background(), llm, Page{URL: "https://hotel.example.com/"}, "Example Hotel", 1)
	require.Error(t, err)
	require.Empty(t, out)
}

func TestExtractReturnsErrorWhenLLMUnreachable(t *testing.T) {
	llm := &fakeCompleter{err: context.DeadlineExceeded}

	out, err := Extract(context.Background(), llm, Page{URL: "https://hotel.example.com/"}, "Example Hotel", 1)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.TransientNetwork))
	require.Empty(t, out)
}

func TestBuildPromptEnumeratesEveryCategory(t *testing.T) {
	prompt := buildPrompt(Page{URL: "https://hotel.example.com/", Markdown: "hello"}, "Example Hotel")
	require.Contains(t, prompt, "guest_rooms")
	require.Contains(t, prompt, "faq")
	require.Contains(t, prompt, "Example Hotel")
}
