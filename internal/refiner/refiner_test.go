package refiner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usercommon/hotelcorpus/internal/apperrors"
	"github.com/usercommon/hotelcorpus/internal/schema"
)

type fakeCompleter struct {
	response string
	err      error
	called   bool
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error) {
	f.called = true
	return f.response, f.err
}

func TestRefineShortCircuitsOnEmptyBucket(t *testing.T) {
	llm := &fakeCompleter{response: "should not be returned"}
	cat, _ := schema.Lookup("guest_rooms")

	out, err := Refine(context.Background(), llm, cat, nil, "https://hotel.example.com/", "Example Hotel", 1)
	require.NoError(t, err)
	require.Equal(t, "", out)
	require.False(t, llm.called)
}

func TestRefineCallsLLMWhenBucketNonEmpty(t *testing.T) {
	llm := &fakeCompleter{response: "  Ocean-view rooms from $199.  "}
	cat, _ := schema.Lookup("guest_rooms")

	out, err := Refine(context.Background(), llm, cat, []Snippet{{PageURL: "https://hotel.example.com/rooms", Value: "Ocean-view rooms from $199."}}, "https://hotel.example.com/", "Example Hotel", 1)
	require.NoError(t, err)
	require.Equal(t, "Ocean-view rooms from $199.", out)
	require.True(t, llm.called)
}

func TestRefineReturnsErrorWhenLLMUnreachable(t *testing.T) {
	llm := &fakeCompleter{err: context.DeadlineExceeded}
	cat, _ := schema.Lookup("guest_rooms")

	out, err := Refine(context.Background(), llm, cat, []Snippet{{PageURL: "https://hotel.example.com/rooms", Value: "Ocean-view rooms from $199."}}, "https://hotel.example.com/", "Example Hotel", 1)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.TransientNetwork))
	require.Equal(t, "", out)
}

func TestBuildPromptOmitsDescriptionForOther(t *testing.T) {
	cat, _ := schema.Lookup(schema.Other)
	prompt := buildPrompt(cat, []Snippet{{PageURL: "u", Value: "v"}}, "https://hotel.example.com/", "Example Hotel")
	require.NotContains(t, prompt, "Field description:")
}
