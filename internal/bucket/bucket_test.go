package bucket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usercommon/hotelcorpus/internal/store"
)

type fakePageStore struct {
	dirty        []store.Page
	markedChecks []string
}

func (f *fakePageStore) ListDirty(ctx context.Context, hotelID string) ([]store.Page, error) {
	return f.dirty, nil
}

func (f *fakePageStore) MarkExtracted(ctx context.Context, hotelID, pageURL, checksum, llmOutputJSON string) error {
	f.markedChecks = append(f.markedChecks, pageURL)
	return nil
}

type fakeMarketStore struct {
	record       *store.Record
	found        bool
	upsertFields map[string]string
	upsertCalls  int
}

func (f *fakeMarketStore) Get(ctx context.Context, hotelID string) (*store.Record, bool, error) {
	return f.record, f.found, nil
}

func (f *fakeMarketStore) Upsert(ctx context.Context, hotelID string, fields map[string]string, otherStructured *string) error {
	f.upsertCalls++
	f.upsertFields = fields
	return nil
}

type fakeCompleter struct {
	response string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error) {
	return f.response, nil
}

func TestRunNoopsWhenNoDirtyPages(t *testing.T) {
	pages := &fakePageStore{}
	market := &fakeMarketStore{}
	c := New(pages, market, &fakeCompleter{}, 1, nil)

	err := c.Run(context.Background(), "hotel-1", "Example Hotel")
	require.NoError(t, err)
	require.Zero(t, market.upsertCalls)
}

func TestRunDirectWritesWhenNoExistingRecord(t *testing.T) {
	pages := &fakePageStore{dirty: []store.Page{
		{HotelID: "hotel-1", PageURL: "https://hotel.example.com/rooms", Markdown: "Ocean-view rooms from $199.", Checksum: "abc"},
	}}
	market := &fakeMarketStore{found: false}
	llm := &sequencedCompleter{responses: []string{
		`{"guest_rooms": "Ocean-view rooms from $199."}`, // extractor
		"Ocean-view rooms from $199.",                    // refiner
	}}
	c := New(pages, market, llm, 1, nil)

	err := c.Run(context.Background(), "hotel-1", "Example Hotel")
	require.NoError(t, err)
	require.Equal(t, 1, market.upsertCalls)
	require.Equal(t, "Ocean-view rooms from $199.", market.upsertFields["guest_rooms"])
	require.Len(t, pages.markedChecks, 1)
}

func TestRunSkipsWriteWhenAdjudicatorSaysNoUpdate(t *testing.T) {
	pages := &fakePageStore{dirty: []store.Page{
		{HotelID: "hotel-1", PageURL: "https://hotel.example.com/rooms", Markdown: "Ocean-view rooms from $199.", Checksum: "abc"},
	}}
	market := &fakeMarketStore{found: true, record: &store.Record{
		HotelID: "hotel-1",
		Fields:  map[string]string{"guest_rooms": "Ocean-view rooms from $199."},
	}}
	// extractor/refiner both echo back the same value already on file, so
	// the adjudicator short-circuits on equal text without an LLM call;
	// the third response is never consumed.
	llm := &sequencedCompleter{responses: []string{
		`{"guest_rooms": "Ocean-view rooms from $199."}`, // extractor
		"Ocean-view rooms from $199.",                    // refiner
		`{"isUpdate": false, "mergedText": "Ocean-view rooms from $199."}`, // adjudicator
	}}
	c := New(pages, market, llm, 1, nil)

	err := c.Run(context.Background(), "hotel-1", "Example Hotel")
	require.NoError(t, err)
	require.Zero(t, market.upsertCalls)
}

type sequencedCompleter struct {
	responses []string
	i         int
}

func (f *sequencedCompleter) Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error) {
	if f.i >= len(f.responses) {
		return f.responses[len(f.responses)-1], nil
	}
	resp := f.responses[f.i]
	f.i++
	return resp, nil
}
