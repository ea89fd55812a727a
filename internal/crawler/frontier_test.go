package crawler

import "testing"

func TestFrontierPushManySkipsVisited(t *testing.T) {
	f := newFrontier("https://hotel.example.com/")

	if _, ok := f.pop(); !ok {
		t.Fatalf("expected seed item in frontier")
	}

	f.pushMany([]workItem{
		{url: "https://hotel.example.com/rooms", depth: 1},
		{url: "https://hotel.example.com/", depth: 1}, // already visited as the seed
	})

	item, ok := f.pop()
	if !ok {
		t.Fatalf("expected one new item in frontier")
	}
	if item.url != "https://hotel.example.com/rooms" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if !f.isEmpty() {
		t.Fatalf("expected frontier to be empty after popping the only new item")
	}
}

func TestFrontierSavedURLsEmptyUntilMarkSaved(t *testing.T) {
	f := newFrontier("https://hotel.example.com/")
	if urls := f.savedURLs(); len(urls) != 0 {
		t.Fatalf("expected no saved URLs before any markSaved call, got %v", urls)
	}

	f.markSaved("https://hotel.example.com/")
	urls := f.savedURLs()
	if len(urls) != 1 || urls[0] != "https://hotel.example.com/" {
		t.Fatalf("expected saved set to contain only the marked URL, got %v", urls)
	}
}

func TestFrontierSavedURLsExcludesMerelyEnqueuedURLs(t *testing.T) {
	f := newFrontier("https://hotel.example.com/")
	f.pushMany([]workItem{{url: "https://hotel.example.com/rooms", depth: 1}})

	if urls := f.savedURLs(); len(urls) != 0 {
		t.Fatalf("expected enqueueing alone not to mark a URL saved, got %v", urls)
	}
}
