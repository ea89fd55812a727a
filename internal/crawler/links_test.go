package crawler

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestFilterEnqueueableDropsBlockedExtensionsAndOtherHosts(t *testing.T) {
	base := mustParse(t, "https://hotel.example.com/")
	links := []rawLink{
		{Href: "/rooms"},
		{Href: "https://hotel.example.com/hero.jpg"},
		{Href: "https://www.google.com/search?q=hotel"},
		{Href: "javascript:void(0)"},
		{Href: "tel:+1234567890"},
		{Href: "https://other-hotel.example.org/about"},
		{Href: "/promo", Class: "ad-banner"},
	}

	out := filterEnqueueable(links, base, map[string]bool{}, 1, -1)

	if len(out) != 1 || out[0] != "https://hotel.example.com/rooms" {
		t.Fatalf("expected only /rooms to survive filtering, got %v", out)
	}
}

func TestFilterEnqueueableRespectsMaxDepth(t *testing.T) {
	base := mustParse(t, "https://hotel.example.com/")
	links := []rawLink{{Href: "/rooms"}}

	out := filterEnqueueable(links, base, map[string]bool{}, 3, 2)
	if len(out) != 0 {
		t.Fatalf("expected depth-bound to drop all links, got %v", out)
	}
}

func TestFilterEnqueueableDedupes(t *testing.T) {
	base := mustParse(t, "https://hotel.example.com/")
	links := []rawLink{{Href: "/rooms"}, {Href: "/rooms"}, {Href: "https://hotel.example.com/rooms"}}

	out := filterEnqueueable(links, base, map[string]bool{}, 1, -1)
	if len(out) != 1 {
		t.Fatalf("expected dedup to collapse to one entry, got %v", out)
	}
}

func TestFilterEnqueueableSkipsAlreadyVisited(t *testing.T) {
	base := mustParse(t, "https://hotel.example.com/")
	links := []rawLink{{Href: "/rooms"}, {Href: "/amenities"}}
	visited := map[string]bool{"https://hotel.example.com/rooms": true}

	out := filterEnqueueable(links, base, visited, 1, -1)
	if len(out) != 1 || out[0] != "https://hotel.example.com/amenities" {
		t.Fatalf("expected only unvisited /amenities, got %v", out)
	}
}

func TestIsBlockedExtension(t *testing.T) {
	cases := map[string]bool{
		"https://x.com/photo.JPG":  true,
		"https://x.com/brochure.pdf": true,
		"https://x.com/rooms":       false,
		"https://x.com/video.mp4":   true,
	}
	for raw, want := range cases {
		u := mustParse(t, raw)
		if got := isBlockedExtension(u); got != want {
			t.Errorf("isBlockedExtension(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestIsSearchEngineHost(t *testing.T) {
	if !isSearchEngineHost("www.google.com") {
		t.Fatalf("expected www.google.com to be a search engine host")
	}
	if isSearchEngineHost("hotel.example.com") {
		t.Fatalf("did not expect hotel.example.com to be a search engine host")
	}
}
