package crawler

import (
	"net/url"
	"path"
	"strings"
)

// blockedExtensions is the closed list of binary-asset suffixes the
// crawler refuses to enqueue.
var blockedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true, ".ico": true, ".bmp": true, ".tiff": true,
	".mp4": true, ".webm": true, ".mov": true, ".avi": true, ".mkv": true,
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true,
	".pdf": true,
}

// searchEngineHosts is the closed list of hostnames treated as
// search-engine noise and filtered from link extraction.
var searchEngineHosts = map[string]bool{
	"google.com": true, "www.google.com": true,
	"bing.com": true, "www.bing.com": true,
	"yahoo.com": true, "search.yahoo.com": true,
	"duckduckgo.com": true,
	"baidu.com": true, "www.baidu.com": true,
	"yandex.com": true, "www.yandex.com": true,
}

// isAdScoped applies the same ad|ads|advertisement marker the DOM
// cleaner uses, here to an anchor's own class/id/role attributes
// rather than a DOM subtree.
func isAdScoped(class, id, role string) bool {
	joined := strings.ToLower(class + " " + id + " " + role)
	return strings.Contains(joined, "ad")
}

func isBlockedExtension(u *url.URL) bool {
	ext := strings.ToLower(path.Ext(u.Path))
	return blockedExtensions[ext]
}

func isSearchEngineHost(host string) bool {
	return searchEngineHosts[strings.ToLower(host)]
}

func isEnqueueableScheme(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname())
}

// rawLink is one anchor discovered in the live DOM before the DOM
// cleaner mutates it, carrying just enough attribute data to apply the
// enqueue filters below.
type rawLink struct {
	Href  string `json:"href"`
	Class string `json:"class"`
	ID    string `json:"id"`
	Role  string `json:"role"`
}

// filterEnqueueable applies the full link-enqueue filter chain
// (ad-scoped, javascript:/tel:, scheme, search-engine host, blocked
// extension, same-origin, already-visited, depth bound) to a page's
// raw anchor list. It returns the resolved, deduplicated absolute URLs
// still eligible to enqueue.
func filterEnqueueable(links []rawLink, base *url.URL, visited map[string]bool, nextDepth, maxDepth int) []string {
	if maxDepth >= 0 && nextDepth > maxDepth {
		return nil
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(links))
	for _, l := range links {
		if isAdScoped(l.Class, l.ID, l.Role) {
			continue
		}
		trimmed := strings.TrimSpace(l.Href)
		if trimmed == "" || strings.HasPrefix(trimmed, "javascript:") || strings.HasPrefix(trimmed, "tel:") {
			continue
		}
		resolved, err := base.Parse(trimmed)
		if err != nil {
			continue
		}
		resolved.Fragment = ""
		if !isEnqueueableScheme(resolved) {
			continue
		}
		if isSearchEngineHost(resolved.Hostname()) {
			continue
		}
		if isBlockedExtension(resolved) {
			continue
		}
		if !sameOrigin(base, resolved) {
			continue
		}
		abs := resolved.String()
		if visited[abs] || seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}
