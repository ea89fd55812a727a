// Package markdown implements deterministic HTML→Markdown conversion:
// ATX headings, "---" thematic breaks, "-" bullet markers, fenced code
// blocks, "*"/"**" emphasis, and custom link/image/button rules that
// strip URLs entirely (they are noisy for checksums and unused
// downstream).
package markdown

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/usercommon/hotelcorpus/internal/hashutil"
)

// Convert turns cleaned, checksum-stable HTML into the post-processed
// markdown that feeds Content-Hash: NFC-normalized, CRLF→LF, trimmed.
func Convert(html string) (string, error) {
	converter := newConverter()
	out, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	return postProcess(out), nil
}

func newConverter() *md.Converter {
	c := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		HorizontalRule:   "---",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "*",
		StrongDelimiter:  "**",
		LinkStyle:        "inlined",
	})

	c.AddRules(
		md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return strPtr(linkReplacement(content, selec))
			},
		},
		md.Rule{
			Filter: []string{"button"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return strPtr(buttonReplacement(content))
			},
		},
		md.Rule{
			Filter: []string{"img"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return strPtr("")
			},
		},
	)

	return c
}

// linkReplacement implements the "Links" rule: content [link], or
// content [button] when the anchor's role or class reads as a button.
// URLs are always dropped.
func linkReplacement(content string, selec *goquery.Selection) string {
	text := strings.TrimSpace(content)
	if text == "" {
		return ""
	}
	if isButtonish(selec) {
		return text + " [button]"
	}
	return text + " [link]"
}

// buttonReplacement implements the "Buttons" rule directly: empty content
// yields empty string, otherwise "content [button]".
func buttonReplacement(content string) string {
	text := strings.TrimSpace(content)
	if text == "" {
		return ""
	}
	return text + " [button]"
}

func isButtonish(selec *goquery.Selection) bool {
	role, _ := selec.Attr("role")
	class, _ := selec.Attr("class")
	joined := strings.ToLower(role + " " + class)
	return strings.Contains(joined, "button") || strings.Contains(joined, "btn")
}

func strPtr(s string) *string { return &s }

// postProcess applies the NFC-normalize / CRLF→LF / trim pipeline that
// makes the converter's output suitable as Content-Hash input.
func postProcess(markdown string) string {
	normalized := hashutil.NFC(markdown)
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.TrimSpace(normalized)
}
