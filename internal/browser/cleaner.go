package browser

import (
	"context"
	"fmt"
	"regexp"

	"github.com/chromedp/chromedp"
)

// interTagWhitespaceRe collapses whitespace strictly between tags, the
// final step the caller (not the in-browser script) applies to Clean's
// output.
var interTagWhitespaceRe = regexp.MustCompile(`>\s+<`)

// Clean runs the DOM cleaner inside ctx's loaded page and returns the
// canonical, checksum-stable HTML serialization. depth selects whether
// navigational chrome is stripped: depth 0 keeps it, since hero content
// often sits inside header-classed wrappers.
func Clean(ctx context.Context, depth int) (string, error) {
	script := fmt.Sprintf(cleanerScript, boolLiteral(depth > 0))

	var html string
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &html)); err != nil {
		return "", err
	}
	return interTagWhitespaceRe.ReplaceAllString(html, "><"), nil
}

func boolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// cleanerScript removes script/style/ad/navigational noise in-browser:
// it mutates a clone of document.documentElement so the live page (and
// any in-flight widgets) is left untouched, then serializes the clone.
const cleanerScript = `
(function(stripChrome) {
  var root = document.documentElement.cloneNode(true);

  function matches(el, re) {
    var id = el.id || "";
    var cls = (el.className && el.className.baseVal !== undefined) ? el.className.baseVal : (el.className || "");
    var role = el.getAttribute ? (el.getAttribute("role") || "") : "";
    return re.test(id) || re.test(String(cls)) || re.test(role);
  }

  // 1. script/style/noscript/iframe/frame/svg/figure, ad-ish, recaptcha, HERE maps residue
  var removeTags = ["script", "style", "noscript", "iframe", "frame", "svg", "figure"];
  removeTags.forEach(function(tag) {
    root.querySelectorAll(tag).forEach(function(el) { el.remove(); });
  });
  var adRe = /ad|ads|advertisement/i;
  var recaptchaRe = /recaptcha|g-recaptcha/i;
  var hereMapsRe = /^H_/;
  root.querySelectorAll("*").forEach(function(el) {
    if (!el.parentNode) return;
    if (matches(el, adRe) || matches(el, recaptchaRe) || matches(el, hereMapsRe)) {
      el.remove();
    }
  });

  // 2. navigational chrome, only below depth 0
  if (stripChrome) {
    var navRe = /nav|header|footer|breadcrumb/i;
    root.querySelectorAll("*").forEach(function(el) {
      if (!el.parentNode) return;
      var tag = el.tagName ? el.tagName.toLowerCase() : "";
      if (navRe.test(tag) || matches(el, navRe)) {
        el.remove();
      }
    });
  }

  // 3. strip inline style attributes
  root.querySelectorAll("[style]").forEach(function(el) { el.removeAttribute("style"); });

  // 4. resolve href/src to absolute URLs against the current document URL
  root.querySelectorAll("[href]").forEach(function(el) {
    try { el.setAttribute("href", new URL(el.getAttribute("href"), document.baseURI).href); } catch (e) {}
  });
  root.querySelectorAll("[src]").forEach(function(el) {
    try { el.setAttribute("src", new URL(el.getAttribute("src"), document.baseURI).href); } catch (e) {}
  });

  // 5. remove structurally empty p|div|span (no children, whitespace-only text)
  var emptyable = ["p", "div", "span"];
  var changed = true;
  while (changed) {
    changed = false;
    emptyable.forEach(function(tag) {
      root.querySelectorAll(tag).forEach(function(el) {
        if (el.children.length === 0 && el.textContent.trim() === "") {
          el.remove();
          changed = true;
        }
      });
    });
  }

  // 6. merge adjacent text nodes, skipping pre|code subtrees
  function mergeAdjacentText(node) {
    var tag = node.tagName ? node.tagName.toLowerCase() : "";
    if (tag === "pre" || tag === "code") return;
    var child = node.firstChild;
    while (child) {
      var next = child.nextSibling;
      if (child.nodeType === Node.TEXT_NODE && next && next.nodeType === Node.TEXT_NODE) {
        child.nodeValue += next.nodeValue;
        node.removeChild(next);
        continue;
      }
      if (child.nodeType === Node.ELEMENT_NODE) {
        mergeAdjacentText(child);
      }
      child = next;
    }
  }
  mergeAdjacentText(root);

  return root.outerHTML;
})(%s)
`
