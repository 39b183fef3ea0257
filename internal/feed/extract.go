package feed

import (
	"strings"

	"postpulse/internal/artifact"
	"postpulse/lib/htmlutil"
	"postpulse/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const baseUrl = "https://www.linkedin.com"

// ExtractReferences pulls every loaded feed item out of a DOM snapshot,
// in document order. Items may repeat; DedupeWindow collapses them.
func ExtractReferences(html string) ([]artifact.PostReference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var refs []artifact.PostReference
	doc.Find(FeedItem).Each(func(_ int, item *goquery.Selection) {
		urn := itemUrn(item)
		if urn == "" {
			return
		}
		refs = append(refs, artifact.PostReference{
			Urn:         urn,
			Url:         itemUrl(item, urn),
			RawPostedAt: itemPostedAt(item),
		})
	})
	return refs, nil
}

func itemUrn(item *goquery.Selection) string {
	for _, attr := range urnAttrs {
		v, ok := item.Attr(attr)
		if ok && strings.Contains(v, ":activity:") {
			return v
		}
	}
	return ""
}

// best-effort canonical url: a permalink anchor if one rendered,
// otherwise synthesized from the urn
func itemUrl(item *goquery.Selection, urn string) string {
	href := htmlutil.FirstAttr(item.Find(PostLink), "href")
	if href == "" {
		return baseUrl + "/feed/update/" + urn + "/"
	}
	if strings.HasPrefix(href, "/") {
		return baseUrl + href
	}
	return href
}

func itemPostedAt(item *goquery.Selection) string {
	return textutil.CleanRelativeTime(
		htmlutil.CleanText(item.Find(PostTime).First()),
	)
}

// DedupeWindow collapses repeated urns keeping first-seen order, then
// windows to the first `window` items. DOM order after scrolling is the
// only ordering the platform gives us; the relative-time strings are not
// parseable into anything better.
func DedupeWindow(refs []artifact.PostReference, window int) []artifact.PostReference {
	seen := map[string]bool{}
	out := []artifact.PostReference{}
	for _, ref := range refs {
		if seen[ref.Urn] {
			continue
		}
		seen[ref.Urn] = true
		out = append(out, ref)
		if len(out) == window {
			break
		}
	}
	return out
}
