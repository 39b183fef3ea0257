package enrich

import (
	"strings"

	"postpulse/internal/artifact"
	"postpulse/lib/htmlutil"
	"postpulse/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPost reduces one detail-view snapshot into an enriched post.
// Every field degrades independently: a missing selector leaves the
// field empty or zero, it never fails the item.
func ExtractPost(ref artifact.PostReference, html string) (artifact.EnrichedPost, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return artifact.EnrichedPost{}, err
	}

	post := artifact.EnrichedPost{
		Urn:         ref.Urn,
		Url:         ref.Url,
		RawPostedAt: ref.RawPostedAt,
	}

	post.Content = firstText(doc, contentStrategies)
	post.ImageUrl = firstAttr(doc, imageStrategies, "src")
	if raw := firstText(doc, dateStrategies); raw != "" {
		post.RawPostedAt = textutil.CleanRelativeTime(raw)
	}
	post.Likes = textutil.ParseCount(firstText(doc, likeStrategies))
	post.Comments = textutil.ParseCount(firstText(doc, commentStrategies))
	post.Reposts = textutil.ParseCount(firstText(doc, repostStrategies))
	post.Impressions = extractImpressions(doc)

	return post, nil
}

// firstText applies the strategy chain in order and returns the first
// non-empty text match.
func firstText(doc *goquery.Document, strategies []string) string {
	for _, selector := range strategies {
		text := htmlutil.CleanText(doc.Find(selector).First())
		if text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, strategies []string, attr string) string {
	for _, selector := range strategies {
		value := htmlutil.FirstAttr(doc.Find(selector), attr)
		if value != "" {
			return value
		}
	}
	return ""
}
