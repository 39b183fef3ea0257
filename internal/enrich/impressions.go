package enrich

import (
	"regexp"
	"strings"

	"postpulse/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Impressions are the "is this a real post" signal, so their extraction
// gets two tiers. Tier 1 only trusts text inside the main content scope
// that literally says "post impressions" or "organic impressions".
// Tier 2 loosens to any "impressions"-bearing element, minus the phrases
// that are known to show up on non-post analytics surfaces.

var scopedImpressions = regexp.MustCompile(`(?i)([\d][\d,.\s]*)\s*(?:post|organic)\s+impressions`)
var looseImpressions = regexp.MustCompile(`(?i)([\d][\d,.\s]*)\s*impressions`)

var impressionFalsePositives = []string{
	"profile view",
	"search appearance",
}

func extractImpressions(doc *goquery.Document) int64 {
	scope := doc.Find(ContentContainer)
	if scope.Length() == 0 {
		scope = doc.Find("main")
	}
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	// tier 1: explicit phrase inside the content scope
	text := textutil.NormalizeSpace(scope.Text())
	if m := scopedImpressions.FindStringSubmatch(text); m != nil {
		return textutil.ParseCount(m[1])
	}

	// tier 2: smallest element carrying a numeric impressions run. A
	// bare "Impressions" label without a count must not shadow the
	// sibling that has one.
	best := ""
	count := int64(0)
	doc.Find("span, div, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(textutil.NormalizeSpace(s.Text()))
		m := looseImpressions.FindStringSubmatch(text)
		if m == nil {
			return
		}
		for _, phrase := range impressionFalsePositives {
			if strings.Contains(text, phrase) {
				return
			}
		}
		if best == "" || len(text) < len(best) {
			best = text
			count = textutil.ParseCount(m[1])
		}
	})
	return count
}
