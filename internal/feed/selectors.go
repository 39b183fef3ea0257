package feed

// LinkedIn feed DOM selectors.
// These are isolated here because the feed markup shifts between
// rollouts. Update these when collection breaks.
const (
	// a loaded feed item, old and new containers
	FeedItem = `div.feed-shared-update-v2[data-urn], div[data-id^="urn:li:activity"]`

	// canonical permalink anchor inside an item
	PostLink = `a[href*="/feed/update/"]`

	// relative-time text, e.g. "3d • Edited"
	PostTime = `.update-components-actor__sub-description, span.update-components-actor__sub-description-link, time`
)

// item identifier attributes, checked in order
var urnAttrs = []string{"data-urn", "data-id"}
