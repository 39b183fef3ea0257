package enrich

// Post detail view DOM strategies.
// Each field has an ordered fallback chain, the first selector that
// yields anything non-empty wins. Update these when extraction breaks.

// the detail view's content container, waited on after navigation
const ContentContainer = `.feed-shared-update-v2`

var contentStrategies = []string{
	`.feed-shared-update-v2 .update-components-text`,
	`.feed-shared-inline-show-more-text`,
	`.update-components-text span[dir="ltr"]`,
	`article .break-words`,
}

var imageStrategies = []string{
	`.update-components-image__image`,
	`.update-components-image img`,
	`.feed-shared-image img`,
	`img.ivm-view-attr__img--centered`,
}

var dateStrategies = []string{
	`.update-components-actor__sub-description`,
	`span.update-components-actor__sub-description-link`,
	`time`,
}

var likeStrategies = []string{
	`.social-details-social-counts__reactions-count`,
	`.social-details-social-counts__social-proof-fallback-number`,
	`button[aria-label*="reaction"] span`,
}

var commentStrategies = []string{
	`.social-details-social-counts__comments button`,
	`button[aria-label*="comment"] span`,
	`a[href*="comments"]`,
}

var repostStrategies = []string{
	`.social-details-social-counts__item--right-aligned button`,
	`button[aria-label*="repost"] span`,
}
