package enrich

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"postpulse/internal/artifact"
	"postpulse/internal/vault"
	vaultdb "postpulse/internal/vault/db"
	"postpulse/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const detailFixture = `
<html><body><main>
<div class="feed-shared-update-v2">
  <span class="update-components-actor__sub-description">3d • Edited</span>
  <div class="update-components-text">Shipping a new thing today! 🚀</div>
  <img class="update-components-image__image" src="https://media.example/img.jpg"/>
  <span class="social-details-social-counts__reactions-count">87</span>
  <div class="social-details-social-counts__comments"><button>12 comments</button></div>
  <div class="social-details-social-counts__item--right-aligned"><button>4 reposts</button></div>
  <div class="analytics-entry-point">1,234 post impressions</div>
</div>
</main></body></html>`

const zeroImpressionsFixture = `
<html><body><main>
<div class="feed-shared-update-v2">
  <div class="update-components-text">Sharing someone else's post</div>
</div>
</main></body></html>`

func ref(urn string) artifact.PostReference {
	return artifact.PostReference{
		Urn:         urn,
		Url:         "https://www.linkedin.com/feed/update/" + urn + "/",
		RawPostedAt: "3d",
	}
}

func TestExtractPost(t *testing.T) {
	post, err := ExtractPost(ref("urn:li:activity:7001"), detailFixture)
	require.NoError(t, err)

	require.Equal(t, "urn:li:activity:7001", post.Urn)
	require.Equal(t, "Shipping a new thing today! 🚀", post.Content)
	require.Equal(t, "https://media.example/img.jpg", post.ImageUrl)
	require.Equal(t, "3d", post.RawPostedAt)
	require.Equal(t, int64(87), post.Likes)
	require.Equal(t, int64(12), post.Comments)
	require.Equal(t, int64(4), post.Reposts)
	require.Equal(t, int64(1234), post.Impressions)
}

func TestExtractPostMissingFieldsDefault(t *testing.T) {
	post, err := ExtractPost(ref("urn:li:activity:7002"), zeroImpressionsFixture)
	require.NoError(t, err)

	require.Equal(t, "Sharing someone else's post", post.Content)
	require.Empty(t, post.ImageUrl)
	require.Zero(t, post.Likes)
	require.Zero(t, post.Impressions)
}

func TestImpressionsSecondTier(t *testing.T) {
	// no explicit "post impressions" phrase, the loose tier picks it up
	html := `<html><body><main>
	<div class="feed-shared-update-v2"><div class="update-components-text">hi</div></div>
	<div><span>2,456 impressions</span></div>
	</main></body></html>`

	post, err := ExtractPost(ref("urn:li:activity:7003"), html)
	require.NoError(t, err)
	require.Equal(t, int64(2456), post.Impressions)
}

func TestImpressionsIgnoresFalsePositives(t *testing.T) {
	html := `<html><body><main>
	<div class="feed-shared-update-v2"><div class="update-components-text">hi</div></div>
	<div><span>99 profile views and impressions this week</span></div>
	</main></body></html>`

	post, err := ExtractPost(ref("urn:li:activity:7004"), html)
	require.NoError(t, err)
	require.Zero(t, post.Impressions)
}

func TestImpressionsBareLabelDoesNotShadowCount(t *testing.T) {
	// the analytics widget renders a digit-less "Impressions" header next
	// to the element that carries the count; the header is shorter but
	// must not win the candidate slot
	html := `<html><body><main>
	<div class="feed-shared-update-v2"><div class="update-components-text">hi</div></div>
	<div><span>Impressions</span><span>2,456 impressions</span></div>
	</main></body></html>`

	post, err := ExtractPost(ref("urn:li:activity:7005"), html)
	require.NoError(t, err)
	require.Equal(t, int64(2456), post.Impressions)
}

func TestContentStrategyFallsThroughToLaterSelector(t *testing.T) {
	// no .update-components-text anywhere, the article fallback matches
	html := `<html><body><main>
	<div class="feed-shared-update-v2">
	  <article><div class="break-words">fallback body text</div></article>
	  <div>1,000 post impressions</div>
	</div>
	</main></body></html>`

	post, err := ExtractPost(ref("urn:li:activity:7006"), html)
	require.NoError(t, err)
	require.Equal(t, "fallback body text", post.Content)
}

func TestContentStrategyEarlierSelectorWins(t *testing.T) {
	html := `<html><body><main>
	<div class="feed-shared-update-v2">
	  <div class="update-components-text">primary body text</div>
	  <article><div class="break-words">fallback body text</div></article>
	  <div>1,000 post impressions</div>
	</div>
	</main></body></html>`

	post, err := ExtractPost(ref("urn:li:activity:7007"), html)
	require.NoError(t, err)
	require.Equal(t, "primary body text", post.Content)
}

type fakePage struct {
	// html per url, a missing entry simulates a navigation failure
	pages   map[string]string
	cookies map[string]string

	current string
	visited []string
}

func (p *fakePage) SetCookie(name, value, domain string) error {
	if p.cookies == nil {
		p.cookies = map[string]string{}
	}
	p.cookies[name] = value
	return nil
}

func (p *fakePage) Navigate(url string) error {
	p.visited = append(p.visited, url)
	html, ok := p.pages[url]
	if !ok {
		return errors.New("net::ERR_CONNECTION_RESET")
	}
	p.current = html
	return nil
}

func (p *fakePage) WaitVisible(selector string, timeout time.Duration) error { return nil }
func (p *fakePage) HTML() (string, error)                                    { return p.current, nil }

func setupEnricher(t testing.TB) *Enricher {
	cleanup := telemetry.SetupForTesting(t, "test:internal/enrich")
	t.Cleanup(cleanup)

	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(vaultdb.Schema)
	require.NoError(t, err)
	v, err := vault.New("test passphrase", sqlite)
	require.NoError(t, err)

	record, err := v.Encrypt("AQEDAbCdEfGh123456")
	require.NoError(t, err)
	_, err = v.Save(context.Background(), "me", record)
	require.NoError(t, err)

	return NewEnricher(v, Config{})
}

func TestEnrich(t *testing.T) {
	enricher := setupEnricher(t)

	refs := []artifact.PostReference{
		ref("urn:li:activity:1"), // enriched
		ref("urn:li:activity:2"), // zero impressions, dropped
		ref("urn:li:activity:3"), // navigation fails, skipped
		ref("urn:li:activity:4"), // enriched
	}
	page := &fakePage{pages: map[string]string{
		refs[0].Url: detailFixture,
		refs[1].Url: zeroImpressionsFixture,
		refs[3].Url: detailFixture,
	}}

	posts, err := enricher.Enrich(context.Background(), page, refs)
	require.NoError(t, err)

	// the one bad item never aborted the batch
	require.Len(t, page.visited, 4)
	require.Equal(t, "AQEDAbCdEfGh123456", page.cookies["li_at"])

	require.Len(t, posts, 2)
	require.Equal(t, "urn:li:activity:1", posts[0].Urn)
	require.Equal(t, "urn:li:activity:4", posts[1].Urn)
	for _, post := range posts {
		require.Positive(t, post.Impressions)
	}
}

func TestEnrichNoAccount(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:internal/enrich")
	t.Cleanup(cleanup)

	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(vaultdb.Schema)
	require.NoError(t, err)
	v, err := vault.New("test passphrase", sqlite)
	require.NoError(t, err)

	enricher := NewEnricher(v, Config{})
	_, err = enricher.Enrich(context.Background(), &fakePage{}, []artifact.PostReference{ref("urn:li:activity:1")})
	require.ErrorIs(t, err, vault.ErrNoAccount)
}

func TestFilterPositiveImpressions(t *testing.T) {
	posts := []artifact.EnrichedPost{
		{Urn: "a", Impressions: 10},
		{Urn: "b", Impressions: 0},
		{Urn: "c", Impressions: -1},
	}
	out := FilterPositiveImpressions(posts)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].Urn)
}
