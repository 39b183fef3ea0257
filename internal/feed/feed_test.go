package feed

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"postpulse/internal/artifact"
	"postpulse/internal/vault"
	vaultdb "postpulse/internal/vault/db"
	"postpulse/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const feedFixture = `
<html><body>
<main>
  <div class="feed-shared-update-v2" data-urn="urn:li:activity:7001">
    <span class="update-components-actor__sub-description">3d • Edited</span>
    <a href="/feed/update/urn:li:activity:7001/">post</a>
  </div>
  <div class="feed-shared-update-v2" data-urn="urn:li:activity:7001">
    <span class="update-components-actor__sub-description">3d • Edited</span>
  </div>
  <div data-id="urn:li:activity:7002">
    <span class="update-components-actor__sub-description">1w</span>
  </div>
  <div class="feed-shared-update-v2" data-urn="urn:li:ugcPost:9999">
    <span class="update-components-actor__sub-description">2w</span>
  </div>
</main>
</body></html>`

func TestExtractReferences(t *testing.T) {
	refs, err := ExtractReferences(feedFixture)
	require.NoError(t, err)

	// the ugcPost container carries no activity urn and is skipped,
	// the duplicate is still present at this stage
	require.Len(t, refs, 3)

	require.Equal(t, "urn:li:activity:7001", refs[0].Urn)
	require.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:7001/", refs[0].Url)
	require.Equal(t, "3d", refs[0].RawPostedAt)

	// no anchor rendered: url is synthesized from the urn
	require.Equal(t, "urn:li:activity:7002", refs[2].Urn)
	require.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:7002/", refs[2].Url)
	require.Equal(t, "1w", refs[2].RawPostedAt)
}

func TestDedupeKeepsFirstSeenOrder(t *testing.T) {
	refs := []artifact.PostReference{
		{Urn: "A"}, {Urn: "A"}, {Urn: "B"},
	}
	out := DedupeWindow(refs, 30)
	require.Equal(t, []artifact.PostReference{{Urn: "A"}, {Urn: "B"}}, out)
}

func TestWindowCapsAtN(t *testing.T) {
	var refs []artifact.PostReference
	for i := 0; i < 45; i++ {
		refs = append(refs, artifact.PostReference{Urn: fmt.Sprintf("urn:li:activity:%d", i)})
	}
	out := DedupeWindow(refs, 30)
	require.Len(t, out, 30)
	require.Equal(t, "urn:li:activity:0", out[0].Urn)
	require.Equal(t, "urn:li:activity:29", out[29].Urn)
}

type fakePage struct {
	location string
	html     string

	cookies   map[string]string
	navigated []string
	scrolls   int
	onScroll  func()
}

func (p *fakePage) SetCookie(name, value, domain string) error {
	if p.cookies == nil {
		p.cookies = map[string]string{}
	}
	p.cookies[name] = value
	return nil
}

func (p *fakePage) Navigate(url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Location() (string, error) { return p.location, nil }
func (p *fakePage) HTML() (string, error)     { return p.html, nil }

func (p *fakePage) ScrollViewport() error {
	p.scrolls++
	if p.onScroll != nil {
		p.onScroll()
	}
	return nil
}

func setupCollector(t testing.TB, config Config) *Collector {
	cleanup := telemetry.SetupForTesting(t, "test:internal/feed")
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

	return NewCollector(v, config)
}

func TestCollect(t *testing.T) {
	collector := setupCollector(t, Config{
		ScrollCount:        2,
		ScrollDelaySeconds: 1,
		Window:             30,
	})
	page := &fakePage{
		location: "https://www.linkedin.com/feed/",
		html:     feedFixture,
	}

	refs, err := collector.Collect(context.Background(), page)
	require.NoError(t, err)

	require.Equal(t, "AQEDAbCdEfGh123456", page.cookies["li_at"])
	require.Equal(t, []string{"https://www.linkedin.com/feed/"}, page.navigated)
	require.Equal(t, 2, page.scrolls)

	require.Len(t, refs, 2)
	require.Equal(t, "urn:li:activity:7001", refs[0].Urn)
	require.Equal(t, "urn:li:activity:7002", refs[1].Urn)
}

func TestCollectInvalidSessionAbortsBeforeScrolling(t *testing.T) {
	collector := setupCollector(t, Config{ScrollCount: 2, ScrollDelaySeconds: 1})
	page := &fakePage{
		location: "https://www.linkedin.com/login?redirect=feed",
		html:     feedFixture,
	}

	_, err := collector.Collect(context.Background(), page)
	require.ErrorIs(t, err, ErrSessionInvalid)
	require.Zero(t, page.scrolls)
}

func TestCollectStopsScrollingOnCancel(t *testing.T) {
	collector := setupCollector(t, Config{
		ScrollCount:        50,
		ScrollDelaySeconds: 1,
		Window:             30,
	})
	page := &fakePage{
		location: "https://www.linkedin.com/feed/",
		html:     feedFixture,
	}

	ctx, cancel := context.WithCancel(context.Background())
	page.onScroll = func() {
		if page.scrolls == 2 {
			cancel()
		}
	}

	_, err := collector.Collect(ctx, page)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, page.scrolls)
}

func TestCollectNoAccount(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:internal/feed")
	t.Cleanup(cleanup)

	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(vaultdb.Schema)
	require.NoError(t, err)
	v, err := vault.New("test passphrase", sqlite)
	require.NoError(t, err)

	collector := NewCollector(v, Config{})
	_, err = collector.Collect(context.Background(), &fakePage{})
	require.ErrorIs(t, err, vault.ErrNoAccount)
}
