// Package enrich is the per-item pass that turns bare post references
// into posts with performance metrics, by navigating each detail view
// sequentially and applying layered DOM extraction. Items fail
// individually, never as a batch; items without a positive impression
// count are treated as non-analytics items and dropped.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"postpulse/internal/artifact"
	"postpulse/internal/session"
	"postpulse/internal/vault"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("postpulse.enrich")

// Page is the slice of browser behavior enrichment needs. Navigation is
// strictly sequential, one page at a time.
type Page interface {
	SetCookie(name, value, domain string) error
	Navigate(url string) error
	WaitVisible(selector string, timeout time.Duration) error
	HTML() (string, error)
}

type Config struct {
	// bounded wait for the detail view's content container, default 10s.
	// running out of it is tolerated, extraction proceeds best-effort.
	WaitSeconds int `json:"wait_seconds"`
}

func (c Config) withDefaults() Config {
	if c.WaitSeconds <= 0 {
		c.WaitSeconds = 10
	}
	return c
}

type Enricher struct {
	vault  *vault.Vault
	config Config
}

func NewEnricher(v *vault.Vault, config Config) *Enricher {
	return &Enricher{
		vault:  v,
		config: config.withDefaults(),
	}
}

// Enrich processes the references one by one. Any per-item failure is
// logged and skipped. The returned set is guaranteed to only contain
// posts with impressions > 0.
func (e *Enricher) Enrich(ctx context.Context, page Page, refs []artifact.PostReference) ([]artifact.EnrichedPost, error) {
	ctx, span := tracer.Start(ctx, "Enrich")
	defer span.End()

	_, token, err := e.vault.LatestToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load account")
		return nil, err
	}
	err = page.SetCookie(session.SessionCookie, token, session.CookieDomain)
	if err != nil {
		return nil, err
	}

	posts := []artifact.EnrichedPost{}
	for _, ref := range refs {
		post, err := e.enrichOne(ctx, page, ref)
		if err != nil {
			slog.WarnContext(ctx, "skipping post", "urn", ref.Urn, "err", err)
			continue
		}
		if post.Impressions <= 0 {
			// a zero here means "not an analytics item" (e.g. a repost
			// of someone else's content), not an extraction failure
			slog.DebugContext(ctx, "dropping zero-impression item", "urn", ref.Urn)
			continue
		}
		posts = append(posts, post)
	}

	// the invariant holds even if an extraction heuristic regresses
	posts = FilterPositiveImpressions(posts)

	span.SetAttributes(
		attribute.Int("references", len(refs)),
		attribute.Int("enriched", len(posts)),
	)
	slog.InfoContext(ctx, "enrichment finished", "in", len(refs), "out", len(posts))
	return posts, nil
}

func (e *Enricher) enrichOne(ctx context.Context, page Page, ref artifact.PostReference) (artifact.EnrichedPost, error) {
	ctx, span := tracer.Start(ctx, "enrichOne")
	defer span.End()
	span.SetAttributes(attribute.String("urn", ref.Urn))

	err := page.Navigate(ref.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigate")
		return artifact.EnrichedPost{}, err
	}

	err = page.WaitVisible(ContentContainer, time.Duration(e.config.WaitSeconds)*time.Second)
	if err != nil {
		slog.DebugContext(ctx, "content container never rendered, extracting anyway",
			"urn", ref.Urn, "err", err)
	}

	html, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot")
		return artifact.EnrichedPost{}, err
	}
	return ExtractPost(ref, html)
}

// FilterPositiveImpressions re-applies the positive-impressions
// predicate defensively before results are considered output.
func FilterPositiveImpressions(posts []artifact.EnrichedPost) []artifact.EnrichedPost {
	out := []artifact.EnrichedPost{}
	for _, post := range posts {
		if post.Impressions > 0 {
			out = append(out, post)
		}
	}
	return out
}
