// Package feed is the collection pipeline: it validates the stored
// session against the live feed, scrolls a bounded number of viewports
// to force the virtualized feed to render, and reduces one DOM snapshot
// into a deduplicated, windowed reference list.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"postpulse/internal/artifact"
	"postpulse/internal/session"
	"postpulse/internal/vault"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("postpulse.feed")

var ErrSessionInvalid = errors.New("session is no longer valid")

const feedUrl = "https://www.linkedin.com/feed/"

// url fragments that mean we got bounced to an unauthenticated surface
var loginMarkers = []string{"login", "authwall", "signup", "checkpoint"}

// Page is the slice of browser behavior collection needs.
type Page interface {
	SetCookie(name, value, domain string) error
	Navigate(url string) error
	Location() (string, error)
	ScrollViewport() error
	HTML() (string, error)
}

type Config struct {
	// viewport-height scroll steps, default 50
	ScrollCount int `json:"scroll_count"`
	// pause between steps so lazy content renders, default 3s
	ScrollDelaySeconds int `json:"scroll_delay_seconds"`
	// keep the most recent N references, default 30
	Window int `json:"window"`
}

func (c Config) withDefaults() Config {
	if c.ScrollCount <= 0 {
		c.ScrollCount = 50
	}
	if c.ScrollDelaySeconds <= 0 {
		c.ScrollDelaySeconds = 3
	}
	if c.Window <= 0 {
		c.Window = 30
	}
	return c
}

type Collector struct {
	vault  *vault.Vault
	config Config
}

func NewCollector(v *vault.Vault, config Config) *Collector {
	return &Collector{
		vault:  v,
		config: config.withDefaults(),
	}
}

// Collect drives page through the whole collection run. A login redirect
// aborts everything before the first scroll; nothing partial escapes.
func (c *Collector) Collect(ctx context.Context, page Page) ([]artifact.PostReference, error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	_, token, err := c.vault.LatestToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load account")
		return nil, err
	}

	err = page.SetCookie(session.SessionCookie, token, session.CookieDomain)
	if err != nil {
		return nil, err
	}
	err = page.Navigate(feedUrl)
	if err != nil {
		return nil, err
	}

	location, err := page.Location()
	if err != nil {
		return nil, err
	}
	if isLoginRedirect(location) {
		slog.WarnContext(ctx, "feed redirected to login", "location", location)
		span.SetStatus(codes.Error, "session invalid")
		return nil, ErrSessionInvalid
	}

	slog.InfoContext(ctx, "session valid, scrolling feed",
		"steps", c.config.ScrollCount,
		"delay_seconds", c.config.ScrollDelaySeconds,
	)
	for i := 0; i < c.config.ScrollCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err = page.ScrollViewport()
		if err != nil {
			return nil, err
		}
		sleepWithJitter(ctx, time.Duration(c.config.ScrollDelaySeconds)*time.Second)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	raw, err := ExtractReferences(html)
	if err != nil {
		return nil, err
	}
	refs := DedupeWindow(raw, c.config.Window)

	span.SetAttributes(
		attribute.Int("raw_items", len(raw)),
		attribute.Int("references", len(refs)),
	)
	slog.InfoContext(ctx, "collected references", "raw", len(raw), "kept", len(refs))
	return refs, nil
}

func isLoginRedirect(location string) bool {
	for _, marker := range loginMarkers {
		if strings.Contains(location, marker) {
			return true
		}
	}
	return false
}

// a little jitter keeps the scroll cadence from being perfectly periodic
func sleepWithJitter(ctx context.Context, base time.Duration) {
	jitterMs, err := random.IntRange(0, 500)
	if err != nil {
		jitterMs = 0
	}
	select {
	case <-time.After(base + time.Duration(jitterMs)*time.Millisecond):
	case <-ctx.Done():
	}
}
