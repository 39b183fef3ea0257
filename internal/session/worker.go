package session

import (
	"context"
	"log/slog"
	"time"

	"postpulse/internal/handoff"
	"postpulse/lib/browser"
)

// RunWorker is the detached side of the handoff: it opens a visible
// browser on the platform's login page, watches the cookie jar until the
// session cookie appears or the bound elapses, writes exactly one
// terminal result, and closes the browser on every path out.
func RunWorker(ctx context.Context, id string, h *handoff.Broker, config Config) error {
	config = config.withDefaults()

	b, err := browser.Launch(ctx, config.Browser)
	if err != nil {
		slog.ErrorContext(ctx, "browser launch failed", "session_id", id, "err", err)
		completeErr := h.Complete(id, handoff.Result{
			Status:  handoff.StatusError,
			Message: "browser launch failed",
		})
		if completeErr != nil {
			slog.ErrorContext(ctx, "failed to write handoff artifact", "err", completeErr)
		}
		return err
	}
	defer b.Close()

	err = b.Navigate(loginUrl)
	if err != nil {
		slog.ErrorContext(ctx, "login page navigation failed", "session_id", id, "err", err)
		completeErr := h.Complete(id, handoff.Result{
			Status:  handoff.StatusError,
			Message: "navigation failed",
		})
		if completeErr != nil {
			slog.ErrorContext(ctx, "failed to write handoff artifact", "err", completeErr)
		}
		return err
	}

	slog.InfoContext(ctx, "waiting for login", "session_id", id, "timeout", config.Timeout)

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(config.Timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ticker.C:
			token, found, err := b.Cookie(SessionCookie)
			if err != nil {
				// a transient CDP hiccup, the next tick retries
				slog.WarnContext(ctx, "failed to read cookie jar", "err", err)
				continue
			}
			if !found {
				continue
			}
			slog.InfoContext(ctx, "session cookie observed", "session_id", id)
			return h.Complete(id, handoff.Result{
				Status: handoff.StatusSuccess,
				Token:  token,
			})
		case <-deadline.C:
			slog.WarnContext(ctx, "acquisition timed out", "session_id", id)
			return h.Complete(id, handoff.Result{
				Status: handoff.StatusTimeout,
			})
		case <-ctx.Done():
			return h.Complete(id, handoff.Result{
				Status:  handoff.StatusError,
				Message: "worker interrupted",
			})
		}
	}
}
