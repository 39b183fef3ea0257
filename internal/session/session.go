// Package session acquires an authenticated platform session. Start
// spawns a detached worker process that owns a visible browser for up to
// five minutes; the short-lived control request returns immediately and
// the result comes back later through the handoff broker, consumed by
// Poll at most once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"postpulse/internal/handoff"
	"postpulse/internal/vault"
	"postpulse/lib/browser"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("postpulse.session")

var ErrSpawn = errors.New("could not spawn acquisition worker")

// SessionCookie is the credential the whole system revolves around.
const SessionCookie = "li_at"

// CookieDomain is where the session cookie gets injected for pipeline runs.
const CookieDomain = ".linkedin.com"

const loginUrl = "https://www.linkedin.com/login"

type Config struct {
	// acquisition gives up after this bound, default 5 minutes
	Timeout time.Duration
	// cookie jar inspection interval, default 2 seconds
	PollInterval time.Duration
	Browser      browser.Options
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	return c
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusConnected Status = "connected"
	StatusTimeout   Status = "timeout"
	StatusError     Status = "error"
)

type PollResult struct {
	Status  Status
	Message string
}

type Broker struct {
	handoff *handoff.Broker
	vault   *vault.Vault
	config  Config

	// Spawn launches the detached worker for a session id. Replaceable
	// in tests; the default execs this binary's session-worker command.
	Spawn func(id string) error
}

func NewBroker(h *handoff.Broker, v *vault.Vault, config Config) *Broker {
	b := &Broker{
		handoff: h,
		vault:   v,
		config:  config.withDefaults(),
	}
	b.Spawn = b.spawnWorker
	return b
}

// Start launches a detached acquisition worker and returns its session
// id. If the worker process cannot be spawned no session exists at all.
func (b *Broker) Start(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Start")
	defer span.End()

	id := uuid.NewString()
	err := b.Spawn(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "spawn worker")
		return "", fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	slog.InfoContext(ctx, "spawned acquisition worker", "session_id", id)
	return id, nil
}

// the worker must outlive this process: new session, released handle,
// no pipes back to us
func (b *Broker) spawnWorker(id string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "session-worker", "--id", id)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	err = cmd.Start()
	if err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Poll consumes the worker's terminal result if one has been written.
// On success the token is encrypted and persisted before the caller ever
// sees "connected". Terminal results are delivered exactly once; polling
// again afterwards reports waiting.
func (b *Broker) Poll(ctx context.Context, id string) (PollResult, error) {
	ctx, span := tracer.Start(ctx, "Poll")
	defer span.End()

	result, ok, err := b.handoff.Consume(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consume handoff")
		return PollResult{}, err
	}
	if !ok {
		return PollResult{Status: StatusWaiting}, nil
	}

	switch result.Status {
	case handoff.StatusSuccess:
		record, err := b.vault.Encrypt(result.Token)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encrypt token")
			return PollResult{}, err
		}
		accountId, err := b.vault.Save(ctx, "me", record)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save account")
			return PollResult{}, err
		}
		slog.InfoContext(ctx, "session connected", "session_id", id, "account_id", accountId)
		return PollResult{Status: StatusConnected}, nil
	case handoff.StatusTimeout:
		return PollResult{Status: StatusTimeout}, nil
	default:
		return PollResult{Status: StatusError, Message: result.Message}, nil
	}
}
