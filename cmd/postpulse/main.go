package main

import (
	"context"
	"log/slog"
	"os"

	"postpulse/cmd/postpulse/commands"
	"postpulse/lib/osutil"
	"postpulse/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	// no telemetry.json5 anywhere up the tree is fine, spans go nowhere;
	// a present-but-broken one should be heard about
	err := telemetry.SetupFromEnv(context.Background(), "postpulse")
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("telemetry setup failed", "err", err)
	}
	commands.ExecuteContext(osutil.SignalContext())
}
