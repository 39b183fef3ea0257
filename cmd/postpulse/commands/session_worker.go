package commands

import (
	"postpulse/internal/session"

	"github.com/spf13/cobra"
)

var workerSessionId string

func init() {
	sessionWorkerCmd.Flags().StringVar(&workerSessionId, "id", "", "session id to report the result under")
	sessionWorkerCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(sessionWorkerCmd)
}

// the detached process behind `serve`'s session/start endpoint; not
// meant to be invoked by hand
var sessionWorkerCmd = &cobra.Command{
	Use:    "session-worker",
	Hidden: true,
	Short:  "Waits for a browser login and writes the handoff artifact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		return session.RunWorker(
			cmd.Context(),
			workerSessionId,
			handoffBroker(config),
			config.sessionConfig(),
		)
	},
}
