package commands

import (
	"postpulse/internal/server"
	"postpulse/internal/session"
	"postpulse/lib/serviceutil"
	"postpulse/lib/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the control surface http server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		v, database, err := openVault(config)
		if err != nil {
			return err
		}
		defer database.Close()

		broker := session.NewBroker(handoffBroker(config), v, config.sessionConfig())
		svc := server.New(broker, artifactStore(config))

		telemetry.InstrumentPerfStats(cmd.Context())
		go serviceutil.StartHttpServer(config.Port, svc.Router())

		<-cmd.Context().Done()
		return nil
	},
}
