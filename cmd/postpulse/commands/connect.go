package commands

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var connectServerUrl string

func init() {
	connectCmd.Flags().StringVar(&connectServerUrl, "server", "http://localhost:8400", "control server base url")
	refreshCmd.Flags().StringVar(&connectServerUrl, "server", "http://localhost:8400", "control server base url")
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(refreshCmd)
}

type startResponse struct {
	SessionId string `json:"sessionId"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connects a LinkedIn account by logging in through a browser window.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := resty.New().
			SetBaseURL(connectServerUrl).
			SetTimeout(time.Second * 30)

		var start startResponse
		res, err := client.R().
			SetContext(cmd.Context()).
			SetResult(&start).
			Post("/api/session/start")
		if err != nil {
			return err
		}
		if res.IsError() || start.SessionId == "" {
			return fmt.Errorf("could not start session acquisition: %s", res.Status())
		}

		fmt.Println("a browser window is opening, log in to your account there")
		fmt.Println("waiting for the session...")

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				var status statusResponse
				_, err := client.R().
					SetContext(cmd.Context()).
					SetResult(&status).
					Get("/api/session/" + start.SessionId)
				if err != nil {
					return err
				}
				switch status.Status {
				case "waiting":
					continue
				case "connected":
					fmt.Println("account connected")
					return nil
				case "timeout":
					return fmt.Errorf("timed out waiting for a login, try again")
				default:
					return fmt.Errorf("session acquisition failed: %s", status.Message)
				}
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		}
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Asks the control server to run a harvest now.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := resty.New().
			SetBaseURL(connectServerUrl).
			// harvests scroll for minutes, give them room
			SetTimeout(time.Minute * 30)

		var status statusResponse
		res, err := client.R().
			SetContext(cmd.Context()).
			SetResult(&status).
			Post("/api/refresh")
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("refresh failed: %s", res.Status())
		}
		fmt.Println("refresh finished")
		return nil
	},
}
