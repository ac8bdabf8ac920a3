package main

import (
	"context"
	"os"

	"github.com/aretw0/warden/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print session changes made by any process sharing the session",
	Long: `Follows the shared session slot and prints every login, logout and expiry,
including those made by other warden processes. With --listen it also serves
/metrics, /healthz and /session.`,
	Run: func(cmd *cobra.Command, args []string) {
		listen, _ := cmd.Flags().GetString("listen")
		checkEvery, _ := cmd.Flags().GetDuration("check-every")

		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if listen == "" {
				listen = app.Config.MetricsAddr
			}
			return cli.RunWatch(ctx, app, cli.WatchOptions{
				Listen:     listen,
				CheckEvery: checkEvery,
				Out:        os.Stdout,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("listen", "", "Serve status and metrics on this address (e.g. :9090)")
	watchCmd.Flags().Duration("check-every", 0, "Probe the API at this interval (0 disables)")
}
