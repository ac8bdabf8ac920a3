package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/warden/internal/cli"
	"github.com/aretw0/warden/internal/config"
	"github.com/aretw0/warden/internal/presentation/tui"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden is a session-aware client for the user-management API",
	Long: `Warden logs in against the user-management API, keeps the session alive across
invocations and shells, and exposes the admin and profile endpoints from the terminal.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./warden.yaml or the user config dir)")
	rootCmd.PersistentFlags().String("api", "", "API base URL (overrides the config file)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if api, _ := cmd.Flags().GetString("api"); api != "" {
		cfg.APIBase = api
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
	}
	return cfg
}

// withApp starts the session, runs fn and persists cookies before exiting.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error) {
	app, err := cli.NewApp(loadConfig(cmd), os.Stderr)
	if err != nil {
		fmt.Printf("Error initializing warden: %v\n", err)
		os.Exit(1)
	}

	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	runErr := app.Start(sigCtx)
	if runErr == nil {
		runErr = fn(sigCtx, app)
	}
	if err := app.Close(); err != nil {
		app.Logger.Warn("Failed to close session", "err", err)
	}

	if runErr != nil {
		if errors.Is(runErr, domain.ErrSessionExpired) {
			fmt.Println("Session expired, please run `warden login` again.")
		} else {
			fmt.Printf("Error: %v\n", runErr)
		}
		os.Exit(1)
	}
}

// render prints markdown styled when possible.
func render(markdown string) {
	out, err := tui.NewRenderer()(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Print(out)
}

// requireLogin fails early when no identity is held.
func requireLogin(app *cli.App) error {
	if !app.Client.Session.IsAuthenticated() {
		return errors.New("not logged in, run `warden login` first")
	}
	return nil
}
