package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/warden"
	"github.com/aretw0/warden/internal/cli"
	"github.com/aretw0/warden/internal/presentation/tui"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as a user (or an administrator with --admin)",
	Long: `Logs in and stores the session for later commands.
The password is prompted for, or read from stdin when it is not a terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		admin, _ := cmd.Flags().GetBool("admin")
		quiet, _ := cmd.Flags().GetBool("quiet")

		kind := domain.UserTypeUser
		if admin {
			kind = domain.UserTypeAdmin
		}

		password, err := cli.PromptPassword(os.Stdin, os.Stderr, "Password: ")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if !quiet {
			tui.PrintBanner(os.Stdout, warden.Version)
		}

		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			id, err := app.Client.Login(ctx, email, password, kind)
			if err != nil {
				var authErr *domain.AuthenticationError
				if errors.As(err, &authErr) {
					return fmt.Errorf("login rejected: %s", authErr.Message)
				}
				return err
			}
			cli.PrintSystemMessage(os.Stdout, "Logged in as %s (%s).", id.Role, id.Type)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session, locally and on the server",
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			app.Client.Logout(ctx)
			if err := app.Jar.Clear(); err != nil {
				return fmt.Errorf("failed to clear cookies: %w", err)
			}
			cli.PrintSystemMessage(os.Stdout, "Logged out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the locally stored session (no network)",
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			render(tui.IdentityMarkdown(app.Client.Identity()))
			return nil
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the API whether the session is still valid",
	Long:  `Probes the API without rotating tokens. An invalid session is cleared locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := requireLogin(app); err != nil {
				return err
			}
			if !app.Client.Session.CheckSession(ctx) {
				return domain.ErrSessionExpired
			}
			cli.PrintSystemMessage(os.Stdout, "Session valid (%s).", app.Client.Session.Role())
			return nil
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rotate the access token now",
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := requireLogin(app); err != nil {
				return err
			}
			if _, err := app.Client.Session.Refresh(ctx); err != nil {
				return err
			}
			cli.PrintSystemMessage(os.Stdout, "Token refreshed.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(refreshCmd)

	loginCmd.Flags().StringP("email", "e", "", "Account email")
	loginCmd.Flags().Bool("admin", false, "Use the administrator login")
	loginCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	_ = loginCmd.MarkFlagRequired("email")
}
