package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/warden/internal/cli"
	"github.com/aretw0/warden/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the logged-in user's profile",
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := requireLogin(app); err != nil {
				return err
			}
			p, err := app.Client.API.Profile(ctx)
			if err != nil {
				return err
			}
			render(tui.ProfileMarkdown(p))
			return nil
		})
	},
}

var avatarCmd = &cobra.Command{
	Use:   "avatar <image>",
	Short: "Upload a profile picture",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetInt("user-id")

		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var owner string
			if userID > 0 {
				owner = strconv.Itoa(userID)
			}
			url, err := app.Client.API.UploadProfilePicture(ctx, filepath.Base(args[0]), f, owner)
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		})
	},
}

var verifyOTPCmd = &cobra.Command{
	Use:   "verify-otp <email> <code>",
	Short: "Confirm an account with the one-time code it was mailed",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			msg, err := app.Client.API.VerifyOTP(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			cli.PrintSystemMessage(os.Stdout, "%s", msg)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(avatarCmd)
	rootCmd.AddCommand(verifyOTPCmd)

	avatarCmd.Flags().Int("user-id", 0, "Attach the picture to this account")
}
