package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/aretw0/warden/internal/cli"
	"github.com/aretw0/warden/internal/presentation/tui"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts (administrators only)",
}

var usersLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all accounts",
	Run: func(cmd *cobra.Command, args []string) {
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			users, err := app.Client.API.ListUsers(ctx)
			if err != nil {
				return err
			}
			render(tui.UsersMarkdown(users))
			return nil
		})
	},
}

var usersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one account as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			user, err := app.Client.API.GetUser(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(user)
		})
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account; the API mails it a one-time code",
	Run: func(cmd *cobra.Command, args []string) {
		req := domain.CreateUserRequest{}
		req.Email, _ = cmd.Flags().GetString("email")
		req.FirstName, _ = cmd.Flags().GetString("first-name")
		req.LastName, _ = cmd.Flags().GetString("last-name")
		req.MobileNumber, _ = cmd.Flags().GetString("mobile")
		req.Role, _ = cmd.Flags().GetString("role")

		password, err := cli.PromptPassword(os.Stdin, os.Stderr, "Password for the new account: ")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		req.Password = password

		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			user, err := app.Client.API.CreateUser(ctx, req)
			if err != nil {
				return err
			}
			cli.PrintSystemMessage(os.Stdout, "Created user %d. Confirm it with `warden verify-otp %s <code>`.", user.ID, user.Email)
			return nil
		})
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change selected fields of an account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		req := domain.UpdateUserRequest{
			FirstName:    stringFlag(cmd, "first-name"),
			LastName:     stringFlag(cmd, "last-name"),
			MobileNumber: stringFlag(cmd, "mobile"),
			Role:         stringFlag(cmd, "role"),
			IsActive:     boolFlag(cmd, "active"),
			IsVerified:   boolFlag(cmd, "verified"),
		}

		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			user, err := app.Client.API.UpdateUser(ctx, id, req)
			if err != nil {
				return err
			}
			return printJSON(user)
		})
	},
}

var usersRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete one or more accounts",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids := make([]int, 0, len(args))
		for _, a := range args {
			ids = append(ids, parseID(a))
		}

		withApp(cmd, func(ctx context.Context, app *cli.App) error {
			failed := 0
			for _, id := range ids {
				if err := app.Client.API.DeleteUser(ctx, id); err != nil {
					fmt.Printf("Error removing user %d: %v\n", id, err)
					failed++
				} else {
					fmt.Printf("Removed user %d\n", id)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d deletions failed", failed, len(ids))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersLsCmd)
	usersCmd.AddCommand(usersGetCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(usersRmCmd)

	for _, c := range []*cobra.Command{usersCreateCmd, usersUpdateCmd} {
		c.Flags().String("first-name", "", "First name")
		c.Flags().String("last-name", "", "Last name")
		c.Flags().String("mobile", "", "Mobile number")
	}
	usersCreateCmd.Flags().String("email", "", "Account email")
	usersCreateCmd.Flags().String("role", "USER", "Account role")
	_ = usersCreateCmd.MarkFlagRequired("email")

	usersUpdateCmd.Flags().String("role", "", "Account role")
	usersUpdateCmd.Flags().Bool("active", true, "Whether the account may log in")
	usersUpdateCmd.Flags().Bool("verified", true, "Whether the account is verified")
}

func parseID(s string) int {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		fmt.Printf("Error: invalid user id %q\n", s)
		os.Exit(1)
	}
	return id
}

// stringFlag returns nil unless the flag was given, so updates stay partial.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
