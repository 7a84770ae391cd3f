package main

import (
	"context"
	"fmt"

	"mediabox/internal/app"
	"mediabox/internal/mb"

	"github.com/spf13/cobra"
)

var signupCmd = &cobra.Command{
	Use:   "signup EMAIL",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "signup", func(ctx context.Context, a *app.MBApp) error {
			password, err := promptNewSecret("Password")
			if err != nil {
				return err
			}
			user, err := a.Auth().SignUp(ctx, args[0], password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed up as %s\n", user.Email)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Sign in and load favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "login", func(ctx context.Context, a *app.MBApp) error {
			password, err := promptSecret("Password")
			if err != nil {
				return err
			}
			user, err := a.Auth().SignIn(ctx, args[0], password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Email)

			entries, err := a.Service().LoadFavorites(ctx)
			if err != nil {
				// Signed in either way; the cache keeps what it had.
				fmt.Printf("Could not load favorites: %v\n", err)
				return nil
			}
			fmt.Printf("%d favorite(s)\n", len(entries))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "logout", func(ctx context.Context, a *app.MBApp) error {
			if err := a.Auth().SignOut(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and open folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "whoami", func(ctx context.Context, a *app.MBApp) error {
			user, ok := a.Service().State().CurrentUser()
			if !ok {
				fmt.Println("Not signed in")
				return nil
			}
			fmt.Printf("User:   %s\n", user.Email)

			folder, err := a.Service().CurrentFolder(ctx)
			if err != nil {
				return err
			}
			if folder == nil {
				fmt.Println("Folder: (root)")
			} else {
				fmt.Printf("Folder: %s (%s)\n", folder.Name, folder.ID)
			}
			fmt.Printf("Theme:  %s\n", a.Service().State().Theme())
			return nil
		})
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "passwd", func(ctx context.Context, a *app.MBApp) error {
			password, err := promptSecret("New password")
			if err != nil {
				return err
			}
			confirm, err := promptSecret("Confirm new password")
			if err != nil {
				return err
			}
			if err := a.Auth().ChangePassword(ctx, password, confirm); err != nil {
				return err
			}
			fmt.Println("Password changed")
			return nil
		})
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|auto]",
	Short: "Show or set the color theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "theme", func(ctx context.Context, a *app.MBApp) error {
			state := a.Service().State()
			if len(args) == 0 {
				fmt.Println(state.Theme())
				return nil
			}
			t, err := mb.ParseTheme(args[0])
			if err != nil {
				return err
			}
			stored, err := state.SetTheme(t)
			if err != nil {
				return err
			}
			fmt.Printf("Theme set to %s\n", stored)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(themeCmd)
}
