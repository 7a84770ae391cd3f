package main

import (
	"context"
	"errors"
	"fmt"

	"mediabox/internal/app"
	"mediabox/internal/mb"

	"github.com/spf13/cobra"
)

// fav command
var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Manage favorites",
}

var favToggleCmd = &cobra.Command{
	Use:   "toggle FILE_ID",
	Short: "Favorite or unfavorite a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "fav toggle", func(ctx context.Context, a *app.MBApp) error {
			favorited, err := a.Service().ToggleFavorite(ctx, args[0])
			if err != nil {
				return err
			}
			if favorited {
				fmt.Printf("★ %s added to favorites\n", args[0])
			} else {
				fmt.Printf("☆ %s removed from favorites\n", args[0])
			}
			return nil
		})
	},
}

var favListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, reloading them from the record store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cached, _ := cmd.Flags().GetBool("cached")

		return withApp(cmd, "fav list", func(ctx context.Context, a *app.MBApp) error {
			svc := a.Service()
			entries := svc.FavoriteEntries()
			if !cached {
				loaded, err := svc.LoadFavorites(ctx)
				var rerr *mb.RemoteReadError
				switch {
				case errors.As(err, &rerr):
					fmt.Printf("Could not load favorites: %v\n", rerr.Err)
				case err != nil:
					return err
				default:
					entries = loaded
				}
			}

			if len(entries) == 0 {
				fmt.Println("No favorites.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("★ %s  %s  %-6s  %-24s  %s\n",
					e.FileID,
					e.FavoritedAt.Local().Format("2006-01-02 15:04"),
					e.Type,
					e.Name,
					entryPreview(e),
				)
			}
			return nil
		})
	},
}

func entryPreview(e mb.FavoriteEntry) string {
	return mb.Preview(&mb.File{ID: e.FileID, Name: e.Name, Type: e.Type, Content: e.Content})
}

var favStatusCmd = &cobra.Command{
	Use:   "status FILE_ID",
	Short: "Show whether a file is a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "fav status", func(ctx context.Context, a *app.MBApp) error {
			fav, err := a.Service().FavoriteStatus(args[0])
			if err != nil {
				return err
			}
			if fav {
				fmt.Println("★ favorite")
			} else {
				fmt.Println("☆ not a favorite")
			}
			return nil
		})
	},
}

func init() {
	favCmd.AddCommand(favToggleCmd)
	favCmd.AddCommand(favListCmd)
	favListCmd.Flags().Bool("cached", false, "Show the local cache without contacting the record store")
	favCmd.AddCommand(favStatusCmd)

	rootCmd.AddCommand(favCmd)
}
