package main

import (
	"context"
	"fmt"

	"mediabox/internal/app"

	"github.com/spf13/cobra"
)

// folder command
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		return withApp(cmd, "folder create", func(ctx context.Context, a *app.MBApp) error {
			folder, err := a.Service().CreateFolder(ctx, args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("Created folder %s (%s)\n", folder.Name, folder.ID)
			return nil
		})
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")

		return withApp(cmd, "folder list", func(ctx context.Context, a *app.MBApp) error {
			folders, err := a.Service().ListFolders(ctx, search)
			if err != nil {
				return err
			}
			if len(folders) == 0 {
				fmt.Println("No folders found.")
				return nil
			}

			current := a.Service().State().CurrentFolder()
			for _, f := range folders {
				marker := " "
				if f.ID == current {
					marker = "*"
				}
				fmt.Printf("%s %s  %s  %-20s  %s\n",
					marker,
					f.ID,
					f.CreatedAt.Local().Format("2006-01-02 15:04"),
					f.Name,
					f.Description,
				)
			}
			return nil
		})
	},
}

var folderEditCmd = &cobra.Command{
	Use:   "edit ID NAME",
	Short: "Rename a folder and replace its description",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		return withApp(cmd, "folder edit", func(ctx context.Context, a *app.MBApp) error {
			folder, err := a.Service().UpdateFolder(ctx, args[0], args[1], description)
			if err != nil {
				return err
			}
			fmt.Printf("Updated folder %s\n", folder.Name)
			return nil
		})
	},
}

var folderDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a folder and all of its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "folder delete", func(ctx context.Context, a *app.MBApp) error {
			if err := a.Service().DeleteFolder(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Folder deleted")
			return nil
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open FOLDER_ID",
	Short: "Open a folder; new files go into it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "open", func(ctx context.Context, a *app.MBApp) error {
			folder, err := a.Service().OpenFolder(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Opened %s\n", folder.Name)
			return nil
		})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Return to the root",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "close", func(ctx context.Context, a *app.MBApp) error {
			return a.Service().CloseFolder()
		})
	},
}

func init() {
	folderCmd.AddCommand(folderCreateCmd)
	folderCreateCmd.Flags().StringP("description", "d", "", "Folder description")
	folderCmd.AddCommand(folderListCmd)
	folderListCmd.Flags().StringP("search", "s", "", "Only folders whose name contains this text")
	folderCmd.AddCommand(folderEditCmd)
	folderEditCmd.Flags().StringP("description", "d", "", "Folder description")
	folderCmd.AddCommand(folderDeleteCmd)

	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(closeCmd)
}
