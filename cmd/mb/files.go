package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mediabox/internal/app"
	"mediabox/internal/mb"

	"github.com/spf13/cobra"
)

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage notes and media files",
}

var fileAddNoteCmd = &cobra.Command{
	Use:   "add-note NAME [TEXT]",
	Short: "Add a text note to the open folder (reads stdin without TEXT)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		if len(args) == 2 {
			content = args[1]
		} else {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading note: %w", err)
			}
			content = string(b)
		}

		return withApp(cmd, "file add-note", func(ctx context.Context, a *app.MBApp) error {
			file, err := a.Service().AddNote(ctx, args[0], content)
			if err != nil {
				return err
			}
			fmt.Printf("Added note %s (%s)\n", file.Name, file.ID)
			return nil
		})
	},
}

var fileUploadCmd = &cobra.Command{
	Use:   "upload PATH",
	Short: "Upload a media file to the open folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		rawType, _ := cmd.Flags().GetString("type")

		var typ mb.MediaType
		if rawType != "" {
			var err error
			if typ, err = mb.ParseMediaType(rawType); err != nil {
				return err
			}
		}

		return withApp(cmd, "file upload", func(ctx context.Context, a *app.MBApp) error {
			file, err := a.Service().UploadFile(ctx, name, typ, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s (%s, %s, %s)\n", file.Name, file.ID, file.Type, formatSize(file.Size))
			return nil
		})
	},
}

var fileImportCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Upload every media file in a directory to the open folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		return withApp(cmd, "file import", func(ctx context.Context, a *app.MBApp) error {
			result, err := a.Service().ImportDirectory(ctx, args[0], recursive)
			if result != nil {
				for _, f := range result.Imported {
					fmt.Printf("  %-6s %s\n", f.Type, f.Name)
				}
				fmt.Printf("Imported %d file(s), ignored %d, skipped %d\n",
					len(result.Imported), result.Ignored, result.Skipped)
			}
			return err
		})
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files of the open folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		folderID, _ := cmd.Flags().GetString("folder")
		root, _ := cmd.Flags().GetBool("root")

		return withApp(cmd, "file list", func(ctx context.Context, a *app.MBApp) error {
			svc := a.Service()
			if folderID == "" && !root {
				folder, err := svc.CurrentFolder(ctx)
				if err != nil {
					return err
				}
				if folder != nil {
					folderID = folder.ID
				}
			}

			files, err := svc.ListFiles(ctx, folderID)
			if err != nil {
				return err
			}
			printFiles(svc, files)
			return nil
		})
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List your most recently added files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "recent", func(ctx context.Context, a *app.MBApp) error {
			files, err := a.Service().RecentFiles(ctx)
			if err != nil {
				return err
			}
			printFiles(a.Service(), files)
			return nil
		})
	},
}

func printFiles(svc *mb.MBService, files []*mb.File) {
	if len(files) == 0 {
		fmt.Println("No files found.")
		return
	}
	for _, f := range files {
		fmt.Printf("%s %s  %s  %-6s  %-24s  %s\n",
			svc.Favorites().Badge(f.ID),
			f.ID,
			f.CreatedAt.Local().Format("2006-01-02 15:04"),
			f.Type,
			f.Name,
			mb.Preview(f),
		)
	}
}

var fileDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "file delete", func(ctx context.Context, a *app.MBApp) error {
			if err := a.Service().DeleteFile(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("File deleted")
			return nil
		})
	},
}

var viewCmd = &cobra.Command{
	Use:   "view ID",
	Short: "Show a file in the viewer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "view", func(ctx context.Context, a *app.MBApp) error {
			view, err := a.Service().View(ctx, args[0])
			if err != nil {
				return err
			}

			badge := "☆"
			if view.Favorite {
				badge = "★"
			}
			fmt.Printf("%s %s  [%s, %s player]\n", badge, view.Title, view.Type, view.Player)
			if view.Player == mb.PlayerText {
				fmt.Printf("\n%s\n", view.Text)
			} else {
				fmt.Printf("Source: %s\n", view.Source)
			}
			return nil
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download ID",
	Short: "Save the content of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		return withApp(cmd, "download", func(ctx context.Context, a *app.MBApp) error {
			if output == "-" {
				_, err := download(ctx, a, args[0], os.Stdout)
				return err
			}

			if output == "" {
				view, err := a.Service().View(ctx, args[0])
				if err != nil {
					return err
				}
				output = filepath.Base(view.Title)
			}
			return downloadToFile(ctx, a, args[0], output)
		})
	},
}

// download writes the file to w, asking for the passphrase only when the
// object turns out to be encrypted.
func download(ctx context.Context, a *app.MBApp, id string, w io.Writer) (*mb.File, error) {
	file, err := a.Service().Download(ctx, id, w, nil)
	if !errors.Is(err, mb.ErrPassphraseRequired) {
		return file, err
	}

	passphrase, err := promptSecret("Passphrase")
	if err != nil {
		return nil, err
	}
	dec, err := a.Unlock(passphrase)
	if err != nil {
		return nil, err
	}
	return a.Service().Download(ctx, id, w, dec)
}

func downloadToFile(ctx context.Context, a *app.MBApp, id, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mb-download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	file, err := download(ctx, a, id, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	fmt.Printf("Saved %s to %s\n", file.Name, path)
	return nil
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Show how much storage your files use",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "storage", func(ctx context.Context, a *app.MBApp) error {
			used, err := a.Service().StorageUsage(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Storage used: %s\n", formatSize(used))
			return nil
		})
	},
}

func init() {
	fileCmd.AddCommand(fileAddNoteCmd)
	fileCmd.AddCommand(fileUploadCmd)
	fileUploadCmd.Flags().StringP("name", "n", "", "Display name (defaults to the file name)")
	fileUploadCmd.Flags().StringP("type", "t", "", "Media type: image, video, pdf or audio (inferred when empty)")
	fileCmd.AddCommand(fileImportCmd)
	fileImportCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	fileCmd.AddCommand(fileListCmd)
	fileListCmd.Flags().StringP("folder", "f", "", "Folder ID (defaults to the open folder)")
	fileListCmd.Flags().Bool("root", false, "List files outside any folder")
	fileCmd.AddCommand(fileDeleteCmd)

	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringP("output", "o", "", "Destination path, or - for stdout (defaults to the file name)")
	rootCmd.AddCommand(storageCmd)
}
