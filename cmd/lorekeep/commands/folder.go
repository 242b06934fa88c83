package commands

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/codex"
	"github.com/lorekeep/lorekeep/logger"
	"github.com/lorekeep/lorekeep/sym"
)

// FolderCmd manages a world's folder tree.
var FolderCmd = &cobra.Command{
	Use:   "folder",
	Short: sym.Folder + " Manage a world's folder tree",
	Long: sym.Folder + ` folder — Manage a world's folder tree

Folders organize a world's content and carry the attribute templates that
entities inside them inherit.

Examples:
  lorekeep folder ls --world mundo1
  lorekeep folder ls --world mundo1 --parent 3
  lorekeep folder new Personajes --world mundo1
  lorekeep folder new Heroes --world mundo1 --parent 3
  lorekeep folder rm 7 --world mundo1`,
}

var folderLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List folders",
	RunE:  runFolderLs,
}

var folderNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderNew,
}

var folderRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Soft-delete a folder and its contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderRm,
}

var folderRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a soft-deleted folder (not its contents)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderRestore,
}

var (
	folderWorldFlag  string
	folderParentFlag int64
	folderKindFlag   string
)

func init() {
	FolderCmd.PersistentFlags().StringVar(&folderWorldFlag, "world", "", "World to operate on (required)")
	FolderCmd.MarkPersistentFlagRequired("world")

	folderLsCmd.Flags().Int64Var(&folderParentFlag, "parent", 0, "List children of this folder instead of roots")
	folderNewCmd.Flags().Int64Var(&folderParentFlag, "parent", 0, "Parent folder id (omit for a root folder)")
	folderNewCmd.Flags().StringVar(&folderKindFlag, "kind", "", "Folder kind tag (characters, places, ...)")

	FolderCmd.AddCommand(folderLsCmd)
	FolderCmd.AddCommand(folderNewCmd)
	FolderCmd.AddCommand(folderRmCmd)
	FolderCmd.AddCommand(folderRestoreCmd)
}

func runFolderLs(cmd *cobra.Command, args []string) error {
	return withWorldStore(folderWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)

		var parent *int64
		if cmd.Flags().Changed("parent") {
			parent = &folderParentFlag
		}
		folders, err := s.ListFolders(parent)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			pterm.Info.Println("No folders.")
			return nil
		}

		rows := pterm.TableData{{"ID", "Name", "Slug", "Kind"}}
		for _, f := range folders {
			rows = append(rows, []string{
				strconv.FormatInt(f.ID, 10), f.Name, f.Slug, f.Kind,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	})
}

func runFolderNew(cmd *cobra.Command, args []string) error {
	return withWorldStore(folderWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)

		var parent *int64
		if cmd.Flags().Changed("parent") {
			parent = &folderParentFlag
		}
		f, err := s.CreateFolder(args[0], parent, folderKindFlag, nil)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Folder %q created (id %d, slug %s)", f.Name, f.ID, f.Slug)
		return nil
	})
}

func runFolderRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid folder id %q", args[0])
	}
	return withWorldStore(folderWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		if err := s.DeleteFolder(id); err != nil {
			return err
		}
		pterm.Success.Printfln("Folder %d deleted (restore with: lorekeep folder restore %d)", id, id)
		return nil
	})
}

func runFolderRestore(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid folder id %q", args[0])
	}
	return withWorldStore(folderWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		if err := s.RestoreFolder(id); err != nil {
			return err
		}
		pterm.Success.Printfln("Folder %d restored", id)
		return nil
	})
}
