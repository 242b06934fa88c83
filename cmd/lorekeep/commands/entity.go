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

// EntityCmd manages entities and their attribute values.
var EntityCmd = &cobra.Command{
	Use:   "entity",
	Short: sym.Entity + " Manage entities",
	Long: sym.Entity + ` entity — Manage entities and their attributes

Entities live in folders and carry one value per attribute template that was
effective for their folder when they were created.

Examples:
  lorekeep entity ls 3 --world mundo1
  lorekeep entity new Aria --folder 3 --world mundo1
  lorekeep entity show aria-1 --world mundo1
  lorekeep entity set aria-1 12 "arco largo" --world mundo1
  lorekeep entity rm 5 --world mundo1`,
}

var entityLsCmd = &cobra.Command{
	Use:   "ls <folder-id>",
	Short: "List entities in a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityLs,
}

var entityNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityNew,
}

var entityShowCmd = &cobra.Command{
	Use:   "show <id-or-slug>",
	Short: "Show an entity with its attribute values",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityShow,
}

var entitySetCmd = &cobra.Command{
	Use:   "set <id-or-slug> <value-id> <value>",
	Short: "Set one attribute value",
	Args:  cobra.ExactArgs(3),
	RunE:  runEntitySet,
}

var entityRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Soft-delete an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityRm,
}

var entityRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a soft-deleted entity with its values",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityRestore,
}

var (
	entityWorldFlag  string
	entityFolderFlag int64
	entityKindFlag   string
)

func init() {
	EntityCmd.PersistentFlags().StringVar(&entityWorldFlag, "world", "", "World to operate on (required)")
	EntityCmd.MarkPersistentFlagRequired("world")

	entityNewCmd.Flags().Int64Var(&entityFolderFlag, "folder", 0, "Folder id the entity lives in (required)")
	entityNewCmd.MarkFlagRequired("folder")
	entityNewCmd.Flags().StringVar(&entityKindFlag, "special-kind", "", "Special kind tag (map, timeline, ...)")

	EntityCmd.AddCommand(entityLsCmd)
	EntityCmd.AddCommand(entityNewCmd)
	EntityCmd.AddCommand(entityShowCmd)
	EntityCmd.AddCommand(entitySetCmd)
	EntityCmd.AddCommand(entityRmCmd)
	EntityCmd.AddCommand(entityRestoreCmd)
}

func runEntityLs(cmd *cobra.Command, args []string) error {
	folderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid folder id %q", args[0])
	}
	return withWorldStore(entityWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		entities, err := s.ListEntitiesInFolder(folderID)
		if err != nil {
			return err
		}
		if len(entities) == 0 {
			pterm.Info.Println("No entities.")
			return nil
		}

		rows := pterm.TableData{{"ID", "Name", "Slug", "Kind"}}
		for _, e := range entities {
			rows = append(rows, []string{
				strconv.FormatInt(e.ID, 10), e.Name, e.Slug, e.SpecialKind,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	})
}

func runEntityNew(cmd *cobra.Command, args []string) error {
	return withWorldStore(entityWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		e, err := s.CreateEntity(args[0], entityFolderFlag, entityKindFlag)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Entity %q created (id %d, slug %s, %d attribute(s))",
			e.Name, e.ID, e.Slug, len(e.Values))
		return nil
	})
}

func runEntityShow(cmd *cobra.Command, args []string) error {
	return withWorldStore(entityWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		e, err := s.ResolveEntity(args[0])
		if err != nil {
			return err
		}

		pterm.DefaultSection.Printfln("%s %s (id %d, slug %s)", sym.Entity, e.Name, e.ID, e.Slug)
		if len(e.Values) == 0 {
			pterm.Info.Println("No attributes.")
			return nil
		}

		rows := pterm.TableData{{"Value ID", "Attribute", "Type", "Value"}}
		for _, v := range e.Values {
			rows = append(rows, []string{
				strconv.FormatInt(v.ID, 10), v.TemplateName, string(v.Type), v.Value,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	})
}

func runEntitySet(cmd *cobra.Command, args []string) error {
	valueID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value id %q", args[1])
	}
	return withWorldStore(entityWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		e, err := s.ResolveEntity(args[0])
		if err != nil {
			return err
		}
		if err := s.UpdateEntityValues(e.ID, []codex.ValueUpdate{
			{ValueID: valueID, NewValue: args[2]},
		}); err != nil {
			return err
		}
		pterm.Success.Printfln("Value %d updated on %q", valueID, e.Name)
		return nil
	})
}

func runEntityRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entity id %q", args[0])
	}
	return withWorldStore(entityWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		if err := s.DeleteEntity(id); err != nil {
			return err
		}
		pterm.Success.Printfln("Entity %d deleted (restore with: lorekeep entity restore %d)", id, id)
		return nil
	})
}

func runEntityRestore(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entity id %q", args[0])
	}
	return withWorldStore(entityWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := codex.NewStore(store, logger.Logger)
		if err := s.RestoreEntity(id); err != nil {
			return err
		}
		pterm.Success.Printfln("Entity %d restored", id)
		return nil
	})
}
