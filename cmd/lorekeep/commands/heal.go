package commands

import (
	"context"
	"database/sql"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/sym"
)

// HealCmd runs the schema healer over one or all worlds.
var HealCmd = &cobra.Command{
	Use:   "heal",
	Short: sym.Heal + " Heal world stores",
	Long: sym.Heal + ` heal — Heal world stores

Brings a world's store to the current schema shape: missing tables and
columns are added, legacy rows get slugs backfilled. Healing is additive and
idempotent; existing data is never altered or dropped.

Healing also runs automatically on a world's first open, so this command is
only needed to upgrade stores ahead of use or to verify a workspace.

Examples:
  lorekeep heal                  # Heal every known world
  lorekeep heal --world mundo1   # Heal one world`,
	RunE: runHeal,
}

var healWorldFlag string

func init() {
	HealCmd.Flags().StringVar(&healWorldFlag, "world", "", "Heal only this world")
}

func runHeal(cmd *cobra.Command, args []string) error {
	if healWorldFlag != "" {
		// Opening the handle heals as a side effect
		err := withWorldStore(healWorldFlag, func(ctx context.Context, store *sql.DB) error {
			return nil
		})
		if err != nil {
			return err
		}
		pterm.Success.Printfln("World %q healed", healWorldFlag)
		return nil
	}

	r, err := newRouter()
	if err != nil {
		return err
	}
	defer r.Close()

	worlds, err := r.Known()
	if err != nil {
		return err
	}
	if len(worlds) == 0 {
		pterm.Info.Println("No worlds to heal.")
		return nil
	}

	if err := r.HealAll(context.Background()); err != nil {
		return err
	}
	pterm.Success.Printfln("%d world(s) healed", len(worlds))
	return nil
}
