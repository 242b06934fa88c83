package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/sym"
)

// WorldsCmd lists known worlds.
var WorldsCmd = &cobra.Command{
	Use:   "worlds",
	Short: sym.World + " List known worlds",
	Long: sym.World + ` worlds — List known worlds

Each world is one store file in the workspace directory. A world exists once
something has been written to it; binding a new world name creates it on
first use.`,
	RunE: runWorlds,
}

func runWorlds(cmd *cobra.Command, args []string) error {
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
		pterm.Info.Println("No worlds yet. Create one with --world on any command.")
		return nil
	}

	rows := pterm.TableData{{"World"}}
	for _, w := range worlds {
		rows = append(rows, []string{sym.World + " " + w})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
