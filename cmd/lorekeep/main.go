package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/am"
	"github.com/lorekeep/lorekeep/cmd/lorekeep/commands"
	"github.com/lorekeep/lorekeep/logger"
)

var rootCmd = &cobra.Command{
	Use:   "lorekeep",
	Short: "lorekeep - Worldbuilding storage with per-world isolation",
	Long: `lorekeep - Local worldbuilding storage.

Each world lives in its own store under the workspace directory. Stores are
healed to the current schema on first open, so worlds created by older
versions keep working without a migration step.

Available commands:
  worlds - List known worlds
  heal   - Heal one or all world stores
  folder - Manage a world's folder tree
  entity - Manage entities and their attributes
  graph  - Manage the relation overlay
  am     - Manage configuration ("I am")

Examples:
  lorekeep worlds                       # List known worlds
  lorekeep heal --world mundo1          # Heal one world's store
  lorekeep folder ls --world mundo1     # List root folders
  lorekeep entity show aria-1 --world mundo1
  lorekeep am show                      # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := am.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logger.Initialize(cfg.Logging.JSON); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.WorldsCmd)
	rootCmd.AddCommand(commands.HealCmd)
	rootCmd.AddCommand(commands.FolderCmd)
	rootCmd.AddCommand(commands.EntityCmd)
	rootCmd.AddCommand(commands.GraphCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
