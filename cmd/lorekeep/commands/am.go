package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/am"
	"github.com/lorekeep/lorekeep/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage lorekeep configuration",
	Long: sym.AM + ` am — Manage lorekeep configuration ("I am")

Display and manage lorekeep configuration settings.

Configuration sources (in order of precedence):
1. Environment variables (LOREKEEP_* prefix)
2. Project config (./lorekeep.toml, searched upward)
3. User config (~/.lorekeep/lorekeep.toml)
4. System config (/etc/lorekeep/lorekeep.toml)
5. Default values

Examples:
  lorekeep am show                 # Show current configuration
  lorekeep am show --format json   # Show configuration as JSON
  lorekeep am get workspace.dir    # Get a specific value
  lorekeep am set logging.json true
  lorekeep am where                # Show the configuration cascade`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value by dot notation",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var amWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the user config file and reload on changes",
	Long: `Watch the user config file and reload the configuration cascade whenever
it changes on disk. Writes made through 'lorekeep am set' are recognized as
our own and do not trigger a reload. Runs until interrupted.`,
	RunE: runAmWatch,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amWatchCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# lorekeep configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json)", configFormat)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value := am.Get(args[0])
	if value == nil {
		return fmt.Errorf("unknown configuration key: %s", args[0])
	}
	fmt.Println(value)
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	if err := am.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	fmt.Printf("%s = %s (written to %s)\n", args[0], args[1], am.UserConfigPath())
	return nil
}

func runAmWatch(cmd *cobra.Command, args []string) error {
	path := am.UserConfigPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no user config to watch at %s (create one with 'lorekeep am set')", path)
	}

	cw, err := am.NewConfigWatcher(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer cw.Stop()
	am.SetGlobalWatcher(cw)

	cw.OnReload(func(cfg *am.Config) error {
		fmt.Printf("reloaded %s (workspace %s)\n", path, cfg.WorkspaceDir())
		return nil
	})
	cw.Start()

	fmt.Printf("watching %s (ctrl-c to stop)\n", path)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	paths := []string{
		filepath.Join("/etc/lorekeep", am.ConfigFileName),
		am.UserConfigPath(),
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, am.ConfigFileName))
	}

	fmt.Println("Configuration cascade (later overrides earlier):")
	for _, p := range paths {
		marker := "missing"
		if _, err := os.Stat(p); err == nil {
			marker = "found"
		}
		fmt.Printf("  %-7s %s\n", marker, p)
	}
	fmt.Println("  env     LOREKEEP_* variables override all files")
	return nil
}
