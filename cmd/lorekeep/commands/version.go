package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/version"
)

// VersionCmd prints build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	RunE:  runVersion,
}

var versionJSONFlag bool

func init() {
	VersionCmd.Flags().BoolVar(&versionJSONFlag, "json", false, "Output as JSON")
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	if versionJSONFlag {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(info.String())
	fmt.Printf("  go:       %s\n", info.GoVersion)
	fmt.Printf("  platform: %s\n", info.Platform)
	return nil
}
