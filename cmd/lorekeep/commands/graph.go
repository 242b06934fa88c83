package commands

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/graph"
	"github.com/lorekeep/lorekeep/logger"
	"github.com/lorekeep/lorekeep/sym"
)

// GraphCmd manages the relation overlay.
var GraphCmd = &cobra.Command{
	Use:   "graph",
	Short: sym.Graph + " Manage the relation overlay",
	Long: sym.Graph + ` graph — Manage the relation overlay

Objects join the graph by activating a node; relations connect activated
nodes. Auto-link connects every pair of nodes sharing a characteristic.

Examples:
  lorekeep graph activate aria-1 entity --characteristic elfo --world mundo1
  lorekeep graph link 1 2 mentor-of --world mundo1
  lorekeep graph ls 1 --world mundo1
  lorekeep graph autolink elfo same-race --world mundo1`,
}

var graphActivateCmd = &cobra.Command{
	Use:   "activate <object-id> <kind>",
	Short: "Activate an object as a graph node",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphActivate,
}

var graphLinkCmd = &cobra.Command{
	Use:   "link <from-node> <to-node> <type>",
	Short: "Create a relation between two nodes",
	Args:  cobra.ExactArgs(3),
	RunE:  runGraphLink,
}

var graphLsCmd = &cobra.Command{
	Use:   "ls <node-id>",
	Short: "List relations touching a node",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphLs,
}

var graphAutolinkCmd = &cobra.Command{
	Use:   "autolink <characteristic> <type>",
	Short: "Link every pair of nodes sharing a characteristic",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraphAutolink,
}

var (
	graphWorldFlag          string
	graphCharacteristicFlag string
	graphDescriptionFlag    string
)

func init() {
	GraphCmd.PersistentFlags().StringVar(&graphWorldFlag, "world", "", "World to operate on (required)")
	GraphCmd.MarkPersistentFlagRequired("world")

	graphActivateCmd.Flags().StringVar(&graphCharacteristicFlag, "characteristic", "", "Characteristic used for auto-linking")
	graphLinkCmd.Flags().StringVar(&graphDescriptionFlag, "description", "", "Free-text description of the relation")

	GraphCmd.AddCommand(graphActivateCmd)
	GraphCmd.AddCommand(graphLinkCmd)
	GraphCmd.AddCommand(graphLsCmd)
	GraphCmd.AddCommand(graphAutolinkCmd)
}

func runGraphActivate(cmd *cobra.Command, args []string) error {
	return withWorldStore(graphWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := graph.NewStore(store, logger.Logger)
		n, err := s.Activate(args[0], args[1], graphCharacteristicFlag)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Node %d active for %s/%s", n.ID, n.ObjectKind, n.ObjectID)
		return nil
	})
}

func runGraphLink(cmd *cobra.Command, args []string) error {
	from, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}
	to, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return err
	}
	return withWorldStore(graphWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := graph.NewStore(store, logger.Logger)
		rel, err := s.CreateRelation(from, to, args[2], graphDescriptionFlag, nil)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Relation %s created (%d %s %d)", rel.ID, rel.FromNodeID, rel.Type, rel.ToNodeID)
		return nil
	})
}

func runGraphLs(cmd *cobra.Command, args []string) error {
	nodeID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}
	return withWorldStore(graphWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := graph.NewStore(store, logger.Logger)
		rels, err := s.RelationsFor(nodeID)
		if err != nil {
			return err
		}
		if len(rels) == 0 {
			pterm.Info.Println("No relations.")
			return nil
		}

		rows := pterm.TableData{{"ID", "From", "To", "Type", "Description"}}
		for _, r := range rels {
			rows = append(rows, []string{
				r.ID,
				strconv.FormatInt(r.FromNodeID, 10),
				strconv.FormatInt(r.ToNodeID, 10),
				r.Type,
				r.Description,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	})
}

func runGraphAutolink(cmd *cobra.Command, args []string) error {
	return withWorldStore(graphWorldFlag, func(ctx context.Context, store *sql.DB) error {
		s := graph.NewStore(store, logger.Logger)
		created, err := s.AutoLinkByCharacteristic(args[0], args[1])
		if err != nil {
			return err
		}
		pterm.Success.Printfln("%d relation(s) created", created)
		return nil
	})
}
