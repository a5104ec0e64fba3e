package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harborline/armada/internal/fleet"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "manage fleet nodes",
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeShowCmd)
	nodeCmd.AddCommand(newNodeAddCmd())
	nodeCmd.AddCommand(newNodeUpdateCmd())
	nodeCmd.AddCommand(nodeRemoveCmd)
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all nodes, each refreshed by a live probe",
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []fleet.NodeRecord
		if err := newClient().do("GET", "/api/nodes", nil, &records); err != nil {
			return err
		}
		printNodeTable(records)
		return nil
	},
}

var nodeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "show one node's last-known record without probing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec fleet.NodeRecord
		if err := newClient().do("GET", "/api/nodes/"+url.PathEscape(args[0]), nil, &rec); err != nil {
			return err
		}
		printNodeDetail(rec)
		return nil
	},
}

// nodeParamFlags binds the shared create/update flags onto a params struct.
func nodeParamFlags(cmd *cobra.Command, p *fleet.NodeParams) {
	cmd.Flags().StringVar(&p.Name, "name", "", "display name")
	cmd.Flags().StringVar(&p.Tags, "tags", "", "free-form tags")
	cmd.Flags().StringVar(&p.RAM, "ram", "", "memory description")
	cmd.Flags().StringVar(&p.Disk, "disk", "", "disk description")
	cmd.Flags().StringVar(&p.Processor, "processor", "", "processor description")
	cmd.Flags().StringVar(&p.Address, "address", "", "daemon address (required)")
	cmd.Flags().StringVar(&p.Port, "port", "", "daemon port (required)")
	cmd.Flags().StringVar(&p.APIKey, "key", "", "daemon api key (required)")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("port")
	_ = cmd.MarkFlagRequired("key")
}

func newNodeAddCmd() *cobra.Command {
	var params fleet.NodeParams
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "register a new node and probe it",
		Example: "armada node add --address 10.0.0.5 --port 8081 --key s3cret --name rack1",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec fleet.NodeRecord
			if err := newClient().do("POST", "/api/nodes", params, &rec); err != nil {
				return err
			}
			printNodeDetail(rec)
			return nil
		},
	}
	nodeParamFlags(cmd, &params)
	return cmd
}

func newNodeUpdateCmd() *cobra.Command {
	var params fleet.NodeParams
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "replace a node's record and re-probe it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec fleet.NodeRecord
			if err := newClient().do("PUT", "/api/nodes/"+url.PathEscape(args[0]), params, &rec); err != nil {
				return err
			}
			printNodeDetail(rec)
			return nil
		},
	}
	nodeParamFlags(cmd, &params)
	return cmd
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "delete a node from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().do("DELETE", "/api/nodes/"+url.PathEscape(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func printNodeTable(records []fleet.NodeRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tSTATUS\tRELEASE")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s:%s\t%s\t%s\n",
			rec.ID, rec.Name, rec.Address, rec.Port, rec.Status, rec.VersionRelease)
	}
	w.Flush()
}

func printNodeDetail(rec fleet.NodeRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id:\t%s\n", rec.ID)
	fmt.Fprintf(w, "name:\t%s\n", rec.Name)
	fmt.Fprintf(w, "tags:\t%s\n", rec.Tags)
	fmt.Fprintf(w, "ram:\t%s\n", rec.RAM)
	fmt.Fprintf(w, "disk:\t%s\n", rec.Disk)
	fmt.Fprintf(w, "processor:\t%s\n", rec.Processor)
	fmt.Fprintf(w, "address:\t%s:%s\n", rec.Address, rec.Port)
	fmt.Fprintf(w, "status:\t%s\n", rec.Status)
	fmt.Fprintf(w, "version:\t%d / %s\n", rec.VersionFamily, rec.VersionRelease)
	fmt.Fprintf(w, "remote:\t%s\n", rec.Remote)
	fmt.Fprintf(w, "docker:\t%v\n", rec.Docker)
	w.Flush()
}
