package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "List the emotion presets, or show one preset's edit sequence",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)

	presetsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runPresets(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	if len(args) == 1 {
		p, ok := preset.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(p)
		}

		fmt.Printf("%s (%d edits)\n", p.Name, len(p.Edits))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tVECTOR\tPARAMS")
		for _, e := range p.Edits {
			fmt.Fprintf(w, "%s\t(%.2f, %.2f, %.2f)\t%v\n", e.Group, e.Vector.X, e.Vector.Y, e.Vector.Z, e.Params)
		}
		return w.Flush()
	}

	all := preset.All()
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(all)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEDITS")
	for _, p := range all {
		fmt.Fprintf(w, "%s\t%d\n", p.Name, len(p.Edits))
	}
	return w.Flush()
}
