package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/landmark"
)

var landmarksCmd = &cobra.Command{
	Use:   "landmarks",
	Short: "List the landmark groups and the parameters they accept",
	RunE:  runLandmarks,
}

func init() {
	rootCmd.AddCommand(landmarksCmd)

	landmarksCmd.Flags().Bool("json", false, "Output as JSON")
}

func runLandmarks(cmd *cobra.Command, args []string) error {
	type entry struct {
		Group  landmark.Group   `json:"group"`
		Params []landmark.Param `json:"params"`
	}

	var entries []entry
	for _, g := range landmark.Groups() {
		params, err := landmark.ParamsAccepted(g)
		if err != nil {
			return err
		}
		entries = append(entries, entry{Group: g, Params: params})
	}

	if mustGetBool(cmd, "json") {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tPARAMS")
	for _, e := range entries {
		names := make([]string, len(e.Params))
		for i, p := range e.Params {
			names[i] = string(p)
		}
		fmt.Fprintf(w, "%s\t%s\n", e.Group, strings.Join(names, ", "))
	}
	return w.Flush()
}
