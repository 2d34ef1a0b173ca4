package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/preset"
)

var emotionCmd = &cobra.Command{
	Use:   "emotion",
	Short: "Name the catalog presets an expression resembles",
	Long: `Given a set of engine controls, find the emotion presets whose
accumulated expression is closest.

Examples:
  facepoke emotion --param aaa=12 --param eyebrow=8
  facepoke emotion --param rotate_yaw=-10 --limit 5`,
	RunE: runEmotion,
}

func init() {
	rootCmd.AddCommand(emotionCmd)

	emotionCmd.Flags().StringSlice("param", nil, "Engine control as name=value (repeatable)")
	emotionCmd.Flags().Int("limit", 3, "Number of matches to show")
}

func runEmotion(cmd *cobra.Command, args []string) error {
	params, err := parseParamFlags(mustGetStringSlice(cmd, "param"))
	if err != nil {
		return err
	}
	if len(params) == 0 {
		return errors.New("at least one --param is required")
	}

	matches, err := preset.NewEmotionIndex().Nearest(params, mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDISTANCE")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%.4f\n", m.Name, m.Distance)
	}
	return w.Flush()
}
