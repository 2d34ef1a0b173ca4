package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/image/webp"

	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
	"github.com/kozaktomas/facepoke/internal/preset"
	"github.com/kozaktomas/facepoke/internal/renderer"
)

var pokeCmd = &cobra.Command{
	Use:   "poke [image]",
	Short: "Apply one edit or a preset to a portrait and save the rendered frame",
	Long: `Upload a portrait to the engine, apply a single expression edit or a
whole emotion preset, and save the rendered frame.

Examples:
  # Drag the lips up a bit
  facepoke poke portrait.jpg --group lips --y -0.3

  # Set engine controls directly
  facepoke poke portrait.jpg --group background --param rotate_yaw=12

  # Apply an emotion preset and save as PNG
  facepoke poke portrait.jpg --preset happy --png --output happy.png`,
	Args: cobra.ExactArgs(1),
	RunE: runPoke,
}

func init() {
	rootCmd.AddCommand(pokeCmd)

	pokeCmd.Flags().String("group", "", "Landmark group to edit")
	pokeCmd.Flags().Float64("x", 0, "Drag vector x component")
	pokeCmd.Flags().Float64("y", 0, "Drag vector y component")
	pokeCmd.Flags().Float64("z", 0, "Drag vector z component")
	pokeCmd.Flags().StringSlice("param", nil, "Engine control as name=value (repeatable)")
	pokeCmd.Flags().String("preset", "", "Emotion preset to apply instead of a single edit")
	pokeCmd.Flags().String("output", "", "Output file (default poke.webp or poke.png)")
	pokeCmd.Flags().Bool("png", false, "Decode the frame and save it as PNG")
}

// parseParamFlags parses repeated name=value pairs into engine controls.
func parseParamFlags(pairs []string) (expression.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(expression.Params, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, expected name=value", pair)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --param %q: %w", pair, err)
		}
		params[landmark.Param(name)] = value
	}
	return params, nil
}

// saveFrame writes the WebP frame, optionally transcoded to PNG.
func saveFrame(frame []byte, output string, asPNG bool) error {
	if output == "" {
		output = "poke.webp"
		if asPNG {
			output = "poke.png"
		}
	}

	if asPNG {
		img, err := webp.Decode(bytes.NewReader(frame))
		if err != nil {
			return fmt.Errorf("failed to decode frame: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
		frame = buf.Bytes()
	}

	if err := os.WriteFile(output, frame, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Printf("Saved %s (%d bytes)\n", output, len(frame))
	return nil
}

// applyPreset dispatches the preset's edits in declaration order and
// returns the last rendered frame.
func applyPreset(ctx context.Context, client *renderer.Client, photoUID, name string) ([]byte, error) {
	p, ok := preset.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", name)
	}

	var frame []byte
	for _, e := range p.Edits {
		edit, err := expression.Normalize(e.Group, e.Vector, e.Params, expression.ModePrimary)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		frame, err = client.Transform(ctx, photoUID, renderer.TransformRequest{
			Group:    edit.Group,
			Vector:   edit.Vector,
			Distance: edit.Distance,
			Params:   edit.Params,
		})
		if err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func runPoke(cmd *cobra.Command, args []string) error {
	group := mustGetString(cmd, "group")
	presetName := mustGetString(cmd, "preset")

	if group == "" && presetName == "" {
		return errors.New("either --group or --preset is required")
	}
	if group != "" && presetName != "" {
		return errors.New("cannot specify both --group and --preset")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read portrait: %w", err)
	}

	cfg := config.Load()
	client, err := newEngineClient(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	info, err := client.UploadPhoto(ctx, filepath.Base(args[0]), data)
	if err != nil {
		return err
	}
	defer client.Forget(ctx, info.UID)

	var frame []byte
	if presetName != "" {
		frame, err = applyPreset(ctx, client, info.UID, presetName)
	} else {
		var params expression.Params
		params, err = parseParamFlags(mustGetStringSlice(cmd, "param"))
		if err != nil {
			return err
		}

		vector := expression.Vector{
			X: mustGetFloat64(cmd, "x"),
			Y: mustGetFloat64(cmd, "y"),
			Z: mustGetFloat64(cmd, "z"),
		}
		if params == nil {
			params = expression.DeriveParams(landmark.Group(group), vector)
		}

		var edit expression.Edit
		edit, err = expression.Normalize(landmark.Group(group), vector, params, expression.ModePrimary)
		if err != nil {
			return err
		}
		frame, err = client.Transform(ctx, info.UID, renderer.TransformRequest{
			Group:    edit.Group,
			Vector:   edit.Vector,
			Distance: edit.Distance,
			Params:   edit.Params,
		})
	}
	if err != nil {
		return err
	}

	return saveFrame(frame, mustGetString(cmd, "output"), mustGetBool(cmd, "png"))
}
