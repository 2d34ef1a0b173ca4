package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/preset"
)

var renderCmd = &cobra.Command{
	Use:   "render [image]",
	Short: "Render every emotion preset for a portrait",
	Long: `Upload a portrait and render each catalog preset against it, saving
one frame per preset. The engine state is restored to neutral between
presets so every frame starts from the original portrait.

Examples:
  facepoke render portrait.jpg --out-dir frames/
  facepoke render portrait.jpg --out-dir frames/ --png`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("out-dir", ".", "Directory to save rendered frames into")
	renderCmd.Flags().Bool("png", false, "Decode frames and save them as PNG")
}

func runRender(cmd *cobra.Command, args []string) error {
	outDir := mustGetString(cmd, "out-dir")
	asPNG := mustGetBool(cmd, "png")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
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

	presets := preset.All()
	bar := progressbar.NewOptions(len(presets),
		progressbar.OptionSetDescription("Rendering presets"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("presets"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	ext := ".webp"
	if asPNG {
		ext = ".png"
	}

	for _, p := range presets {
		frame, err := applyPreset(ctx, client, info.UID, p.Name)
		if err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}

		output := filepath.Join(outDir, strings.ToLower(strings.ReplaceAll(p.Name, " ", "-"))+ext)
		if err := saveFrame(frame, output, asPNG); err != nil {
			return err
		}

		// Back to the neutral portrait before the next preset.
		if _, err := client.Restore(ctx, info.UID); err != nil {
			return err
		}
		bar.Add(1)
	}

	fmt.Printf("\nRendered %d presets into %s\n", len(presets), outDir)
	return nil
}
