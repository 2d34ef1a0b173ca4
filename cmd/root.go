package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/renderer"
)

var engineURL string

var rootCmd = &cobra.Command{
	Use:   "facepoke",
	Short: "A tool for composing facial expression edits on portrait photos",
	Long: `FacePoke is a composition layer for a face-reenactment engine.
It turns pointer drags and emotion presets into canonical expression edits,
keeps per-portrait editing state, and dispatches the edits to the engine
for rendering.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&engineURL, "engine", "", "Engine base URL (overrides ENGINE_URL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newEngineClient builds a renderer client from the --engine flag or the
// environment.
func newEngineClient(cfg *config.Config) (*renderer.Client, error) {
	url := engineURL
	if url == "" {
		url = cfg.Engine.URL
	}
	if url == "" {
		return nil, errors.New("engine URL is required (set ENGINE_URL or --engine)")
	}
	return renderer.NewClient(url, cfg.Engine.Timeout)
}
