package main

import (
	"quizforge/internal/config"
	"quizforge/internal/logger"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is where input files are read and --out files are written.
var appFs = afero.NewOsFs()

var rootCmd = &cobra.Command{
	Use:           "quizgen",
	Short:         "Generate multiple-choice quizzes from PDFs, images or text",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads configuration and initializes the logger for a subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return nil, err
	}
	return cfg, nil
}
