package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"clipset/internal/config"
	"clipset/internal/manifest"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print the clipset configuration",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, err := os.Stat(target)
				switch {
				case err == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set [archive] url and review [dataset] splits before running 'clipset build'.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// newConfigValidateCommand loads the configuration without creating any
// directories and summarizes the dataset it would build.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and summarize the planned dataset",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := loadForInspection(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if cfg.Archive.URL == "" {
				fmt.Fprintln(out, "archive.url is not set; index and build will need --url")
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Setting", "Value"},
				datasetSummary(cfg),
				[]columnAlignment{alignLeft, alignLeft},
				nil,
			))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration as TOML",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadForInspection(ctx)
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func loadForInspection(ctx *commandContext) (*config.Config, string, bool, error) {
	var path string
	if ctx.configFlag != nil {
		path = strings.TrimSpace(*ctx.configFlag)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, "", false, fmt.Errorf("load config: %w", err)
	}
	return cfg, resolved, exists, nil
}

func datasetSummary(cfg *config.Config) [][]string {
	splits := make([]string, 0, len(cfg.Dataset.Splits))
	perClass := 0
	for _, s := range cfg.Dataset.Splits {
		splits = append(splits, fmt.Sprintf("%s=%d", s.Name, s.Count))
		perClass += s.Count
	}
	pool := "whole class"
	if cfg.Dataset.FilesPerClass > 0 {
		pool = "first " + strconv.Itoa(cfg.Dataset.FilesPerClass) + " files"
	}
	manifestState := "not created"
	if manifest.Exists(cfg) {
		manifestState = "present"
	}
	return [][]string{
		{"Archive", valueOr(cfg.Archive.URL, "(unset)")},
		{"Extension", cfg.Archive.Extension},
		{"Classes", strconv.Itoa(cfg.Dataset.NumClasses)},
		{"Selection pool", pool},
		{"Seed", strconv.FormatInt(cfg.Dataset.Seed, 10)},
		{"Splits", strings.Join(splits, ", ")},
		{"Clips per class", strconv.Itoa(perClass)},
		{"Sample shape", fmt.Sprintf("%d x %d x %d x 3, every %d frames",
			cfg.Sampler.NFrames, cfg.Sampler.Height, cfg.Sampler.Width, cfg.Sampler.FrameStep)},
		{"Download dir", cfg.Paths.DownloadDir},
		{"Manifest", cfg.ManifestPath() + " (" + manifestState + ")"},
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
