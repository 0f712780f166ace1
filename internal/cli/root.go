// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/settlesmart/internal/cloud"
	"github.com/jeranaias/settlesmart/internal/config"
	"github.com/jeranaias/settlesmart/internal/logging"
	"github.com/jeranaias/settlesmart/internal/pipeline"
	"github.com/jeranaias/settlesmart/internal/prompt"
)

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/jeranaias/settlesmart/internal/cli.Version=...".
var Version = "0.1.0"

// skipConfig marks commands that must run even when the config is broken.
const skipConfig = "skip-config"

// app holds state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the settle command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "settle",
		Short: "Week-by-week relocation plans",
		Long: `settle turns a relocation profile (phase, origin, destination, visa type
and anchor date) into a week-by-week checklist of practical settling-in
tasks, using an OpenAI-compatible completion service.

Run "settle serve" for the HTTP API or "settle generate" for a one-off plan.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.settlesmart/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newProgressCmd(),
		newSchemaCmd(),
		newVersionCmd(),
		newConfigCmd(a),
		newDoctorCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: a.verbose,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("configuration loaded", zap.String("config", cfg.String()))
	return nil
}

// newPipeline wires the completion client and pipeline from configuration.
func (a *app) newPipeline() *pipeline.Pipeline {
	c := a.cfg.Completion

	// Both values were checked by config validation.
	endpoint, _ := cloud.ParseEndpoint(c.Endpoint)
	strategy, _ := prompt.ParseStrategy(c.Strategy)

	client := cloud.NewClient(cloud.Options{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Endpoint:    endpoint,
		Temperature: cloud.Temperature(c.Temperature),
		Timeout:     c.Timeout(),
		Logger:      a.logger,
	})
	a.logger.Debug("completion client ready",
		zap.String("model", client.Model()),
		zap.String("endpoint", string(client.Endpoint())),
		zap.String("key", client.KeyFingerprint()))

	return pipeline.New(client).
		WithStrategy(strategy).
		WithLogger(a.logger)
}

// describeFailure turns a generation error into a message for the terminal.
func describeFailure(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		return fmt.Errorf("completion API key is not configured; set OPENAI_API_KEY or completion.api_key")
	case errors.Is(err, pipeline.ErrUpstream):
		var ue *cloud.UpstreamError
		if errors.As(err, &ue) {
			return fmt.Errorf("completion service error (HTTP %d)", ue.Status)
		}
		return fmt.Errorf("completion service error")
	case errors.Is(err, pipeline.ErrTransport):
		var pe *pipeline.Error
		if errors.As(err, &pe) {
			return fmt.Errorf("completion service unreachable: %w", pe.Err)
		}
		return fmt.Errorf("completion service unreachable")
	}
	return err
}
