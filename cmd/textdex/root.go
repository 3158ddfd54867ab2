package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textdex"
	"github.com/kailas-cloud/textdex/internal/config"
	logpkg "github.com/kailas-cloud/textdex/internal/logger"
)

type rootOptions struct {
	configPath string
	env        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "textdex",
		Short:         "textdex - a concurrency-safe full-text index",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to the YAML config (default config/<env>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "Environment name (local, dev, prod)")

	cmd.AddCommand(
		newServeCmd(opts),
		newUpsertCmd(opts),
		newSearchCmd(opts),
		newCountCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load(o.env)
}

// openClient opens the configured index for a one-shot command.
func (o *rootOptions) openClient() (*textdex.Client, config.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, config.Config{}, err
	}
	// One-shot commands only log warnings so stdout stays parseable.
	log, err := logpkg.NewLogger("cli")
	if err != nil {
		return nil, config.Config{}, err
	}
	c, err := textdex.Open(clientOptions(cfg, log)...)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("open index: %w", err)
	}
	return c, cfg, nil
}

func clientOptions(cfg config.Config, log *zap.Logger) []textdex.Option {
	opts := []textdex.Option{
		textdex.WithLogger(log),
		textdex.WithConcurrency(textdex.ConcurrencyMode(cfg.Concurrency.Mode)),
		textdex.WithMaxBatchSize(cfg.Index.MaxBatchSize),
		textdex.WithParseCacheSize(cfg.Search.ParseCacheSize),
	}
	if cfg.Index.MemOnly {
		return append(opts, textdex.WithMemOnly())
	}
	return append(opts, textdex.WithPath(cfg.Index.Path))
}
