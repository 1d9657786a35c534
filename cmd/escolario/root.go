package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/escolario/internal/cli"
	"github.com/dmitrijs2005/escolario/internal/config"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/spf13/cobra"
)

const closeTimeout = 5 * time.Second

var flags config.Flags

// rootCmd runs the interactive client when called without subcommands.
var rootCmd = &cobra.Command{
	Use:          "escolario",
	Short:        "Academic notes with local accounts",
	Long:         `Escolario keeps study notes for students and lets an administrator manage the user roster.`,
	SilenceUsage: true,
	RunE:         runClient,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

// setup loads the configuration for cmd and builds its logger.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(cmd.Flags(), &flags)
	if err != nil {
		return nil, nil, err
	}
	l := logging.Setup(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	return cfg, logging.NewSlogLogger(l), nil
}

func runClient(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	env, err := cli.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DatabasePath, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := env.Close(closeCtx); err != nil {
			logging.LogError(closeCtx, logger, "shutdown failed", err)
		}
	}()

	app := cli.NewApp(env, cli.NewConsole(os.Stdin, os.Stdout), os.Stdout)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
