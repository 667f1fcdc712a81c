package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/polydrive/internal/experiment"
	"github.com/san-kum/polydrive/internal/sim"
)

// runPipe lets an external host (a turtlesim bridge, a recorded log) drive the
// controller. Logs go to stderr so stdout carries only commands.
func runPipe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctrl, err := experiment.NewRegistry().GetController(cfg.Controller, cfg.Polygon, logger.Named("controller"))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	src := sim.ReadPoses(ctx, os.Stdin, logger)
	driver := sim.NewDriver(ctrl, sim.NewJSONSink(os.Stdout), logger.Named("driver"))
	if err := driver.RunSource(ctx, src); err != nil {
		return err
	}
	if err := src.Err(); err != nil {
		return err
	}
	logger.Info("pose stream ended", zap.Int("handled", driver.Handled()))
	return nil
}
