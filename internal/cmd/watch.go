package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/pixelog/internal/config"
	"github.com/atikulmunna/pixelog/internal/finder"
	"github.com/atikulmunna/pixelog/internal/pipeline"
	"github.com/atikulmunna/pixelog/internal/pixel"
	"github.com/atikulmunna/pixelog/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Convert new CloudFront logs as they arrive",
		Long: `Convert the *.gz logs in a directory dated within --days, then keep
watching it and convert each new log once it has not changed for --settle.
The summary is printed on interrupt.

Examples:
  pixelog watch /var/log/cloudfront
  pixelog watch /var/log/cloudfront --days 1 --settle 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args[0])
		},
	}

	cmd.Flags().Int(config.KeyDays, finder.DefaultDays, "only read files dated within this many days")
	cmd.Flags().String(config.KeyPixelPath, pixel.DefaultPath, "URL path of the tracking pixel")
	cmd.Flags().Duration(config.KeySettle, config.DefaultSettle, "how long a new file must stay unchanged before it is read")

	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accept := func(name string) bool {
		return finder.Accept(name, finder.Cutoff(time.Now(), a.cfg.Days))
	}

	// Watch before the initial scan so files landing in between are not missed.
	w, err := watcher.New(dir, a.cfg.Settle, accept, a.log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	c := pipeline.New(a.options(cmd))
	seen := make(map[string]bool)
	convert := func(path string) {
		seen[path] = true
		if err := c.Convert(ctx, []string{path}); err != nil {
			if !c.ReportFailure(err) && !errors.Is(err, context.Canceled) {
				a.log.Warn("Conversion failed", zap.String("path", path), zap.Error(err))
			}
		}
	}

	files, err := finder.ScanDir(w.Dir(), a.cfg.Days, time.Now())
	if err != nil {
		return err
	}
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		convert(f)
	}

	a.log.Info("Watching for new logs", zap.String("dir", w.Dir()), zap.Int("initial_files", len(files)))
	go w.Start(ctx)

	for ev := range w.Events {
		if seen[ev.Path] {
			continue
		}
		a.log.Debug("New log", zap.String("path", ev.Path), zap.Stringer("op", ev.Op))
		convert(ev.Path)
	}

	c.Summary(cmd.ErrOrStderr())
	if err := c.Err(); err != nil && !errors.Is(err, pipeline.ErrNoFiles) {
		return err
	}
	return nil
}
