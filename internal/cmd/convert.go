package cmd

import (
	"errors"
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
	"github.com/atikulmunna/pixelog/internal/reader"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [dir | files...]",
		Short: "Convert CloudFront logs to combined log format",
		Long: `Convert CloudFront access logs and write the tracking-pixel hits to stdout
in combined log format. Diagnostics and a summary are written to stderr.

A single directory argument is scanned for *.gz logs dated within --days.
Otherwise every argument is read in order; glob patterns such as
"logs/**/*.gz" are expanded.

Examples:
  pixelog convert /var/log/cloudfront
  pixelog convert E2ABC.2024-01-01-00.abcd.gz E2ABC.2024-01-01-01.efgh.gz
  pixelog convert "logs/**/*.gz" --pixel-path /t.gif`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args)
		},
	}

	cmd.Flags().Int(config.KeyDays, finder.DefaultDays, "only read directory files dated within this many days")
	cmd.Flags().String(config.KeyPixelPath, pixel.DefaultPath, "URL path of the tracking pixel")

	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := finder.Select(args, a.cfg.Days, time.Now())
	if err != nil {
		return err
	}
	a.log.Debug("Selected files", zap.Int("count", len(files)))

	opts := a.options(cmd)
	if err := pipeline.Run(ctx, files, opts, cmd.ErrOrStderr()); err != nil {
		var readErr *reader.ReadError
		if errors.As(err, &readErr) {
			return &reportedError{err: err}
		}
		return err
	}
	return nil
}
