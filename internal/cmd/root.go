package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/atikulmunna/pixelog/internal/config"
	"github.com/atikulmunna/pixelog/internal/diag"
	"github.com/atikulmunna/pixelog/internal/logger"
	"github.com/atikulmunna/pixelog/internal/output"
	"github.com/atikulmunna/pixelog/internal/pipeline"
)

// Version is set at build time.
var Version = "dev"

// app carries state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "pixelog",
		Short: "Convert CloudFront tracking-pixel logs to combined log format",
		Long: `Pixelog reads CloudFront access logs, keeps the requests made for the
tracking pixel and rewrites each one as the page view it records, in the
combined log format understood by web analytics tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default: $HOME/.pixelog.yaml)")
	root.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "log debug output to stderr")
	root.PersistentFlags().Bool(config.KeyNoColor, false, "disable colored diagnostics")

	root.AddCommand(
		newConvertCmd(a),
		newWatchCmd(a),
	)

	root.Version = Version
	root.SetVersionTemplate(fmt.Sprintf("pixelog %s\n", Version))

	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.AddConfigPath(".")
		a.v.SetConfigName(".pixelog")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix(config.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a.cfg, a.log = cfg, log
	a.log.Debug("Configuration loaded",
		zap.String("file", a.v.ConfigFileUsed()),
		zap.Int("days", cfg.Days),
		zap.String("pixel_path", cfg.PixelPath),
	)
	return nil
}

// options wires a conversion to the command's output streams.
func (a *app) options(cmd *cobra.Command) pipeline.Options {
	return pipeline.Options{
		Renderer: output.NewCombinedRenderer(cmd.OutOrStdout()),
		Sink: diag.Multi(
			diag.NewTextSink(cmd.ErrOrStderr(), !a.cfg.NoColor),
			diag.NewLogSink(a.log),
		),
		Logger:    a.log,
		PixelPath: a.cfg.PixelPath,
	}
}

// reportedError marks a failure the user has already been shown as a diagnostic.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
