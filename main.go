/*
stateplot renders Black-Jack state tensors, the (dealer card, player sum, usable ace) values or
policy probabilities of a learned agent, as 3D scatter, wireframe or surface plots: one figure
per usable-ace flag, each shown until the viewer dismisses it. Figures can be shown in a desktop
window, pushed to a browser page, or written to svg files; `serve` keeps a live page of a tensor
that an external training process updates over http.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stateplot/blackjack"
	"stateplot/config"
	"stateplot/display"
	"stateplot/display/window"
	"stateplot/plot"
	"stateplot/server"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// plotJob is one PlotStateData call: a tensor and how to show it.
type plotJob struct {
	tensor *blackjack.Tensor
	opts   plot.Options
}

// app holds what every command needs: the flags bound into viper and the resolved config.
type app struct {
	vp     *viper.Viper
	cfg    *config.AppConfig
	logger zerolog.Logger
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// load reads the config file, applies flag and env overrides, and builds the logger.
func (a *app) load(cmd *cobra.Command) (err error) {
	if a.cfg, err = config.FromYaml(a.vp.GetString("config")); err != nil {
		return
	}
	a.cfg.Override(a.vp)
	if err = a.cfg.Validate(); err != nil {
		return
	}
	a.logger = newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel)
	return
}

func (a *app) newRunner(ctx context.Context) (display.Runner, error) {
	switch a.cfg.Display.Backend {
	case config.BACKEND_FILES:
		return display.NewFileDisplay(a.cfg.Display.OutputDir, a.logger)
	case config.BACKEND_BROWSER:
		return display.NewBrowserDisplay(ctx, a.cfg.Addr(), a.logger)
	default:
		return window.NewDisplay("stateplot", a.logger), nil
	}
}

// runPlots shows every job's figures, in order, on the configured display.
func (a *app) runPlots(ctx context.Context, jobs []plotJob) error {
	displayCtx, cancel, err := a.cfg.WithDisplayDeadline(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	runner, err := a.newRunner(displayCtx)
	if err != nil {
		return err
	}

	err = runner.Run(displayCtx, func(ctx context.Context) error {
		for _, job := range jobs {
			if err := plot.PlotStateData(ctx, runner, job.tensor, job.opts); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, window.ErrWindowClosed) {
		a.logger.Info().Msg("window closed before all figures were shown")
		return nil
	}
	return err
}

// demoJobs plots both generated kinds in every mode, as the plots of a trained agent would be.
func (a *app) demoJobs() (jobs []plotJob) {
	kinds := []struct {
		kind       blackjack.DataKind
		zLabel     string
		zMin, zMax float64
	}{
		{blackjack.STATE_VALUE, a.cfg.Plot.ZLabel, -1, 1},
		{blackjack.PROB, "P (probability)", 0, 1},
	}
	for _, k := range kinds {
		tensor := blackjack.Generate(k.kind)
		for _, mode := range []plot.Mode{plot.SCATTER, plot.WIREFRAME, plot.SURFACE} {
			opts := a.cfg.PlotOptions()
			opts.Mode = mode
			opts.ZLabel = k.zLabel
			opts.ZMin, opts.ZMax = k.zMin, k.zMax
			jobs = append(jobs, plotJob{tensor: tensor, opts: opts})
		}
	}
	return
}

func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Plot generated state values and probabilities in every render mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			return a.runPlots(cmd.Context(), a.demoJobs())
		},
	}
}

func (a *app) plotCmd() *cobra.Command {
	var tensorPath string
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot a tensor file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			tensor, err := blackjack.Load(tensorPath)
			if err != nil {
				return err
			}
			return a.runPlots(cmd.Context(), []plotJob{{tensor: tensor, opts: a.cfg.PlotOptions()}})
		},
	}
	cmd.Flags().StringVar(&tensorPath, "tensor", "", "tensor file (yaml or json) to plot")
	_ = cmd.MarkFlagRequired("tensor")
	return cmd
}

func (a *app) generateCmd() *cobra.Command {
	var kind, out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a generated test tensor",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			tensor := blackjack.Generate(blackjack.DataKind(kind))
			if out == "" {
				return blackjack.Encode(cmd.OutOrStdout(), tensor)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
			}()
			return blackjack.Encode(f, tensor)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(blackjack.STATE_VALUE), "data kind: state_value or prob; other kinds are all zeros")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var tensorPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live page of a tensor, updated by PUT /tensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}

			tensor := blackjack.Generate(blackjack.STATE_VALUE)
			if tensorPath != "" {
				var err error
				if tensor, err = blackjack.Load(tensorPath); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			feed := server.NewTensorFeed(blackjack.NewLiveTensor(tensor), a.cfg.PlotOptions())
			page, err := feed.Page(ctx, "State values")
			if err != nil {
				return err
			}
			srv, err := server.NewServer(ctx, a.cfg.Addr(), a.logger, page)
			if err != nil {
				return err
			}
			return srv.WithTensorFeed(feed).Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&tensorPath, "tensor", "", "initial tensor file (default generated state values)")
	return cmd
}

func newRootCmd() *cobra.Command {
	a := &app{vp: viper.New()}
	root := &cobra.Command{
		Use:           "stateplot",
		Short:         "3D plots of Black-Jack state values and policies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "config.yaml", "config file")
	flags.String("backend", "", "display backend: window, browser or files")
	flags.String("output-dir", "", "directory of the files backend")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("host", "", "host of the browser page and live server")
	flags.String("port", "", "port of the browser page and live server")
	flags.String("deadline", "", "give up showing figures after this duration, e.g. 10m")
	flags.String("mode", "", "render mode: scatter, wireframe or surface")
	flags.String("zlabel", "", "z axis label")
	flags.Float64("zmin", 0, "z axis minimum")
	flags.Float64("zmax", 0, "z axis maximum")
	flags.Float64("azimuth", 0, "camera azimuth in degrees")
	flags.Float64("elevation", 0, "camera elevation in degrees")

	// Bind flags to viper for environment variable support
	_ = a.vp.BindPFlags(flags)
	a.vp.SetEnvPrefix("STATEPLOT")
	a.vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.vp.AutomaticEnv()

	root.AddCommand(a.demoCmd(), a.plotCmd(), a.generateCmd(), a.serveCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
