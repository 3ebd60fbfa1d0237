package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stateplot/plot"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

const testConfig = `kind: PlotConfig
def:
  server:
    port: "9090"
  display:
    backend: files
    outputDir: out
    deadline: 1m
  plot:
    zLabel: P(win)
    mode: surface
    zMin: 0
    zMax: 1
  logLevel: debug
`

func writeConfig(contents string) string {
	path := filepath.Join(os.TempDir(), "stateplot-config-test.yaml")
	So(os.WriteFile(path, []byte(contents), 0o644), ShouldBeNil)
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When reading a config file", t, func() {
		Convey("Values are read over the defaults", func() {
			path := writeConfig(testConfig)
			defer os.Remove(path)

			cfg, err := FromYaml(path)
			So(err, ShouldBeNil)
			So(cfg.Server.Port, ShouldEqual, "9090")
			So(cfg.Display.Backend, ShouldEqual, BACKEND_FILES)
			So(cfg.Display.OutputDir, ShouldEqual, "out")
			So(cfg.Plot.ZLabel, ShouldEqual, "P(win)")
			So(cfg.Plot.Mode, ShouldEqual, "surface")
			So(cfg.Plot.ZMin, ShouldEqual, 0.0)
			So(cfg.LogLevel, ShouldEqual, "debug")
			// Unspecified values keep their defaults.
			So(cfg.Plot.Width, ShouldEqual, plot.DEFAULT_WIDTH)
			So(cfg.Plot.Azimuth, ShouldEqual, float64(plot.DEFAULT_AZIMUTH))
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("A missing file yields the defaults", func() {
			cfg, err := FromYaml(filepath.Join(os.TempDir(), "no-such-stateplot-config.yaml"))
			So(err, ShouldBeNil)
			So(cfg, ShouldResemble, Default())
		})

		Convey("Another kind of config is rejected", func() {
			path := writeConfig("kind: TrainingConfig\ndef:\n  logLevel: debug\n")
			defer os.Remove(path)

			_, err := FromYaml(path)
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("The defaults are valid", t, func() {
		So(Default().Validate(), ShouldBeNil)
	})

	Convey("Invalid values are rejected", t, func() {
		cfg := Default()

		Convey("An unknown backend", func() {
			cfg.Display.Backend = "printer"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("An empty z range", func() {
			cfg.Plot.ZMin, cfg.Plot.ZMax = 1, 1
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("A bad deadline", func() {
			cfg.Display.Deadline = "soon"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("A zero size", func() {
			cfg.Plot.Width = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})

	Convey("An unknown mode is valid and plotted as a wireframe", t, func() {
		cfg := Default()
		cfg.Plot.Mode = "(0, 1)"
		So(cfg.Validate(), ShouldBeNil)
		So(cfg.PlotOptions().Mode, ShouldEqual, plot.WIREFRAME)
	})
}

func TestOverride(t *testing.T) {
	Convey("Values set in viper override the config", t, func() {
		vp := viper.New()
		vp.Set("backend", BACKEND_BROWSER)
		vp.Set("zmax", 2.5)
		vp.Set("output-dir", "elsewhere")

		cfg := Default()
		cfg.Override(vp)
		So(cfg.Display.Backend, ShouldEqual, BACKEND_BROWSER)
		So(cfg.Display.OutputDir, ShouldEqual, "elsewhere")
		So(cfg.Plot.ZMax, ShouldEqual, 2.5)
		// Unset keys are left alone.
		So(cfg.Plot.ZMin, ShouldEqual, -1.0)
		So(cfg.Plot.Mode, ShouldEqual, "wireframe")
	})
}

func TestDisplayDeadline(t *testing.T) {
	Convey("A display deadline bounds the context", t, func() {
		cfg := Default()
		cfg.Display.Deadline = "1h"
		ctx, cancel, err := cfg.WithDisplayDeadline(context.Background())
		So(err, ShouldBeNil)
		defer cancel()

		deadline, ok := ctx.Deadline()
		So(ok, ShouldBeTrue)
		So(deadline, ShouldHappenWithin, time.Hour+time.Minute, time.Now())
	})

	Convey("Without a deadline the context is only cancellable", t, func() {
		ctx, cancel, err := Default().WithDisplayDeadline(context.Background())
		So(err, ShouldBeNil)
		_, ok := ctx.Deadline()
		So(ok, ShouldBeFalse)
		cancel()
		So(ctx.Err(), ShouldEqual, context.Canceled)
	})
}
