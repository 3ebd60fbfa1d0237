package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"stateplot/plot"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// CONFIG_KIND is the kind of the config file's envelope.
const CONFIG_KIND = "PlotConfig"

// Display backends.
const (
	BACKEND_WINDOW  = "window"
	BACKEND_BROWSER = "browser"
	BACKEND_FILES   = "files"
)

// ErrUnknownKind is returned when the config file's envelope is not a PlotConfig.
var ErrUnknownKind error = errors.New("unknown config kind")

// OuterConfig is the envelope of every config file: a kind and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// AppConfig holds the server, display and plotting parameters.
// Viper lowercases keys, so the yaml tags are lowercase; files may still use camelCase.
type AppConfig struct {
	Server   ServerConfig  `yaml:"server"`
	Display  DisplayConfig `yaml:"display"`
	Plot     PlotConfig    `yaml:"plot"`
	LogLevel string        `yaml:"loglevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type DisplayConfig struct {
	// Backend is one of window, browser or files.
	Backend string `yaml:"backend"`
	// OutputDir is where the files backend writes svgs.
	OutputDir string `yaml:"outputdir"`
	// Deadline is an optional duration after which blocking displays give up, e.g. "10m".
	Deadline string `yaml:"deadline"`
}

type PlotConfig struct {
	ZLabel    string  `yaml:"zlabel"`
	Mode      string  `yaml:"mode"`
	ZMin      float64 `yaml:"zmin"`
	ZMax      float64 `yaml:"zmax"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Azimuth   float64 `yaml:"azimuth"`
	Elevation float64 `yaml:"elevation"`
}

// Default returns the config used when no file is present.
func Default() *AppConfig {
	opts := plot.DefaultOptions()
	return &AppConfig{
		Server: ServerConfig{
			Host: "",
			Port: "8080",
		},
		Display: DisplayConfig{
			Backend:   BACKEND_WINDOW,
			OutputDir: "figures",
		},
		Plot: PlotConfig{
			ZLabel:    opts.ZLabel,
			Mode:      string(opts.Mode),
			ZMin:      opts.ZMin,
			ZMax:      opts.ZMax,
			Width:     opts.Width,
			Height:    opts.Height,
			Azimuth:   opts.Azimuth,
			Elevation: opts.Elevation,
		},
		LogLevel: "info",
	}
}

// FromYaml reads the config file at path over the defaults. A missing file yields the defaults.
func FromYaml(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != CONFIG_KIND {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownKind, outerConfig.Kind, path)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := Default()
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}

	return innerConfig, nil
}

// Override applies the values set in vp, from flags or the environment, over the config.
// Keys are the cli flag names.
func (cfg *AppConfig) Override(vp *viper.Viper) {
	strs := map[string]*string{
		"host":       &cfg.Server.Host,
		"port":       &cfg.Server.Port,
		"backend":    &cfg.Display.Backend,
		"output-dir": &cfg.Display.OutputDir,
		"deadline":   &cfg.Display.Deadline,
		"log-level":  &cfg.LogLevel,
		"mode":       &cfg.Plot.Mode,
		"zlabel":     &cfg.Plot.ZLabel,
	}
	for key, field := range strs {
		if vp.IsSet(key) {
			*field = vp.GetString(key)
		}
	}

	floats := map[string]*float64{
		"zmin":      &cfg.Plot.ZMin,
		"zmax":      &cfg.Plot.ZMax,
		"azimuth":   &cfg.Plot.Azimuth,
		"elevation": &cfg.Plot.Elevation,
	}
	for key, field := range floats {
		if vp.IsSet(key) {
			*field = vp.GetFloat64(key)
		}
	}
}

// Validate checks the config for values no display can work with.
// Unknown plot modes are not an error; they are drawn as wireframes.
func (cfg *AppConfig) Validate() error {
	switch cfg.Display.Backend {
	case BACKEND_WINDOW, BACKEND_BROWSER, BACKEND_FILES:
	default:
		return fmt.Errorf("display.backend must be one of window, browser, files: got %q", cfg.Display.Backend)
	}
	if cfg.Display.Backend == BACKEND_FILES && cfg.Display.OutputDir == "" {
		return fmt.Errorf("display.outputDir is required by the files backend")
	}
	if cfg.Display.Deadline != "" {
		if _, err := time.ParseDuration(cfg.Display.Deadline); err != nil {
			return fmt.Errorf("display.deadline: %w", err)
		}
	}
	if !(cfg.Plot.ZMin < cfg.Plot.ZMax) {
		return fmt.Errorf("plot.zMin must be less than plot.zMax: got [%g, %g]", cfg.Plot.ZMin, cfg.Plot.ZMax)
	}
	if cfg.Plot.Width <= 0 || cfg.Plot.Height <= 0 {
		return fmt.Errorf("plot width and height must be positive: got %dx%d", cfg.Plot.Width, cfg.Plot.Height)
	}
	return nil
}

// Addr returns the server's listen address.
func (cfg *AppConfig) Addr() string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// PlotOptions converts the plot section to display options.
func (cfg *AppConfig) PlotOptions() plot.Options {
	return plot.Options{
		ZLabel:    cfg.Plot.ZLabel,
		Mode:      plot.ParseMode(cfg.Plot.Mode),
		ZMin:      cfg.Plot.ZMin,
		ZMax:      cfg.Plot.ZMax,
		Width:     cfg.Plot.Width,
		Height:    cfg.Plot.Height,
		Azimuth:   cfg.Plot.Azimuth,
		Elevation: cfg.Plot.Elevation,
	}
}

// WithDisplayDeadline returns a context extended by the display deadline, if one is specified.
func (cfg *AppConfig) WithDisplayDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if cfg.Display.Deadline != "" {
		duration, err := time.ParseDuration(cfg.Display.Deadline)
		if err != nil {
			return nil, nil, err
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}
