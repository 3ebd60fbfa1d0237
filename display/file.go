package display

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"stateplot/blackjack"
	"stateplot/plot"
	"stateplot/server/figure_views"

	"github.com/rs/zerolog"
)

// FileDisplay writes each figure to an svg file. It never blocks: writing a figure dismisses it.
type FileDisplay struct {
	dir     string
	logger  zerolog.Logger
	written []string
}

// NewFileDisplay creates the output directory if needed.
func NewFileDisplay(dir string, logger zerolog.Logger) (*FileDisplay, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	return &FileDisplay{dir: dir, logger: logger}, nil
}

// Show writes the figure as NN-<mode>-<ace|noace>.svg, numbered in order of showing.
func (fd *FileDisplay) Show(ctx context.Context, fig *plot.Figure) (err error) {
	if err = ctx.Err(); err != nil {
		return
	}

	ace := "noace"
	if fig.UsableAce == blackjack.USABLE_ACE {
		ace = "ace"
	}
	path := filepath.Join(fd.dir, fmt.Sprintf("%02d-%s-%s.svg", len(fd.written)+1, fig.Mode, ace))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if err = figure_views.WriteSVG(f, plot.NewScene(fig)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fd.written = append(fd.written, path)
	fd.logger.Info().Str("path", path).Str("title", fig.Title).Msg("wrote figure")
	return nil
}

// Written returns the paths written so far.
func (fd *FileDisplay) Written() []string {
	return fd.written
}

// Run simply calls drive; files need no running display.
func (fd *FileDisplay) Run(ctx context.Context, drive func(context.Context) error) error {
	return drive(ctx)
}
