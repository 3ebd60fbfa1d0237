//go:build !cgo

package window

import (
	"context"

	"stateplot/plot"

	"github.com/rs/zerolog"
)

type Display struct{}

func NewDisplay(_ string, _ zerolog.Logger) *Display {
	return &Display{}
}

func (d *Display) Show(_ context.Context, _ *plot.Figure) error {
	return ErrNoCgo
}

func (d *Display) Run(_ context.Context, _ func(context.Context) error) error {
	return ErrNoCgo
}
