package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"stateplot/blackjack"

	. "github.com/smartystreets/goconvey/convey"
)

// execute runs the cli with a config path that does not exist, so only defaults and flags apply.
func execute(dir string, args ...string) (string, error) {
	root := newRootCmd()
	out := bytes.Buffer{}
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--config", filepath.Join(dir, "missing.yaml")))
	err := root.Execute()
	return out.String(), err
}

func svgFiles(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.svg"))
	So(err, ShouldBeNil)
	return matches
}

func TestGenerate(t *testing.T) {
	Convey("When generating a tensor", t, func() {
		dir := t.TempDir()

		Convey("It is written to the out file", func() {
			path := filepath.Join(dir, "prob.yaml")
			_, err := execute(dir, "generate", "--kind", "prob", "--out", path)
			So(err, ShouldBeNil)

			tensor, err := blackjack.Load(path)
			So(err, ShouldBeNil)
			So(tensor, ShouldResemble, blackjack.Generate(blackjack.PROB))
		})

		Convey("It is written to stdout without an out file", func() {
			out, err := execute(dir, "generate")
			So(err, ShouldBeNil)
			So(out, ShouldStartWith, "kind: StateTensor")
		})
	})
}

func TestPlotCommands(t *testing.T) {
	Convey("Given the files backend", t, func() {
		dir := t.TempDir()
		figures := filepath.Join(dir, "figures")

		Convey("Plotting a tensor file writes both ace figures", func() {
			path := filepath.Join(dir, "values.yaml")
			_, err := execute(dir, "generate", "--out", path)
			So(err, ShouldBeNil)

			_, err = execute(dir, "plot", "--tensor", path, "--backend", "files", "--output-dir", figures, "--mode", "scatter")
			So(err, ShouldBeNil)
			So(svgFiles(figures), ShouldResemble, []string{
				filepath.Join(figures, "01-scatter-noace.svg"),
				filepath.Join(figures, "02-scatter-ace.svg"),
			})
		})

		Convey("An unknown mode is plotted as a wireframe", func() {
			path := filepath.Join(dir, "values.yaml")
			_, err := execute(dir, "generate", "--out", path)
			So(err, ShouldBeNil)

			_, err = execute(dir, "plot", "--tensor", path, "--backend", "files", "--output-dir", figures, "--mode", "(0, 1)")
			So(err, ShouldBeNil)
			So(filepath.Join(figures, "01-wireframe-noace.svg"), ShouldBeIn, svgFiles(figures))
		})

		Convey("The demo plots both kinds in all three modes", func() {
			_, err := execute(dir, "demo", "--backend", "files", "--output-dir", figures)
			So(err, ShouldBeNil)
			So(len(svgFiles(figures)), ShouldEqual, 12)

			data, err := os.ReadFile(filepath.Join(figures, "12-surface-ace.svg"))
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "P (probability)")
		})

		Convey("A tensor of the wrong shape fails fast", func() {
			path := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(path, []byte("[[[0, 0]]]"), 0o644), ShouldBeNil)

			_, err := execute(dir, "plot", "--tensor", path, "--backend", "files", "--output-dir", figures)
			So(err, ShouldNotBeNil)
			So(svgFiles(figures), ShouldBeEmpty)
		})

		Convey("An invalid configuration is rejected", func() {
			_, err := execute(dir, "demo", "--backend", "printer")
			So(err, ShouldNotBeNil)

			_, err = execute(dir, "demo", "--backend", "files", "--output-dir", figures, "--zmin", "2", "--zmax", "1")
			So(err, ShouldNotBeNil)
		})
	})
}
