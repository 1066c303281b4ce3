// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/config"
	"go.uber.org/fx"
)

type CLI struct {
	Config string `short:"c" type:"path" help:"Configuration file.  The usual locations are searched when not set."`

	Run      RunCmd      `cmd:"" default:"1" help:"Capture, display and log."`
	Profiles ProfilesCmd `cmd:"" help:"List the known hardware profiles."`
	Detect   DetectCmd   `cmd:"" help:"Print the hardware profile that would be used."`
}

type RunCmd struct{}

func (r *RunCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	app := fx.New(options(cfg)...)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

type ProfilesCmd struct{}

func (p *ProfilesCmd) Run(out io.Writer) error {
	return printProfiles(out, calibrate.Profiles()...)
}

type DetectCmd struct {
	Root string `default:"/" type:"existingdir" help:"Root of the filesystem to inspect."`
}

func (d *DetectCmd) Run(out io.Writer) error {
	return printProfiles(out, calibrate.Detect(os.DirFS(d.Root)))
}

func printProfiles(out io.Writer, profiles ...calibrate.HardwareProfile) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCHANNELS\tGAIN\tBIAS")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%d\t%g\t%g\n", p.Name, p.Channels, p.Gain, p.Bias)
	}
	return tw.Flush()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("labscope"),
		kong.Description("Signal acquisition, display and logging."),
		kong.UsageOnError(),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
