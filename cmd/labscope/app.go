// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/schmidtw/labscope/adc"
	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/capture"
	"github.com/schmidtw/labscope/config"
	"github.com/schmidtw/labscope/display"
	"github.com/schmidtw/labscope/httpserver"
	"github.com/schmidtw/labscope/journal"
	"github.com/schmidtw/labscope/pipeline"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func options(cfg *config.Config) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			func(c *config.Config) (*zap.Logger, error) {
				return c.Log.Logger()
			},
			func(c *config.Config) calibrate.HardwareProfile {
				return c.Profile(os.DirFS("/"))
			},
			func(c *config.Config) httpserver.Config {
				return c.HTTP
			},
			func(c *config.Config) (*journal.Journal, error) {
				return journal.New(c.Journal)
			},
			func() *display.Board {
				return display.NewBoard()
			},
			newRegistry,
			newPipeline,
			newSource,
			newRoutes,
			httpserver.New,
		),
		fx.Invoke(
			logProfile,
			runSource,
			func(*http.Server) {},
		),
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

type pipelineIn struct {
	fx.In

	Config   *config.Config
	Profile  calibrate.HardwareProfile
	Board    *display.Board
	Journal  *journal.Journal
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

func newPipeline(in pipelineIn) (*pipeline.Pipeline, error) {
	return pipeline.New(in.Config.Pipeline(in.Profile), in.Board, in.Journal,
		pipeline.WithLogger(in.Logger.Named("pipeline")),
		pipeline.WithRegisterer(in.Registry),
	)
}

// newSource builds the capture source named in the configuration.
func newSource(c *config.Config, p *pipeline.Pipeline) (capture.Source, error) {
	channels := p.Channels()

	switch c.Acquisition.Source {
	case "synth":
		return capture.NewSynth(c.Synth(channels))
	case "soundcard":
		return capture.NewSoundCard(c.SoundCard(channels))
	case "ads1115":
		return adc.New(c.ADC(channels))
	}
	return nil, fmt.Errorf("%w: source '%s'", config.ErrInvalidConfig, c.Acquisition.Source)
}

func newRoutes(c *config.Config, p *pipeline.Pipeline, b *display.Board,
	j *journal.Journal, reg *prometheus.Registry, log *zap.Logger) httpserver.Routes {
	return httpserver.Routes{
		Controller: p,
		Board:      b,
		Journal:    j,
		Gatherer:   reg,
		Logger:     log.Named("http"),
		Interval:   c.Logging.Interval,
		MaxEntries: c.Logging.MaxEntries,
	}
}

func logProfile(c *config.Config, p calibrate.HardwareProfile, log *zap.Logger) {
	log.Info("hardware profile selected",
		zap.String("profile", p.Name),
		zap.String("source", c.Acquisition.Source),
		zap.Int("channels", c.Channels(p)),
	)
}

// runSource feeds the pipeline from the source for the life of the app.  A
// session still running at shutdown is stopped so that it is finalized.
func runSource(lc fx.Lifecycle, src capture.Source, p *pipeline.Pipeline, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// The start context ends once startup completes.
			return src.Start(context.Background(), p)
		},
		OnStop: func(ctx context.Context) error {
			src.Stop(ctx)
			p.StopLogging()
			log.Info("capture stopped")
			return nil
		},
	})
}
