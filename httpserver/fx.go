// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerIn is everything needed to run the labscope http server.
type ServerIn struct {
	fx.In

	LC     fx.Lifecycle
	Config Config
	Routes Routes
	Logger *zap.Logger
}

// New builds the server and ties listening and shutdown to the lifecycle.
func New(in ServerIn) (*http.Server, error) {
	if in.Routes.Logger == nil {
		in.Routes.Logger = in.Logger
	}

	srv, err := in.Config.Handler(in.Routes.Handler())
	if err != nil {
		return nil, err
	}

	log := in.Logger.With(zap.String("addr", srv.Addr))
	in.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lc := net.ListenConfig{
				KeepAlive: in.Config.KeepAlive,
			}
			ln, err := lc.Listen(ctx, "tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("labscope http server listening", zap.Bool("tls", srv.TLSConfig != nil))
			go func() {
				var err error
				if srv.TLSConfig != nil {
					err = srv.ServeTLS(ln, "", "")
				} else {
					err = srv.Serve(ln)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("labscope http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("labscope http server stopping")
			return srv.Shutdown(ctx)
		},
	})
	return srv, nil
}
