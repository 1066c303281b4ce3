// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package httpserver exposes the labscope controls, readings and logs over
// http.
package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/xmidt-org/arrange/arrangetls"
	"github.com/xmidt-org/httpaux"
	serveraux "github.com/xmidt-org/httpaux/server"
)

// DefaultAddress is used when no address is configured.
const DefaultAddress = ":8080"

// Config is the http section of the labscope configuration.  The timeouts
// and limits are handed to http.Server as they are.
type Config struct {
	Address string `mapstructure:"address"`

	// Path mounts every route under a prefix, for running behind a proxy.
	Path string `mapstructure:"path"`

	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`

	// KeepAlive is the tcp keep alive period of accepted connections.
	KeepAlive time.Duration `mapstructure:"keep_alive"`

	// Headers are added to every response.
	Headers http.Header `mapstructure:"headers"`

	// TLS switches the server to https when set.
	TLS *arrangetls.Config `mapstructure:"tls"`
}

// Handler builds the server around h.
func (c Config) Handler(h http.Handler) (*http.Server, error) {
	headers := httpaux.NewHeader(c.Headers)
	handler := serveraux.Header(headers.SetTo)(h)

	mux := http.NewServeMux()
	if path := strings.TrimSuffix(c.Path, "/"); path == "" {
		mux.Handle("/", handler)
	} else {
		mux.Handle(path+"/", http.StripPrefix(path, handler))
	}

	addr := c.Address
	if addr == "" {
		addr = DefaultAddress
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
		MaxHeaderBytes:    c.MaxHeaderBytes,
	}

	tlsConfig, err := c.TLS.New()
	if err != nil {
		return nil, err
	}
	server.TLSConfig = tlsConfig

	return server, nil
}
