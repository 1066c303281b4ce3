// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package views serves the browser front end of labscope.
package views

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var Index []byte

// Handler serves the index page.  The page talks to the json and websocket
// endpoints mounted beside it.
func Handler() http.Handler {
	return http.HandlerFunc(indexHandler)
}

func indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(Index)
}
