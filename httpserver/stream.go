// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/schmidtw/labscope/display"
	"go.uber.org/zap"
)

const (
	streamQueue        = 64
	streamWriteTimeout = 5 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// stream pushes every published reading to a websocket client.  Readings
// are dropped for a client that falls behind.
func (rt Routes) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		rt.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	queue := make(chan display.Reading, streamQueue)
	unsubscribe := rt.Board.Subscribe(func(rd display.Reading) {
		select {
		case queue <- rd:
		default:
		}
	})
	defer unsubscribe()

	// The client sends nothing; reading only notices when it goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case rd := <-queue:
			// A reading json cannot carry is skipped, the stream stays up.
			msg, err := json.Marshal(rd)
			if err != nil {
				rt.Logger.Debug("reading not sent", zap.Int("channel", rd.Channel), zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				rt.Logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
