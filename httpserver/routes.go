// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schmidtw/labscope/calibrate"
	"github.com/schmidtw/labscope/display"
	"github.com/schmidtw/labscope/journal"
	"github.com/schmidtw/labscope/pipeline"
	"github.com/schmidtw/labscope/scheduler"
	"github.com/schmidtw/labscope/trigger"
	"github.com/schmidtw/labscope/views"
	"go.uber.org/zap"
)

// Controller is the part of the pipeline the routes drive.
type Controller interface {
	SetFreezeDisplay(on bool)
	Frozen() bool
	StartLogging(interval, maxEntries int) (scheduler.Session, error)
	StopLogging()
	Logging() (scheduler.State, scheduler.Session)
	SampleDue() bool
	SetTriggerMode(m trigger.Mode)
	SetTriggerLevel(x, y float64)
	SetDisplayMode(m pipeline.DisplayMode) error
	SetSensorMode(m calibrate.SensorMode)
	Modes() (calibrate.SensorMode, pipeline.DisplayMode, trigger.Mode)
	Trigger(channel, stride int) ([]int16, trigger.Result, error)
}

// Routes serves the control and read out endpoints.
type Routes struct {
	Controller Controller
	Board      *display.Board
	Journal    *journal.Journal
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger

	// Interval and MaxEntries are used when a start request leaves them out.
	Interval   int
	MaxEntries int
}

// Handler builds the router.
func (rt Routes) Handler() http.Handler {
	if rt.Logger == nil {
		rt.Logger = zap.NewNop()
	}
	if rt.Gatherer == nil {
		rt.Gatherer = prometheus.DefaultGatherer
	}

	r := mux.NewRouter()

	r.Handle("/", views.Handler()).Methods(http.MethodGet)
	r.Handle("/index.html", views.Handler()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/status", rt.status).Methods(http.MethodGet)
	r.HandleFunc("/readings", rt.readings).Methods(http.MethodGet)
	r.HandleFunc("/readings/stream", rt.stream).Methods(http.MethodGet)
	r.HandleFunc("/session", rt.session).Methods(http.MethodGet)
	r.HandleFunc("/waveform", rt.waveform).Methods(http.MethodGet)

	r.HandleFunc("/logging/start", rt.startLogging).Methods(http.MethodPost)
	r.HandleFunc("/logging/stop", rt.stopLogging).Methods(http.MethodPost)
	r.HandleFunc("/display/freeze", rt.freeze).Methods(http.MethodPost)
	r.HandleFunc("/display/mode", rt.displayMode).Methods(http.MethodPost)
	r.HandleFunc("/sensor", rt.sensorMode).Methods(http.MethodPost)
	r.HandleFunc("/trigger", rt.trigger).Methods(http.MethodPost)

	return r
}

type status struct {
	SensorMode    string            `json:"sensor_mode"`
	DisplayMode   string            `json:"display_mode"`
	TriggerMode   string            `json:"trigger_mode"`
	Frozen        bool              `json:"frozen"`
	Logging       string            `json:"logging"`
	SampleDue     bool              `json:"sample_due"`
	Session       scheduler.Session `json:"session"`
	StreamClients int               `json:"stream_clients"`
}

func (rt Routes) status(w http.ResponseWriter, _ *http.Request) {
	sensor, disp, trig := rt.Controller.Modes()
	state, session := rt.Controller.Logging()

	rt.writeJSON(w, http.StatusOK, status{
		SensorMode:    sensor.String(),
		DisplayMode:   disp.String(),
		TriggerMode:   trig.String(),
		Frozen:        rt.Controller.Frozen(),
		Logging:       state.String(),
		SampleDue:     rt.Controller.SampleDue(),
		Session:       session,
		StreamClients: rt.Board.Subscribers(),
	})
}

func (rt Routes) readings(w http.ResponseWriter, _ *http.Request) {
	rt.writeJSON(w, http.StatusOK, rt.Board.Readings())
}

// rateWindow is how far back the logging rate of a session report looks.
const rateWindow = time.Minute

type sessionReport struct {
	State    string              `json:"state"`
	Session  scheduler.Session   `json:"session"`
	Rate     float64             `json:"rate_per_minute"`
	Entries  []journal.Entry     `json:"entries"`
	Finished []scheduler.Summary `json:"finished"`
}

func (rt Routes) session(w http.ResponseWriter, r *http.Request) {
	state, session := rt.Controller.Logging()

	id := session.ID
	if s := r.URL.Query().Get("id"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		id = v
	}

	report := sessionReport{
		State:    state.String(),
		Session:  session,
		Rate:     rt.Journal.Rate(rateWindow),
		Entries:  rt.Journal.Entries(id),
		Finished: rt.Journal.Sessions(),
	}
	if report.Entries == nil {
		report.Entries = []journal.Entry{}
	}

	rt.writeJSON(w, http.StatusOK, report)
}

type waveform struct {
	Channel  int     `json:"channel"`
	Stride   int     `json:"stride"`
	Samples  []int16 `json:"samples"`
	Position int     `json:"position"`
	Tail     int     `json:"tail"`
	Offset   float64 `json:"offset"`
	Found    bool    `json:"found"`
}

func (rt Routes) waveform(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ch, err := intParam(q.Get("channel"), 0)
	if err != nil {
		http.Error(w, "invalid channel", http.StatusBadRequest)
		return
	}
	stride, err := intParam(q.Get("stride"), 1)
	if err != nil {
		http.Error(w, "invalid stride", http.StatusBadRequest)
		return
	}

	samples, res, err := rt.Controller.Trigger(ch, stride)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pipeline.ErrInvalidChannel) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	rt.writeJSON(w, http.StatusOK, waveform{
		Channel:  ch,
		Stride:   stride,
		Samples:  samples,
		Position: res.Position,
		Tail:     res.Tail,
		Offset:   res.Offset,
		Found:    res.Found,
	})
}

func (rt Routes) startLogging(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	interval, err := intParam(q.Get("interval"), rt.Interval)
	if err != nil {
		http.Error(w, "invalid interval", http.StatusBadRequest)
		return
	}
	maxEntries, err := intParam(q.Get("max"), rt.MaxEntries)
	if err != nil {
		http.Error(w, "invalid max", http.StatusBadRequest)
		return
	}

	session, err := rt.Controller.StartLogging(interval, maxEntries)
	switch {
	case errors.Is(err, scheduler.ErrSessionActive):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rt.Logger.Info("logging requested",
		zap.Uint64("session", session.ID),
		zap.Int("interval", interval),
		zap.Int("max_entries", maxEntries),
	)
	rt.writeJSON(w, http.StatusOK, session)
}

func (rt Routes) stopLogging(w http.ResponseWriter, _ *http.Request) {
	rt.Controller.StopLogging()
	w.WriteHeader(http.StatusNoContent)
}

func (rt Routes) freeze(w http.ResponseWriter, r *http.Request) {
	on := true
	if s := r.URL.Query().Get("on"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "invalid on", http.StatusBadRequest)
			return
		}
		on = v
	}

	rt.Controller.SetFreezeDisplay(on)
	w.WriteHeader(http.StatusNoContent)
}

func (rt Routes) displayMode(w http.ResponseWriter, r *http.Request) {
	m, err := pipeline.ParseDisplayMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := rt.Controller.SetDisplayMode(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt Routes) sensorMode(w http.ResponseWriter, r *http.Request) {
	m, err := calibrate.ParseSensorMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rt.Controller.SetSensorMode(m)
	w.WriteHeader(http.StatusNoContent)
}

func (rt Routes) trigger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Everything is checked before anything is applied.
	ms := q.Get("mode")
	var mode trigger.Mode
	if ms != "" {
		m, err := trigger.ParseMode(ms)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}

	xs, ys := q.Get("x"), q.Get("y")
	level := xs != "" || ys != ""
	var x, y float64
	if level {
		var errX, errY error
		x, errX = strconv.ParseFloat(xs, 64)
		y, errY = strconv.ParseFloat(ys, 64)
		if errX != nil || errY != nil || x < 0 || x > 1 || y < 0 || y > 1 {
			http.Error(w, "x and y must both be within 0 and 1", http.StatusBadRequest)
			return
		}
	}

	if ms != "" {
		rt.Controller.SetTriggerMode(mode)
	}
	if level {
		rt.Controller.SetTriggerLevel(x, y)
	}

	w.WriteHeader(http.StatusNoContent)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// writeJSON encodes v before committing the status so that a value json
// cannot represent becomes a 500 instead of a truncated 200.
func (rt Routes) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		rt.Logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
