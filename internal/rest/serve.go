// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package rest exposes object intensity measurement over HTTP
package rest

import (
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/marcosterland/CellProfiler/internal/labels"
	"github.com/marcosterland/CellProfiler/internal/measure"
	"github.com/marcosterland/CellProfiler/internal/measurements"
	"github.com/marcosterland/CellProfiler/internal/ops"
	_ "github.com/marcosterland/CellProfiler/internal/ops/intensity" // register operators
	"github.com/marcosterland/CellProfiler/web"
	"github.com/rs/zerolog"
)

// The REST server
type Server struct {
	Log        zerolog.Logger
	MaxThreads int
}

func NewServer(log zerolog.Logger) *Server {
	return &Server{Log: log, MaxThreads: runtime.GOMAXPROCS(0)}
}

// Returns the HTTP handler with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/operators", getOperators)
			v1.POST("/measure", s.postMeasure)
			v1.POST("/columns", postColumns)
			v1.POST("/pipeline", s.postPipeline)
		}
	}
	return r
}

// Listens and serves on the given address, e.g. ":8080"
func (s *Server) Serve(addr string) error {
	s.Log.Info().Str("addr", addr).Msg("serving")
	return s.Router().Run(addr)
}

func (s *Server) logRequests(c *gin.Context) {
	c.Next()
	s.Log.Debug().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).Msg("request")
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func getOperators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"operators": ops.GetOperatorTypes()})
}

type postMeasureArgs struct {
	Objects  map[string][][]int32   `json:"objects" binding:"required"`
	Images   map[string][][]float64 `json:"images" binding:"required"`
	Settings *measure.Settings      `json:"settings"` // defaults to all objects against all images
}

// Per-object values by feature name by object set name. NaN is encoded as null
type measureResponse struct {
	Measurements map[string]map[string][]*float64 `json:"measurements"`
	Errors       []string                         `json:"errors,omitempty"`
}

func (s *Server) postMeasure(c *gin.Context) {
	var args postMeasureArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f := frame.NewFrame(0)
	for name, rows := range args.Objects {
		l, err := labels.FromRows(rows)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("objects %s: %s", name, err.Error())})
			return
		}
		f.AddObjects(name, l)
	}
	for name, rows := range args.Images {
		img, err := frame.NewImageFromRows(rows)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("image %s: %s", name, err.Error())})
			return
		}
		f.AddImage(name, img)
	}

	settings := args.Settings
	if settings == nil {
		settings = measure.NewSettings(f.ImageNames(), f.ObjectNames())
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := measure.NewMeasurer(settings, measure.DefaultFeatures())
	m.MaxThreads = s.MaxThreads
	m.Log = s.Log
	var res measureResponse
	if err := m.Run(f, f.Measurements); err != nil {
		res.Errors = splitErrors(err) // failed pairs do not fail the request
	}
	res.Measurements = toJSON(f.Measurements)
	c.JSON(http.StatusOK, res)
}

func toJSON(store *measurements.Store) map[string]map[string][]*float64 {
	out := make(map[string]map[string][]*float64)
	for _, o := range store.ObjectNames() {
		features := make(map[string][]*float64)
		for _, name := range store.FeatureNames(o) {
			values, _ := store.Read(o, name)
			features[name] = nullNaNs(values)
		}
		out[o] = features
	}
	return out
}

func nullNaNs(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}

func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		sort.Strings(msgs)
		return msgs
	}
	return []string{err.Error()}
}

func postColumns(c *gin.Context) {
	var settings measure.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := measure.NewMeasurer(&settings, measure.DefaultFeatures())
	c.JSON(http.StatusOK, gin.H{"columns": m.GetMeasurementColumns()})
}

// Runs an operator pipeline given as JSON, streaming the log as text
func (s *Server) postPipeline(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err := ops.UnmarshalOperator(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter := c.Writer
	logWriter.Header().Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	log := zerolog.New(zerolog.ConsoleWriter{Out: zerolog.SyncWriter(logWriter), NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}})
	ctx := ops.NewContext(log)
	ctx.MaxThreads = s.MaxThreads
	ctx.RestrictedPaths = true

	frames, err := ops.Run(op, ctx)
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed")
	}
	log.Info().Int("frames", len(frames)).Msg("pipeline done")
	logWriter.Flush()
}
