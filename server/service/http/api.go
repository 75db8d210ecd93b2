// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cobaltstor/cobaltmeta/pkg/coderr"
	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/cobaltstor/cobaltmeta/server/cluster"
	"github.com/cobaltstor/cobaltmeta/server/limiter"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type API struct {
	cluster     *cluster.Cluster
	flowLimiter *limiter.FlowLimiter
}

func NewAPI(c *cluster.Cluster, flowLimiter *limiter.FlowLimiter) *API {
	return &API{
		cluster:     c,
		flowLimiter: flowLimiter,
	}
}

func (a *API) NewAPIRouter() *Router {
	router := New().WithPrefix("/api/v1").WithInstrumentation(a.instrument)

	router.Post("/deltas", "applyDeltas", a.applyDeltas)
	router.Get("/stats", "stats", a.stats)
	router.Get("/groups/creating", "creatingGroups", a.creatingGroups)

	return router
}

// instrument logs every request and applies the flow limiter.
func (a *API) instrument(handlerName string, handler http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		log.Info("receive http request",
			zap.String("handlerName", handlerName),
			zap.String("clientHost", request.RemoteAddr),
			zap.String("method", request.Method))

		if a.flowLimiter != nil && !a.flowLimiter.Allow(handlerName) {
			respondError(writer, ErrFlowLimit.WithCausef("handlerName:%s", handlerName))
			return
		}
		handler.ServeHTTP(writer, request)
	}
}

// applyDeltas ingests one binary-encoded delta.
func (a *API) applyDeltas(writer http.ResponseWriter, request *http.Request) {
	body, err := io.ReadAll(request.Body)
	if err != nil {
		respondError(writer, ErrParseRequest.WithCause(err))
		return
	}

	delta, err := pgmap.DecodeDelta(body)
	if err != nil {
		respondError(writer, err)
		return
	}

	if err := a.cluster.ApplyDelta(request.Context(), delta); err != nil {
		log.Error("apply delta failed", zap.Uint64("version", delta.Version), zap.Error(err))
		respondError(writer, err)
		return
	}

	respond(writer, applyDeltasResponse{Version: a.cluster.Map().Version()})
}

func (a *API) stats(writer http.ResponseWriter, _ *http.Request) {
	m := a.cluster.Map()
	agg := m.Aggregates()

	byStatus := make(map[string]int64, len(agg.GroupsByStatus))
	for status, n := range agg.GroupsByStatus {
		byStatus[status.String()] = n
	}

	respond(writer, statsResponse{
		Version:        m.Version(),
		TopologyEpoch:  m.TopologyEpoch(),
		ScanEpoch:      m.ScanEpoch(),
		GroupCount:     agg.GroupCount,
		GroupsByStatus: byStatus,
		GroupBytes:     agg.GroupBytes,
		GroupKB:        agg.GroupKB,
		GroupObjects:   agg.GroupObjects,
		DeviceCount:    agg.DeviceCount,
		DeviceKBTotal:  agg.DeviceKBTotal,
		DeviceKBUsed:   agg.DeviceKBUsed,
		DeviceKBAvail:  agg.DeviceKBAvail,
		DeviceObjects:  agg.DeviceObjects,
	})
}

func (a *API) creatingGroups(writer http.ResponseWriter, _ *http.Request) {
	ids := a.cluster.Map().CreatingGroups()
	respond(writer, creatingGroupsResponse{Groups: ids})
}

type applyDeltasResponse struct {
	Version uint64 `json:"version"`
}

type statsResponse struct {
	Version        uint64           `json:"version"`
	TopologyEpoch  uint32           `json:"topologyEpoch"`
	ScanEpoch      uint32           `json:"scanEpoch"`
	GroupCount     int64            `json:"groupCount"`
	GroupsByStatus map[string]int64 `json:"groupsByStatus"`
	GroupBytes     int64            `json:"groupBytes"`
	GroupKB        int64            `json:"groupKB"`
	GroupObjects   int64            `json:"groupObjects"`
	DeviceCount    int64            `json:"deviceCount"`
	DeviceKBTotal  int64            `json:"deviceKBTotal"`
	DeviceKBUsed   int64            `json:"deviceKBUsed"`
	DeviceKBAvail  int64            `json:"deviceKBAvail"`
	DeviceObjects  int64            `json:"deviceObjects"`
}

type creatingGroupsResponse struct {
	Groups []pgmap.GroupID `json:"groups"`
}

type response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

func respond(writer http.ResponseWriter, data any) {
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(response{Code: int(coderr.Ok), Data: data}); err != nil {
		log.Error("write http response", zap.Error(err))
	}
}

func respondError(writer http.ResponseWriter, err error) {
	code := coderr.Internal
	if cerr, ok := errors.Cause(err).(coderr.CodeError); ok {
		code = cerr.Code()
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(code.ToHTTPCode())
	if err := json.NewEncoder(writer).Encode(response{Code: int(code), Msg: err.Error()}); err != nil {
		log.Error("write http response", zap.Error(err))
	}
}
