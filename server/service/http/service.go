// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultReadHeaderTimeout = 5 * time.Second

// Service serves the coordinator API plus the prometheus metrics endpoint.
type Service struct {
	server *http.Server
}

func NewService(port int, api *API) *Service {
	router := api.NewAPIRouter()
	router.Handle("/metrics", promhttp.Handler())

	return &Service{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
		},
	}
}

// Start serves until Stop is called. A clean Stop is not an error.
func (s *Service) Start() error {
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return ErrHTTPServerClose.WithCause(err)
	}
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
