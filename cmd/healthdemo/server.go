package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jonwraymond/healthstatus/health"
	"github.com/jonwraymond/healthstatus/observe"
)

// Keys written by the demo service.
const (
	keyPageHits   = "pageHits"
	keyPipeline   = "pipeline"
	keyInstanceID = "instanceId"
	keyVersion    = "version"
)

// server is the demo HTTP surface around a Scheduler.
type server struct {
	sched  *health.Scheduler
	logger observe.Logger

	pageHits atomic.Int64
	inflight atomic.Int64
}

func newServer(sched *health.Scheduler, logger observe.Logger) *server {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &server{sched: sched, logger: logger}
}

// registerProbes registers the demo probes and the static facts.
func (s *server) registerProbes(version string) error {
	if err := s.sched.Register(keyPipeline, s.pipelineProbe); err != nil {
		return err
	}
	if err := s.sched.RegisterChecker(health.NewMemoryChecker(health.MemoryCheckerConfig{})); err != nil {
		return err
	}

	s.sched.Update(keyInstanceID, uuid.NewString())
	s.sched.Update(keyVersion, version)
	s.sched.Update(keyPageHits, int64(0))
	return nil
}

func (s *server) pipelineProbe(context.Context) (any, error) {
	return fmt.Sprintf("There are %d requests in the pipeline", s.inflight.Load()), nil
}

// routes returns the handler serving every demo endpoint.
func (s *server) routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, s.sched)
	mux.HandleFunc("GET /pagehit", s.handlePageHit)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return s.track(mux)
}

func (s *server) handlePageHit(w http.ResponseWriter, r *http.Request) {
	hits := s.pageHits.Add(1)
	s.sched.Update(keyPageHits, hits)
	s.logger.Debug(r.Context(), "page hit", observe.Field{Key: "hits", Value: hits})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{keyPageHits: hits})
}

// track counts requests in flight for the pipeline probe.
func (s *server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.inflight.Add(1)
		defer s.inflight.Add(-1)
		next.ServeHTTP(w, r)
	})
}
