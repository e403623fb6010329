package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/brendadeeznuts1111/lattice/internal/params"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"uptime":   time.Since(s.started).Seconds(),
		"strategy": s.engine.Strategy().String(),
	})
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handlePutParams(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	applied := s.store.ApplyBatch(updates)
	s.log.Info("params updated via api", zap.Int("accepted", len(applied)), zap.Int("offered", len(updates)))

	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"offered": len(updates),
	})
}

func (s *Server) handleResetParams(w http.ResponseWriter, r *http.Request) {
	changes := s.store.Reset()
	writeJSON(w, http.StatusOK, map[string]any{
		"reset":  changes,
		"params": s.store.Snapshot(),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.channel == nil {
		writeError(w, http.StatusServiceUnavailable, "no config channel wired")
		return
	}
	if err := s.channel.ReloadNow(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	if s.channel == nil {
		writeError(w, http.StatusServiceUnavailable, "no config channel wired")
		return
	}
	s.channel.DumpNow()
	writeJSON(w, http.StatusOK, map[string]string{"status": "dumped"})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tensions []float32 `json:"tensions"`
		Factor   *float32  `json:"factor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if limit := s.store.Int(params.KeyMaxTensions); limit > 0 && len(req.Tensions) > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "batch exceeds maxTensions")
		return
	}

	var (
		out []float32
		err error
	)
	if req.Factor != nil {
		out, err = s.engine.BatchDecayWith(req.Tensions, *req.Factor)
	} else {
		out, err = s.engine.BatchDecay(req.Tensions)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tensions": out,
		"count":    len(out),
	})
}

func (s *Server) handleBench(w http.ResponseWriter, r *http.Request) {
	n := 100_000
	if q := r.URL.Query().Get("n"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	res, err := s.engine.Benchmark(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
