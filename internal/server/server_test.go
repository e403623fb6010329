package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
)

func testServer(t *testing.T) (*Server, *params.Store) {
	t.Helper()
	store := params.New(nil)
	eng := engine.New(store, nil)
	return New(store, eng, nil, nil, "test-version"), store
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, path, err)
		}
	}
	return w, decoded
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w, body := doJSON(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["strategy"] != "accelerated" && body["strategy"] != "fallback" {
		t.Errorf("strategy = %v, want accelerated or fallback", body["strategy"])
	}
}

func TestGetParams(t *testing.T) {
	srv, _ := testServer(t)

	w, body := doJSON(t, srv, "GET", "/api/params", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["decayFactor"] != 0.95 {
		t.Errorf("decayFactor = %v, want 0.95", body["decayFactor"])
	}
	if body["batchSize"] != float64(64) {
		t.Errorf("batchSize = %v, want 64", body["batchSize"])
	}
}

func TestPutParamsPartialApplication(t *testing.T) {
	srv, store := testServer(t)

	w, body := doJSON(t, srv, "PUT", "/api/params", `{"decayFactor": 0.9, "batchSize": -1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	applied, ok := body["applied"].([]any)
	if !ok || len(applied) != 1 {
		t.Fatalf("applied = %v, want exactly one change", body["applied"])
	}
	if store.Float(params.KeyDecayFactor) != 0.9 {
		t.Errorf("decayFactor = %v, want 0.9", store.Float(params.KeyDecayFactor))
	}
	if store.Int(params.KeyBatchSize) != 64 {
		t.Errorf("batchSize = %d, want unchanged 64", store.Int(params.KeyBatchSize))
	}
}

func TestPutParamsInvalidJSON(t *testing.T) {
	srv, _ := testServer(t)

	w, _ := doJSON(t, srv, "PUT", "/api/params", `{"decayFactor": `)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestResetParams(t *testing.T) {
	srv, store := testServer(t)
	store.Set(params.KeyDecayFactor, 0.5)

	w, body := doJSON(t, srv, "POST", "/api/params/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	snap, ok := body["params"].(map[string]any)
	if !ok || snap["decayFactor"] != 0.95 {
		t.Errorf("params after reset = %v, want decayFactor 0.95", body["params"])
	}
}

func TestDecayEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w, body := doJSON(t, srv, "POST", "/api/decay", `{"tensions": [1.0, 0.5, 0.005]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	out, ok := body["tensions"].([]any)
	if !ok || len(out) != 3 {
		t.Fatalf("tensions = %v, want 3 values", body["tensions"])
	}
	if out[2] != float64(0) {
		t.Errorf("tensions[2] = %v, want 0 (below noise floor)", out[2])
	}
}

func TestDecayEndpointFactorOverride(t *testing.T) {
	srv, _ := testServer(t)

	w, body := doJSON(t, srv, "POST", "/api/decay", `{"tensions": [2.0], "factor": 0.25}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	out := body["tensions"].([]any)
	if out[0] != 0.5 {
		t.Errorf("tensions[0] = %v, want 0.5", out[0])
	}
}

func TestDecayEndpointRejectsOversizeBatch(t *testing.T) {
	srv, store := testServer(t)
	store.Set(params.KeyMaxTensions, 2)

	w, _ := doJSON(t, srv, "POST", "/api/decay", `{"tensions": [1, 2, 3]}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestBenchEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w, body := doJSON(t, srv, "GET", "/api/bench?n=1000", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body["iterations"] != float64(1000) {
		t.Errorf("iterations = %v, want 1000", body["iterations"])
	}
	if rate, ok := body["rate_per_second"].(float64); !ok || rate <= 0 {
		t.Errorf("rate_per_second = %v, want > 0", body["rate_per_second"])
	}

	w, _ = doJSON(t, srv, "GET", "/api/bench?n=zero", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad n: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestReloadRoutesWithoutChannel(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/api/reload", "/api/dump"} {
		w, body := doJSON(t, srv, "POST", path, "")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("POST %s: status = %d, want %d", path, w.Code, http.StatusServiceUnavailable)
		}
		if body["error"] == "" {
			t.Errorf("POST %s: expected error message in body", path)
		}
	}
}
