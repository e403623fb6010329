package client

import (
	"net/http/httptest"
	"testing"

	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
	"github.com/brendadeeznuts1111/lattice/internal/server"
)

func testClient(t *testing.T) (*Client, *params.Store) {
	t.Helper()
	store := params.New(nil)
	eng := engine.New(store, nil)
	srv := httptest.NewServer(server.New(store, eng, nil, nil, "test"))
	t.Cleanup(srv.Close)

	c := New()
	c.serverURL = srv.URL
	return c, store
}

func TestParams(t *testing.T) {
	c, _ := testClient(t)

	snap, err := c.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if snap["decayFactor"] != 0.95 {
		t.Errorf("decayFactor = %v, want 0.95", snap["decayFactor"])
	}
}

func TestApplyReportsAcceptedCount(t *testing.T) {
	c, store := testClient(t)

	accepted, err := c.Apply(map[string]any{
		"decayFactor": 0.9,
		"batchSize":   -1,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
	if got := store.Float(params.KeyDecayFactor); got != 0.9 {
		t.Errorf("decayFactor = %v, want 0.9", got)
	}
}

func TestReloadWithoutChannelSurfacesError(t *testing.T) {
	c, _ := testClient(t)

	if err := c.Reload(); err == nil {
		t.Error("expected error from server with no config channel")
	}
	if err := c.Dump(); err == nil {
		t.Error("expected error from server with no config channel")
	}
}
