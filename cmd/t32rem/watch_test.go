package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/t32remote/internal/logging"
	"github.com/dshills/t32remote/internal/remote/client"
	"github.com/dshills/t32remote/internal/remote/native/sim"
)

func TestServeMetrics(t *testing.T) {
	var out bytes.Buffer
	a := newApp(&out, &out)
	a.log = logging.Discard()
	a.registry = prometheus.NewRegistry()
	a.metrics = client.NewMetrics(a.registry)

	c := client.New(sim.New(sim.Options{}), client.Options{Logger: a.log, Metrics: a.metrics})
	require.NoError(t, c.Connect(context.Background(), client.RemoteConfig{}, 1))
	require.NoError(t, c.Ping())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := a.serveMetrics(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `t32rem_calls_total{op="T32_Ping"} 1`)
}
