package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaireichart/embalse-analysis/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
			ShutdownTimeout: time.Second,
		},
		Upload:  config.UploadConfig{MaxBytes: 1 << 20},
		Logging: config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRouterServesDashboardAndMetrics(t *testing.T) {
	srv := httptest.NewServer(newRouter(testConfig(), zerolog.Nop()))
	defer srv.Close()

	status, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "process_")
}

func TestRouterWithoutMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false

	srv := httptest.NewServer(newRouter(cfg, zerolog.Nop()))
	defer srv.Close()

	status, _ := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig(), zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := testConfig()
	cfg.Server.Port = taken.Addr().(*net.TCPAddr).Port

	err = run(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
