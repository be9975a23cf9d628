package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ohrstrom/edi-dab/pkg/edi"
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
)

func TestNewPrometheusHandler(t *testing.T) {
	if NewPrometheusHandler(NewCollector()) == nil {
		t.Fatal("expected non-nil handler")
	}
}

func TestPrometheusHandler_ServeHTTP(t *testing.T) {
	collector := NewCollector()
	handler := NewPrometheusHandler(collector)

	collector.handle(bus.Event{Kind: bus.KindDabStatsUpdated, Data: edi.DabStats{RxBytes: 1024, RxFrames: 2}})
	collector.handle(bus.Event{Kind: bus.KindAacpFramesExtracted, Data: edi.AacpResult{Frames: [][]byte{{0}}}})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	for _, metric := range []string{
		"edi_rx_bytes_total",
		"edi_rx_frames_total",
		"edi_aacp_frames_extracted_total",
		"edi_ensemble_updates_total",
		"edi_dl_objects_received_total",
		"edi_mot_images_received_total",
	} {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("expected metric %s in output", metric)
		}
	}
}

func TestPrometheusHandler_Format(t *testing.T) {
	collector := NewCollector()
	handler := NewPrometheusHandler(collector)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	body, _ := io.ReadAll(w.Result().Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "# HELP") {
		t.Error("expected # HELP comments in output")
	}
	if !strings.Contains(bodyStr, "# TYPE") {
		t.Error("expected # TYPE comments in output")
	}
}

func TestPrometheusServer(t *testing.T) {
	collector := NewCollector()
	config := PrometheusConfig{Enabled: true, Addr: "127.0.0.1:0", Path: "/metrics"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := NewPrometheusServer(config, collector, nil)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		if err != nil && err != context.Canceled && err != http.ErrServerClosed {
			t.Errorf("unexpected error from server: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("server did not stop in time")
	}
}

func TestPrometheusServer_Disabled(t *testing.T) {
	collector := NewCollector()
	config := PrometheusConfig{Enabled: false}

	server := NewPrometheusServer(config, collector, nil)
	if err := server.Start(context.Background()); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}
