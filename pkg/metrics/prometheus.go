package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration.
type PrometheusConfig struct {
	Enabled bool
	Addr    string
	Path    string
}

// PrometheusHandler handles Prometheus metrics HTTP requests.
type PrometheusHandler struct {
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler.
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{collector: collector}
}

// ServeHTTP handles HTTP requests for metrics.
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var output strings.Builder

	output.WriteString("# HELP edi_rx_bytes_total Total bytes fed to the EDI decoder\n")
	output.WriteString("# TYPE edi_rx_bytes_total counter\n")
	output.WriteString(fmt.Sprintf("edi_rx_bytes_total %d\n", h.collector.GetRxBytes()))

	output.WriteString("# HELP edi_rx_frames_total Total AF frames received\n")
	output.WriteString("# TYPE edi_rx_frames_total counter\n")
	output.WriteString(fmt.Sprintf("edi_rx_frames_total %d\n", h.collector.GetRxFrames()))

	output.WriteString("# HELP edi_rx_rate Most recently reported receive rate\n")
	output.WriteString("# TYPE edi_rx_rate gauge\n")
	output.WriteString(fmt.Sprintf("edi_rx_rate %d\n", h.collector.GetRxRate()))

	output.WriteString("# HELP edi_aacp_frames_extracted_total Total AAC access units extracted\n")
	output.WriteString("# TYPE edi_aacp_frames_extracted_total counter\n")
	output.WriteString(fmt.Sprintf("edi_aacp_frames_extracted_total %d\n", h.collector.GetAacpFramesExtracted()))

	output.WriteString("# HELP edi_ensemble_updates_total Total ensemble model changes observed\n")
	output.WriteString("# TYPE edi_ensemble_updates_total counter\n")
	output.WriteString(fmt.Sprintf("edi_ensemble_updates_total %d\n", h.collector.GetEnsembleUpdates()))

	output.WriteString("# HELP edi_dl_objects_received_total Total completed Dynamic Label objects\n")
	output.WriteString("# TYPE edi_dl_objects_received_total counter\n")
	output.WriteString(fmt.Sprintf("edi_dl_objects_received_total %d\n", h.collector.GetDlObjectsReceived()))

	output.WriteString("# HELP edi_mot_images_received_total Total completed MOT slide images\n")
	output.WriteString("# TYPE edi_mot_images_received_total counter\n")
	output.WriteString(fmt.Sprintf("edi_mot_images_received_total %d\n", h.collector.GetMotImagesReceived()))

	w.Write([]byte(output.String()))
}

// PrometheusServer is an HTTP server for Prometheus metrics.
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server.
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server; it blocks until ctx is
// canceled or the server fails.
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.server = &http.Server{Handler: mux}

	s.log.Info("Starting Prometheus metrics server",
		logger.String("addr", listener.Addr().String()),
		logger.String("path", s.config.Path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server.
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
