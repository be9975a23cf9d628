package eventweb

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	edibus "github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

func TestHub_New(t *testing.T) {
	if NewHub(logger.New(logger.Config{Level: "info"})) == nil {
		t.Fatal("NewHub returned nil")
	}
}

func TestHub_RunWithBus_EmitWithNoClients(t *testing.T) {
	b := edibus.New()
	hub := NewHub(logger.New(logger.Config{Level: "info"}))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	go hub.RunWithBus(ctx, b)
	time.Sleep(50 * time.Millisecond)

	// Broadcasting with no clients connected must not panic or block.
	b.Emit(edibus.Event{Kind: edibus.KindDabStatsUpdated, Data: map[string]interface{}{"rx_bytes": 10}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
}

func TestHub_Handler(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "info"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b := edibus.New()
	go hub.RunWithBus(ctx, b)
	time.Sleep(50 * time.Millisecond)

	handler := hub.Handler()
	server := httptest.NewServer(handler)
	defer server.Close()

	_ = "ws" + strings.TrimPrefix(server.URL, "http")

	if handler == nil {
		t.Fatal("handler is nil")
	}
}

func TestEvent_Marshal(t *testing.T) {
	event := Event{
		Kind:      "ensemble_updated",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"label": "Test FM"},
	}

	data, err := event.Marshal()
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	if len(data) == 0 {
		t.Error("marshaled data is empty")
	}
	if !strings.Contains(string(data), "ensemble_updated") {
		t.Error("marshaled data doesn't contain event kind")
	}
}
