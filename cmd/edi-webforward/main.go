// Command edi-webforward dials a DAB+/EDI TCP source, decodes it, and
// serves the resulting ensemble/PAD/stats events over a WebSocket
// endpoint for dashboard/TUI clients. It is the standalone counterpart
// to enabling -webforward-addr on edireceiver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ohrstrom/edi-dab/pkg/config"
	"github.com/ohrstrom/edi-dab/pkg/edi"
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/eventweb"
	"github.com/ohrstrom/edi-dab/pkg/logger"
	"github.com/ohrstrom/edi-dab/pkg/transport"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (optional)")
	addr := flag.String("addr", "", "EDI TCP source address, host:port")
	scid := flag.Int("scid", -1, "Selected subchannel id, 0-63")
	webforwardAddr := flag.String("webforward-addr", "", "WebSocket forwarder listen address")
	logLevel := flag.String("log-level", "", "Logging level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println("edi-webforward dev")
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Receiver.Addr = *addr
	}
	if *scid >= 0 {
		cfg.Receiver.SCID = *scid
	}
	if *webforwardAddr != "" {
		cfg.WebForward.Addr = *webforwardAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	b := bus.New()
	source := edi.NewDabSource(uint8(cfg.Receiver.SCID), b, log.WithComponent("edi"))

	client := transport.NewClient(cfg.Receiver.Addr, source, log.WithComponent("transport"))
	go func() {
		if err := client.Start(ctx); err != nil && err != context.Canceled {
			log.Error("transport client error", logger.Error(err))
		}
	}()

	forwarder := eventweb.NewServer(cfg.WebForward.Addr, log.WithComponent("eventweb"))
	errChan := make(chan error, 1)
	go func() { errChan <- forwarder.Start(ctx, b) }()

	log.Info("edi-webforward started",
		logger.String("source", cfg.Receiver.Addr),
		logger.String("forward_addr", cfg.WebForward.Addr))

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			log.Error("event forwarder stopped with error", logger.Error(err))
		}
		cancel()
	}

	log.Info("edi-webforward stopped")
}
