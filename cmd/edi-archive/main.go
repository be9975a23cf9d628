// Command edi-archive dials a DAB+/EDI TCP source, decodes it, and
// persists every completed Dynamic Label and MOT slide image into a
// SQLite database. It is the standalone counterpart to setting
// archive.enabled in edireceiver's configuration.
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
	"github.com/ohrstrom/edi-dab/pkg/logger"
	"github.com/ohrstrom/edi-dab/pkg/store"
	"github.com/ohrstrom/edi-dab/pkg/transport"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (optional)")
	addr := flag.String("addr", "", "EDI TCP source address, host:port")
	scid := flag.Int("scid", -1, "Selected subchannel id, 0-63")
	archivePath := flag.String("archive-path", "", "SQLite archive database path")
	logLevel := flag.String("log-level", "", "Logging level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println("edi-archive dev")
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
	if *archivePath != "" {
		cfg.Archive.Path = *archivePath
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	db, err := store.NewDB(store.Config{Path: cfg.Archive.Path}, log.WithComponent("store"))
	if err != nil {
		log.Error("failed to open archive database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	b := bus.New()
	source := edi.NewDabSource(uint8(cfg.Receiver.SCID), b, log.WithComponent("edi"))

	archiver := store.NewArchiver(db, log.WithComponent("store.archiver"))
	unsubscribe := archiver.Subscribe(b)
	defer unsubscribe()

	client := transport.NewClient(cfg.Receiver.Addr, source, log.WithComponent("transport"))
	errChan := make(chan error, 1)
	go func() { errChan <- client.Start(ctx) }()

	log.Info("edi-archive started",
		logger.String("source", cfg.Receiver.Addr),
		logger.String("archive_path", cfg.Archive.Path))

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			log.Error("transport client stopped with error", logger.Error(err))
		}
		cancel()
	}

	log.Info("edi-archive stopped")
}
