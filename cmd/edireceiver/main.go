// Command edireceiver dials a DAB+/EDI TCP source, decodes it, and
// publishes ensemble/PAD/stats events on an in-process bus that the
// edi-webforward and edi-archive consumers (or any other subscriber)
// can observe.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ohrstrom/edi-dab/pkg/config"
	"github.com/ohrstrom/edi-dab/pkg/edi"
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/edi/ensemble"
	"github.com/ohrstrom/edi-dab/pkg/eventweb"
	"github.com/ohrstrom/edi-dab/pkg/logger"
	"github.com/ohrstrom/edi-dab/pkg/metrics"
	"github.com/ohrstrom/edi-dab/pkg/store"
	"github.com/ohrstrom/edi-dab/pkg/transport"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (optional)")
	addr := flag.String("addr", "", "EDI TCP source address, host:port")
	scid := flag.Int("scid", -1, "Selected subchannel id, 0-63")
	sid := flag.Int("sid", -1, "Selected service id (mutually exclusive with -scid)")
	logLevel := flag.String("log-level", "", "Logging level: debug, info, warn, error")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address")
	webforwardAddr := flag.String("webforward-addr", "", "WebSocket forwarder listen address")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("edireceiver %s (%s)\n", version, gitCommit)
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
	if *sid >= 0 {
		cfg.Receiver.SID = *sid
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
		cfg.Metrics.Enabled = true
	}
	if *webforwardAddr != "" {
		cfg.WebForward.Addr = *webforwardAddr
		cfg.WebForward.Enabled = true
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("starting edireceiver",
		logger.String("version", version),
		logger.String("addr", cfg.Receiver.Addr),
		logger.Int("scid", cfg.Receiver.SCID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	b := bus.New()
	source := edi.NewDabSource(uint8(cfg.Receiver.SCID), b, log.WithComponent("edi"))

	if cfg.Receiver.SID != 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolveServiceSCID(ctx, b, source, cfg.Receiver.SID, log.WithComponent("edi"))
		}()
	}

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		stopCollector := collector.Subscribe(b)
		defer stopCollector()

		metricsServer := metrics.NewPrometheusServer(
			metrics.PrometheusConfig{Enabled: true, Addr: cfg.Metrics.Addr, Path: cfg.Metrics.Path},
			collector,
			log.WithComponent("metrics"),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("metrics server error", logger.Error(err))
			}
		}()
		log.Info("metrics server started", logger.String("addr", cfg.Metrics.Addr))
	}

	if cfg.WebForward.Enabled {
		forwarder := eventweb.NewServer(cfg.WebForward.Addr, log.WithComponent("eventweb"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := forwarder.Start(ctx, b); err != nil && err != context.Canceled {
				log.Error("event forwarder error", logger.Error(err))
			}
		}()
		log.Info("event forwarder started", logger.String("addr", cfg.WebForward.Addr))
	}

	if cfg.Archive.Enabled {
		db, err := store.NewDB(store.Config{Path: cfg.Archive.Path}, log.WithComponent("store"))
		if err != nil {
			log.Error("failed to open archive database", logger.Error(err))
			os.Exit(1)
		}
		defer db.Close()

		archiver := store.NewArchiver(db, log.WithComponent("store.archiver"))
		stopArchiver := archiver.Subscribe(b)
		defer stopArchiver()
		log.Info("archive enabled", logger.String("path", cfg.Archive.Path))
	}

	client := transport.NewClient(cfg.Receiver.Addr, source, log.WithComponent("transport"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := client.Start(ctx); err != nil && err != context.Canceled {
			log.Error("transport client error", logger.Error(err))
		}
	}()

	sig := <-sigChan
	log.Info("received shutdown signal", logger.String("signal", sig.String()))
	cancel()
	wg.Wait()
	log.Info("edireceiver stopped")
}

// resolveServiceSCID watches EnsembleUpdated events until the requested
// service id shows up in the ensemble's FIG 0/2 data, then switches the
// source to the subchannel carrying that service and returns. It lets an
// operator select a service by sid instead of already knowing its scid.
func resolveServiceSCID(ctx context.Context, b *bus.Bus, source *edi.DabSource, sid int, log *logger.Logger) {
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind != bus.KindEnsembleUpdated {
				continue
			}
			ens, ok := ev.Data.(*ensemble.Ensemble)
			if !ok {
				continue
			}
			scid, found := ens.ServiceSCID(uint16(sid))
			if !found {
				continue
			}
			log.Info("resolved service id to subchannel",
				logger.Int("sid", sid), logger.Uint("scid", uint(scid)))
			source.SetSCID(scid)
			return
		}
	}
}
