package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"nmwatch/config"
	"nmwatch/logging"
	"nmwatch/metrics"
	"nmwatch/mqttsink"
	"nmwatch/netstate"
	"nmwatch/networkmanager"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("nmwatch", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nmwatch: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging, version)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("nmwatch stopped")
	}
	log.Info("shut down")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("nmwatch")
		srv := metrics.NewServer(cfg.Metrics.Address, m, logging.Component(log, "metrics"))
		srv.StartAsync()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			if err := srv.Stop(stopCtx); err != nil {
				log.WithError(err).Warn("metrics server shutdown")
			}
		}()
	}

	session, err := networkmanager.Connect(logging.Component(log, "dbus"))
	if err != nil {
		return err
	}
	defer session.Close()

	client := netstate.NewClient(netstate.SessionBus(session),
		netstate.WithLogger(logging.Component(log, "netstate")),
		netstate.WithMetrics(m),
	)

	if cfg.MQTT.Enabled {
		sink, err := mqttsink.Connect(cfg.MQTT, logging.Component(log, "mqtt"))
		if err != nil {
			return err
		}
		defer sink.Close()

		sub := client.Subscribe()
		defer sub.Close()
		go sink.Run(ctx, sub)
	}

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	sub := client.Subscribe()
	defer sub.Close()
	r := newRenderer(os.Stdout, cfg.Display)

	for {
		select {
		case err := <-done:
			return err
		case st := <-sub.C():
			if st.IsZero() {
				// Nothing aggregated yet.
				continue
			}
			if err := r.write(st); err != nil {
				return fmt.Errorf("writing state: %w", err)
			}
		}
	}
}
