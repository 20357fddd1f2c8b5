// Command relay runs a headless hub: it fans whiteboard messages out to
// every connected participant and advertises itself over mDNS.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"ClassBoard/internal/config"
	"ClassBoard/internal/net"
	"ClassBoard/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.Named("relay")

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "unknown log level", logger.String("level", cfg.LogLevel))
	}

	hub := net.NewHub(net.WithQueueSize(cfg.SendQueueSize), net.WithHubLogger(log.Named("hub")))
	srv, err := net.Listen(cfg.ListenAddr, hub)
	if err != nil {
		log.Fatal(ctx, "failed to listen", logger.Error(err))
	}

	adv, err := net.Advertise(srv.Port(), cfg.Room)
	if err != nil {
		log.Warn(ctx, "mDNS advertisement unavailable", logger.Error(err))
	} else {
		defer func() { _ = adv.Shutdown() }()
	}

	if ip, err := net.OutgoingIP(); err == nil {
		log.Info(ctx, "relay ready",
			logger.String("room", cfg.Room),
			logger.String("link", net.ShareLink(ip+":"+strconv.Itoa(srv.Port()))),
		)
	}

	if err := srv.Serve(ctx); err != nil {
		log.Error(ctx, "relay stopped", logger.Error(err))
	}
}
