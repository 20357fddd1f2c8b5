package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/config"
	"ClassBoard/internal/net"
	"ClassBoard/internal/raster"
	"ClassBoard/internal/state"
	"ClassBoard/internal/ui"
	"ClassBoard/internal/whiteboard"
	"ClassBoard/pkg/logger"
	"ClassBoard/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// connection is how this process reaches the rest of the class.
type connection struct {
	channel      whiteboard.Channel
	shareLink    string
	disconnected <-chan struct{}
	close        func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.Named("main")

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "unknown log level", logger.String("level", cfg.LogLevel))
	}
	serveMetrics(ctx, cfg.MetricsAddr, log)

	var link string
	if len(os.Args) > 1 {
		link = os.Args[1]
	}
	if link == "" && cfg.Discover {
		link = discover(ctx, cfg, log)
	}

	var conn *connection
	if link != "" {
		conn, err = runClient(ctx, cfg, link, log)
	} else {
		conn, err = runHost(ctx, cfg, log)
	}
	if err != nil {
		log.Fatal(ctx, "failed to connect", logger.Error(err))
	}
	defer conn.close()

	surface := raster.NewSurface(1, 1)
	wb := whiteboard.New(surface,
		whiteboard.WithChannel(conn.channel, cfg.Channel),
		whiteboard.WithFrameInterval(cfg.FrameInterval()),
		whiteboard.WithCapture(
			capture.WithBatchSize(cfg.BatchSize),
			capture.WithFlushInterval(cfg.FlushInterval()),
			capture.WithDragInterval(cfg.DragInterval()),
			capture.WithColor(cfg.DefaultColor),
			capture.WithSize(cfg.DefaultSize),
		),
	)
	if err := wb.Start(ctx); err != nil {
		log.Fatal(ctx, "failed to start whiteboard", logger.Error(err))
	}
	defer wb.Close()

	ui.Run(ctx, wb, surface, ui.Options{
		Title:        "ClassBoard",
		ShareLink:    conn.shareLink,
		ExportDir:    cfg.ExportDir,
		Disconnected: conn.disconnected,
	})
}

// discover looks for a host in the configured room. An empty result means
// this process should host.
func discover(ctx context.Context, cfg *config.Config, log logger.Logger) string {
	host, err := net.Discover(ctx, cfg.Room, cfg.DiscoveryTimeout())
	if err != nil {
		if !errors.Is(err, net.ErrNoHostFound) {
			log.Warn(ctx, "mDNS discovery failed", logger.Error(err))
		}
		return ""
	}
	log.Info(ctx, "found host", logger.String("name", host.Name), logger.String("addr", host.Addr))
	return net.ShareLink(host.Addr)
}

func runHost(ctx context.Context, cfg *config.Config, log logger.Logger) (*connection, error) {
	log.Info(ctx, "starting as host", logger.String("room", cfg.Room))
	hub := net.NewHub(net.WithQueueSize(cfg.SendQueueSize))
	srv, err := net.Listen(cfg.ListenAddr, hub)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Error(ctx, "hub server stopped", logger.Error(err))
		}
	}()

	adv, err := net.Advertise(srv.Port(), cfg.Room)
	if err != nil {
		log.Warn(ctx, "mDNS advertisement unavailable", logger.Error(err))
	}

	ip, err := net.OutgoingIP()
	if err != nil {
		log.Warn(ctx, "could not determine LAN address", logger.Error(err))
		ip = "127.0.0.1"
	}
	share := net.ShareLink(ip + ":" + strconv.Itoa(srv.Port()))
	log.Info(ctx, "share this link", logger.String("link", share))

	peer, err := hub.Join(state.SiteID())
	if err != nil {
		return nil, err
	}
	return &connection{
		channel:   peer,
		shareLink: share,
		close: func() {
			_ = peer.Close()
			if adv != nil {
				_ = adv.Shutdown()
			}
			hub.Close()
		},
	}, nil
}

func runClient(ctx context.Context, cfg *config.Config, link string, log logger.Logger) (*connection, error) {
	addr, err := net.ParseShareLink(link)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "starting as client", logger.String("host", addr))

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	session, err := net.Dial(dialCtx, net.HubURL(addr),
		net.WithSender(state.SiteID()),
		net.WithSendQueue(cfg.SendQueueSize),
	)
	if err != nil {
		return nil, err
	}
	return &connection{
		channel:      session,
		shareLink:    net.ShareLink(addr),
		disconnected: session.Done(),
		close:        func() { _ = session.Close() },
	}, nil
}

// serveMetrics exposes /metrics on a separate address when one is set.
func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server stopped", logger.Error(err))
		}
	}()
	context.AfterFunc(ctx, func() { _ = srv.Close() })
}
