// Package config defines ClassBoard's settings and how they are loaded.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ListenAddr is where the host serves the relay hub, e.g. ":8080".
	ListenAddr string `koanf:"listen_addr"`

	// MetricsAddr serves /metrics separately when set; empty shares ListenAddr.
	MetricsAddr string `koanf:"metrics_addr"`

	// Channel is the topic whiteboard events are published on.
	Channel string `koanf:"channel"`

	// Room tags the mDNS advertisement so several classes can share a LAN.
	Room string `koanf:"room"`

	// Discover lets clients find a host over mDNS when no link is given.
	Discover           bool `koanf:"discover"`
	DiscoveryTimeoutMS int  `koanf:"discovery_timeout_ms"`

	// Stroke batching and drag throttling.
	BatchSize       int `koanf:"batch_size"`
	FlushIntervalMS int `koanf:"flush_interval_ms"`
	DragIntervalMS  int `koanf:"drag_interval_ms"`

	// FrameIntervalMS is the delay of a coalesced repaint.
	FrameIntervalMS int `koanf:"frame_interval_ms"`

	// SendQueueSize bounds each connection's outbound queue.
	SendQueueSize int `koanf:"send_queue_size"`

	// Initial toolbar state.
	DefaultColor string  `koanf:"default_color"`
	DefaultSize  float64 `koanf:"default_size"`

	// ExportDir receives PDF snapshots.
	ExportDir string `koanf:"export_dir"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		ListenAddr:         ":8080",
		Channel:            "classroom-whiteboard",
		Room:               "classroom",
		Discover:           true,
		DiscoveryTimeoutMS: 3000,
		BatchSize:          6,
		FlushIntervalMS:    48,
		DragIntervalMS:     60,
		FrameIntervalMS:    16,
		SendQueueSize:      256,
		DefaultColor:       "#f8fafc",
		DefaultSize:        4,
		ExportDir:          ".",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr must not be empty", ErrInvalidConfig)
	case c.Channel == "":
		return fmt.Errorf("%w: channel must not be empty", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	case c.FlushIntervalMS <= 0, c.DragIntervalMS <= 0, c.FrameIntervalMS <= 0:
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	case c.DiscoveryTimeoutMS <= 0:
		return fmt.Errorf("%w: discovery_timeout_ms must be positive", ErrInvalidConfig)
	case c.SendQueueSize <= 0:
		return fmt.Errorf("%w: send_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// FlushInterval returns FlushIntervalMS as a duration.
func (c *Config) FlushInterval() time.Duration { return ms(c.FlushIntervalMS) }

// DragInterval returns DragIntervalMS as a duration.
func (c *Config) DragInterval() time.Duration { return ms(c.DragIntervalMS) }

// FrameInterval returns FrameIntervalMS as a duration.
func (c *Config) FrameInterval() time.Duration { return ms(c.FrameIntervalMS) }

// DiscoveryTimeout returns DiscoveryTimeoutMS as a duration.
func (c *Config) DiscoveryTimeout() time.Duration { return ms(c.DiscoveryTimeoutMS) }
