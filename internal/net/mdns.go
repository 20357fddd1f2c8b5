package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service hosts advertise.
const ServiceType = "_classboard._tcp"

const roomKey = "room="

// Advertisement is a running mDNS responder.
type Advertisement struct {
	server *mdns.Server
}

// Shutdown stops answering queries.
func (a *Advertisement) Shutdown() error {
	return a.server.Shutdown()
}

// Advertise announces a hub listening on port, tagged with room.
func Advertise(port int, room string) (*Advertisement, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	info := []string{"ClassBoard", roomKey + room}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Host is an advertised hub found on the LAN.
type Host struct {
	Name string
	Addr string
	Room string
}

// Browse queries the LAN for hubs until timeout elapses or ctx is done.
// When room is non-empty only hubs advertising that room are returned.
func Browse(ctx context.Context, room string, timeout time.Duration) ([]Host, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errCh := make(chan error, 1)
	go func() {
		errCh <- mdns.Query(params)
		close(entries)
	}()

	var hosts []Host
	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return hosts, ctx.Err()
		case e, ok := <-entries:
			if !ok {
				if err := <-errCh; err != nil {
					return hosts, fmt.Errorf("mdns query: %w", err)
				}
				return hosts, nil
			}
			h, ok := hostOf(e)
			if !ok || seen[h.Addr] || (room != "" && h.Room != room) {
				continue
			}
			seen[h.Addr] = true
			hosts = append(hosts, h)
		}
	}
}

// Discover returns the first hub found for room.
func Discover(ctx context.Context, room string, timeout time.Duration) (Host, error) {
	hosts, err := Browse(ctx, room, timeout)
	if err != nil && len(hosts) == 0 {
		return Host{}, err
	}
	if len(hosts) == 0 {
		return Host{}, ErrNoHostFound
	}
	return hosts[0], nil
}

func hostOf(e *mdns.ServiceEntry) (Host, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Host{}, false
	}
	h := Host{
		Name: e.Host,
		Addr: net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)),
	}
	for _, field := range e.InfoFields {
		if strings.HasPrefix(field, roomKey) {
			h.Room = strings.TrimPrefix(field, roomKey)
		}
	}
	return h, true
}
