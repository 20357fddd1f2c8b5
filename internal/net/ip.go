package net

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// LinkScheme is the scheme of share links handed to students.
const LinkScheme = "classboard"

// HubPath is where the relay accepts websocket connections.
const HubPath = "/ws"

// OutgoingIP finds the address other machines on the LAN can reach us at.
func OutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// No route out; fall back to interface scanning.
		return localIPFallback()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

func localIPFallback() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}
	return "127.0.0.1", nil
}

// ShareLink formats a host address as classboard://host:port.
func ShareLink(addr string) string {
	return LinkScheme + "://" + addr
}

// ParseShareLink accepts a share link or a bare host:port and returns host:port.
func ParseShareLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("empty link")
	}
	if !strings.Contains(link, "://") {
		link = LinkScheme + "://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link: %w", err)
	}
	if u.Scheme != LinkScheme {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return "", fmt.Errorf("link %q needs host and port", link)
	}
	return u.Host, nil
}

// HubURL returns the websocket URL of the hub at addr.
func HubURL(addr string) string {
	return (&url.URL{Scheme: "ws", Host: addr, Path: HubPath}).String()
}
