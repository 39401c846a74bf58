package system

import (
	"context"
	"fmt"
	"net"
	"strings"
)

const netInfoScript = "netinfo.sh"

func WiFiIPv4(ctx context.Context, r Runner) (string, error) {
	stdout, stderr, err := r.Run(ctx, netInfoScript, "wifi-ip")
	if err != nil {
		return "", fmt.Errorf("netinfo wifi-ip failed: %v: %s", err, stderr)
	}
	return strings.TrimSpace(stdout), nil
}

func EthernetIPv4(ctx context.Context, r Runner) (string, error) {
	stdout, stderr, err := r.Run(ctx, netInfoScript, "ethernet-ip")
	if err != nil {
		return "", fmt.Errorf("netinfo ethernet-ip failed: %v: %s", err, stderr)
	}
	return strings.TrimSpace(stdout), nil
}

// InterfaceAddrs lists the addresses of every interface that is up.
type InterfaceAddrs func() ([]net.Addr, error)

// UpInterfaceAddrs is the InterfaceAddrs backed by the host network stack.
func UpInterfaceAddrs() ([]net.Addr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, addrs...)
	}
	return out, nil
}

// HasGlobalUnicast reports whether any address is a routable unicast address.
func HasGlobalUnicast(addrs []net.Addr) bool {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}
