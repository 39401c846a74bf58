// Package connectivity answers two questions for the frame loop: can a
// remote image be fetched right now, and is the device on external power.
package connectivity

import (
	"context"
	"strings"

	"github.com/rook-computer/photoframe/internal/system"
)

const (
	// ModeInterfaces inspects local interfaces for a routable address.
	ModeInterfaces = "interfaces"
	// ModeScript asks netinfo.sh for the Wi-Fi and Ethernet addresses.
	ModeScript = "script"

	// ChargerSysfs reads /sys/class/power_supply.
	ChargerSysfs = "sysfs"
	// ChargerAlways treats the device as permanently powered.
	ChargerAlways = "always"
)

type ChargerState int

const (
	Unconnected ChargerState = iota
	Connected
)

func (s ChargerState) String() string {
	if s == Connected {
		return "connected"
	}
	return "unconnected"
}

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

// Monitor reads network reachability and charger state from the host.
type Monitor struct {
	Mode           string
	ChargerMode    string
	PowerSupplyDir string

	Runner system.Runner
	Addrs  system.InterfaceAddrs
	Logger logger
}

func NewMonitor(mode, chargerMode, powerSupplyDir string, r system.Runner, l logger) *Monitor {
	return &Monitor{
		Mode:           mode,
		ChargerMode:    chargerMode,
		PowerSupplyDir: powerSupplyDir,
		Runner:         r,
		Addrs:          system.UpInterfaceAddrs,
		Logger:         l,
	}
}

// IsInternetReachable reports whether a remote fetch is worth attempting.
// Errors count as unreachable.
func (m *Monitor) IsInternetReachable(ctx context.Context) bool {
	if m.Mode == ModeScript {
		return m.scriptReachable(ctx)
	}
	addrs := m.Addrs
	if addrs == nil {
		addrs = system.UpInterfaceAddrs
	}
	list, err := addrs()
	if err != nil {
		m.errorf("list interfaces: %v", err)
		return false
	}
	return system.HasGlobalUnicast(list)
}

func (m *Monitor) scriptReachable(ctx context.Context) bool {
	r := m.Runner
	if r == nil {
		return false
	}
	if ip, err := system.WiFiIPv4(ctx, r); err == nil && strings.TrimSpace(ip) != "" {
		return true
	} else if err != nil {
		m.errorf("%v", err)
	}
	if ip, err := system.EthernetIPv4(ctx, r); err == nil && strings.TrimSpace(ip) != "" {
		return true
	} else if err != nil {
		m.errorf("%v", err)
	}
	return false
}

// ChargerState reports whether external power is present. Read errors
// count as Unconnected.
func (m *Monitor) ChargerState(ctx context.Context) ChargerState {
	if m.ChargerMode == ChargerAlways {
		return Connected
	}
	dir := m.PowerSupplyDir
	if dir == "" {
		dir = "/sys/class/power_supply"
	}
	online, err := system.ExternalPowerOnline(dir)
	if err != nil {
		m.errorf("%v", err)
		return Unconnected
	}
	if online {
		return Connected
	}
	return Unconnected
}

func (m *Monitor) errorf(format string, args ...interface{}) {
	if m.Logger != nil {
		m.Logger.Errorf("connectivity", format, args...)
	}
}
