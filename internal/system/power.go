package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// External supply types as reported by /sys/class/power_supply/*/type.
var externalSupplyTypes = map[string]bool{
	"Mains":    true,
	"USB":      true,
	"USB_PD":   true,
	"USB_C":    true,
	"USB_DCP":  true,
	"USB_CDP":  true,
	"Wireless": true,
}

// ExternalPowerOnline reports whether any external power supply under dir
// (normally /sys/class/power_supply) is online.
func ExternalPowerOnline(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read power supplies: %w", err)
	}
	for _, entry := range entries {
		supply := filepath.Join(dir, entry.Name())
		kind, err := readSysfs(filepath.Join(supply, "type"))
		if err != nil || !externalSupplyTypes[kind] {
			continue
		}
		online, err := readSysfs(filepath.Join(supply, "online"))
		if err != nil {
			continue
		}
		if online == "1" {
			return true, nil
		}
	}
	return false, nil
}

func readSysfs(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
