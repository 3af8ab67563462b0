package models

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidMAC is returned for hardware identifiers that cannot be parsed.
var ErrInvalidMAC = errors.New("invalid hardware address")

// NormalizeMAC returns the lower-case, colon-separated form of a hardware address.
func NormalizeMAC(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidMAC)
	}
	hw, err := net.ParseMAC(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMAC, raw)
	}
	return strings.ToLower(hw.String()), nil
}

// OUI returns the manufacturer prefix (first three octets) of a normalized MAC.
func OUI(mac string) string {
	if len(mac) < 8 {
		return mac
	}
	return mac[:8]
}
