//go:build !linux

package dot11

import "fmt"

// OpenLive is only available on Linux.
func OpenLive(iface string) (*Source, error) {
	return nil, fmt.Errorf("live capture on %s is not supported on this platform", iface)
}
