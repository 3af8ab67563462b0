//go:build linux

package dot11

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"wifitracker/internal/logger"
)

// OpenLive captures from a monitor-mode interface delivering radiotap frames.
func OpenLive(iface string) (*Source, error) {
	h, err := pcapgo.NewEthernetHandle(iface)
	if err != nil {
		return nil, fmt.Errorf("open interface %s: %w", iface, err)
	}
	logger.Infof("Capturing probe requests on %s", iface)
	return NewSource(h, layers.LinkTypeIEEE80211Radio, closerFunc(func() { h.Close() })), nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
