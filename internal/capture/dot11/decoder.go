// Package dot11 extracts probe requests from captured 802.11 frames.
package dot11

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"wifitracker/internal/logger"
	"wifitracker/pkg/models"
)

// Decode returns the probe request carried by packet. ok is false for any
// other frame.
func Decode(packet gopacket.Packet) (models.ProbeRequest, bool) {
	frame, ok := packet.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	if !ok || frame.Type != layers.Dot11TypeMgmtProbeReq {
		return models.ProbeRequest{}, false
	}

	ts := packet.Metadata().Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	req, err := models.NewProbeRequest(frame.Address2.String(), ts, SSID(packet), SignalStrength(packet))
	if err != nil {
		logger.Debugf("Dropping probe request with bad source address: %v", err)
		return models.ProbeRequest{}, false
	}
	return req, true
}

// SSID returns the SSID information element of a probe request, or "" for
// a wildcard probe. Bytes that are not valid UTF-8 are escaped.
func SSID(packet gopacket.Packet) string {
	probe, ok := packet.Layer(layers.LayerTypeDot11MgmtProbeReq).(*layers.Dot11MgmtProbeReq)
	if !ok {
		return ""
	}
	// The management layer keeps its information elements undecoded. They are
	// walked here directly: Dot11InformationElement.DecodeFromBytes rejects
	// elements with fewer than four bytes following the header, which drops
	// a trailing wildcard SSID.
	data := probe.LayerContents()
	for len(data) >= 2 {
		id := layers.Dot11InformationElementID(data[0])
		end := 2 + int(data[1])
		if end > len(data) {
			logger.Debugf("Truncated information element %d in probe request", id)
			return ""
		}
		if id == layers.Dot11InformationElementIDSSID {
			return printableSSID(data[2:end])
		}
		data = data[end:]
	}
	return ""
}

func printableSSID(info []byte) string {
	s := strings.Trim(string(info), "\x00")
	if !utf8.ValidString(s) {
		q := strconv.QuoteToASCII(s)
		s = q[1 : len(q)-1]
	}
	return s
}

// SignalStrength returns the radiotap antenna signal in dBm, or nil when the
// frame carries none.
func SignalStrength(packet gopacket.Packet) *int {
	rt, ok := packet.Layer(layers.LayerTypeRadioTap).(*layers.RadioTap)
	if !ok || !rt.Present.DBMAntennaSignal() {
		return nil
	}
	v := int(rt.DBMAntennaSignal)
	return &v
}

// Source yields probe requests from a packet stream.
type Source struct {
	packets *gopacket.PacketSource
	closer  io.Closer
}

// NewSource decodes packets of linkType read from src. closer, if not nil,
// is closed by Close.
func NewSource(src gopacket.PacketDataSource, linkType layers.LinkType, closer io.Closer) *Source {
	ps := gopacket.NewPacketSource(src, linkType)
	ps.DecodeOptions.Lazy = true
	return &Source{packets: ps, closer: closer}
}

// OpenFile reads a pcap capture file.
func OpenFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture header: %w", err)
	}
	logger.Infof("Reading capture file %s (link type %s)", path, r.LinkType())
	return NewSource(r, r.LinkType(), f), nil
}

// Next reads the next packet. ok is false when it was not a probe request.
// io.EOF marks the end of the stream.
func (s *Source) Next(ctx context.Context) (models.ProbeRequest, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.ProbeRequest{}, false, err
	}
	packet, err := s.packets.NextPacket()
	if err != nil {
		return models.ProbeRequest{}, false, err
	}
	req, ok := Decode(packet)
	return req, ok, nil
}

// Close releases the underlying capture.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
