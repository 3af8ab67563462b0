package dot11

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"
)

var (
	source = []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01}
	bcast  = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// mgmtFrame builds an 802.11 management frame with the given subtype and
// information elements, followed by its FCS.
func mgmtFrame(subtype byte, ies ...[]byte) []byte {
	frame := []byte{subtype << 4, 0x00, 0x00, 0x00}
	frame = append(frame, bcast...)
	frame = append(frame, source...)
	frame = append(frame, bcast...)
	frame = append(frame, 0x10, 0x00)
	for _, ie := range ies {
		frame = append(frame, ie...)
	}
	fcs := make([]byte, 4)
	binary.LittleEndian.PutUint32(fcs, crc32.ChecksumIEEE(frame))
	return append(frame, fcs...)
}

func ssidIE(ssid string) []byte {
	return append([]byte{0x00, byte(len(ssid))}, ssid...)
}

var ratesIE = []byte{0x01, 0x04, 0x02, 0x04, 0x0b, 0x16}

// radiotap prefixes frame with a radiotap header carrying only an antenna
// signal. The header has no FCS flag, so the frame's FCS is dropped.
func radiotap(signal int8, frame []byte) []byte {
	hdr := []byte{0x00, 0x00, 0x09, 0x00, 0x20, 0x00, 0x00, 0x00, byte(signal)}
	return append(hdr, frame[:len(frame)-4]...)
}

func TestDecodeProbeRequest(t *testing.T) {
	ts := time.Date(2016, 4, 1, 12, 0, 0, 0, time.UTC)
	packet := gopacket.NewPacket(mgmtFrame(0x04, ssidIE("CoffeeShop"), ratesIE), layers.LayerTypeDot11, gopacket.Default)
	packet.Metadata().Timestamp = ts

	req, ok := Decode(packet)
	require.True(t, ok)
	require.Equal(t, "aa:bb:cc:dd:ee:01", req.SourceMAC)
	require.Equal(t, "CoffeeShop", req.SSID())
	require.Nil(t, req.SignalStrength)
	require.True(t, req.CaptureTime.Equal(ts))
}

func TestDecodeWildcardProbeWithSignal(t *testing.T) {
	packet := gopacket.NewPacket(radiotap(-61, mgmtFrame(0x04, ssidIE(""), ratesIE)), layers.LayerTypeRadioTap, gopacket.Default)

	req, ok := Decode(packet)
	require.True(t, ok)
	require.Nil(t, req.TargetSSID)
	require.NotNil(t, req.SignalStrength)
	require.Equal(t, -61, *req.SignalStrength)
}

func TestSSIDFollowsOtherElements(t *testing.T) {
	packet := gopacket.NewPacket(mgmtFrame(0x04, ratesIE, ssidIE("Late")), layers.LayerTypeDot11, gopacket.Default)
	require.Equal(t, "Late", SSID(packet))

	trailingWildcard := gopacket.NewPacket(mgmtFrame(0x04, ratesIE, ssidIE("")), layers.LayerTypeDot11, gopacket.Default)
	req, ok := Decode(trailingWildcard)
	require.True(t, ok)
	require.Nil(t, req.TargetSSID)
}

func TestSSIDEscapesInvalidUTF8(t *testing.T) {
	ie := []byte{0x00, 0x04, 'a', 0xff, 'b', 0x00}
	packet := gopacket.NewPacket(mgmtFrame(0x04, ie, ratesIE), layers.LayerTypeDot11, gopacket.Default)
	require.Equal(t, `a\xffb`, SSID(packet))
}

func TestDecodeRadiotapTrailingWildcard(t *testing.T) {
	packet := gopacket.NewPacket(radiotap(-70, mgmtFrame(0x04, ratesIE, ssidIE(""))), layers.LayerTypeRadioTap, gopacket.Default)

	req, ok := Decode(packet)
	require.True(t, ok)
	require.Nil(t, req.TargetSSID)
	require.Equal(t, -70, *req.SignalStrength)
}

func TestSSIDTruncatedElement(t *testing.T) {
	ie := []byte{0x00, 0x20, 'x'}
	packet := gopacket.NewPacket(mgmtFrame(0x04, ie), layers.LayerTypeDot11, gopacket.Default)
	require.Equal(t, "", SSID(packet))
}

func TestDecodeIgnoresOtherFrames(t *testing.T) {
	beacon := gopacket.NewPacket(mgmtFrame(0x08, ssidIE("AP")), layers.LayerTypeDot11, gopacket.Default)
	_, ok := Decode(beacon)
	require.False(t, ok)

	eth := gopacket.NewPacket([]byte{1, 2, 3}, layers.LayerTypeEthernet, gopacket.Default)
	_, ok = Decode(eth)
	require.False(t, ok)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeIEEE80211Radio))

	ts := time.Date(2016, 4, 1, 12, 0, 0, 123456000, time.UTC)
	frames := [][]byte{
		radiotap(-40, mgmtFrame(0x04, ssidIE("Home"), ratesIE)),
		radiotap(-42, mgmtFrame(0x08, ssidIE("Beacon"))),
		radiotap(-44, mgmtFrame(0x04, ssidIE("Work"), ratesIE)),
	}
	for i, data := range frames {
		ci := gopacket.CaptureInfo{Timestamp: ts.Add(time.Duration(i) * time.Second), CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	require.NoError(t, f.Close())

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	var ssids []string
	ctx := context.Background()
	for {
		req, ok, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if !ok {
			continue
		}
		ssids = append(ssids, req.SSID())
		if req.SSID() == "Work" {
			require.True(t, req.CaptureTime.Equal(ts.Add(2*time.Second)))
			require.Equal(t, -44, *req.SignalStrength)
		}
	}
	require.Equal(t, []string{"Home", "Work"}, ssids)
}
