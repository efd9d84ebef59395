/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package layers

import (
	"hash/crc32"
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/require"
)

func serializeRegFrame(t *testing.T, dl *DPLinkLayer, reg *RegLayer) []byte {
	t.Helper()
	headerBytes := make([]byte, 12)
	dl.SerializeHeader(headerBytes)
	regBytes := make([]byte, len(reg.RegOps)*RegOpSize)
	reg.Serialize(regBytes)
	dl.Crc = crc32.ChecksumIEEE(append(headerBytes, regBytes...))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, dl, reg))
	return buf.Bytes()
}

func TestRegFrameRoundTrip(t *testing.T) {
	dl := &DPLinkLayer{}
	dl.Type = DPLinkTypeRegRequest
	dl.Sync = DPLinkSync
	dl.Seq = 7
	dl.Src = DPLinkHostAddr
	dl.Dst = DPLinkDeviceAddr
	reg := &RegLayer{RegOps: []*RegOp{
		{Read: true, Reg: &Reg{Index: 1}},
		{Reg: &Reg{Index: 2, Value: 0xdeadbeef}},
	}}
	dl.Len = uint16(4 + 2*len(reg.RegOps))

	data := serializeRegFrame(t, dl, reg)
	require.Len(t, data, 12+2*RegOpSize+4)

	packet := gopacket.NewPacket(data, DPLinkLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	gotDl := packet.Layer(DPLinkLayerType).(*DPLinkLayer)
	require.Equal(t, DPLinkTypeRegRequest, gotDl.Type)
	require.Equal(t, uint16(DPLinkSync), gotDl.Sync)
	require.Equal(t, uint16(7), gotDl.Seq)
	require.Equal(t, uint16(8), gotDl.Len)
	require.Equal(t, uint16(DPLinkHostAddr), gotDl.Src)
	require.Equal(t, uint16(DPLinkDeviceAddr), gotDl.Dst)
	require.Equal(t, dl.Crc, gotDl.Crc)

	gotReg := packet.Layer(RegLayerType).(*RegLayer)
	require.Len(t, gotReg.RegOps, 2)
	require.True(t, gotReg.RegOps[0].Read)
	require.Equal(t, uint16(1), gotReg.RegOps[0].Reg.Index)
	require.False(t, gotReg.RegOps[1].Read)
	require.Equal(t, uint16(2), gotReg.RegOps[1].Reg.Index)
	require.Equal(t, uint32(0xdeadbeef), gotReg.RegOps[1].Reg.Value)
}

func TestDPLinkRejectsWrongSync(t *testing.T) {
	dl := &DPLinkLayer{}
	dl.Type = DPLinkTypeRegRequest
	dl.Sync = DPLinkSync
	reg := &RegLayer{RegOps: []*RegOp{{Reg: &Reg{Index: 1, Value: 2}}}}
	data := serializeRegFrame(t, dl, reg)
	data[2] ^= 0xff

	packet := gopacket.NewPacket(data, DPLinkLayerType, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
}

func TestDPLinkRejectsShortFrame(t *testing.T) {
	packet := gopacket.NewPacket(make([]byte, 8), DPLinkLayerType, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
}

func TestTraceFrameRoundTrip(t *testing.T) {
	dl := &DPLinkLayer{}
	dl.Type = DPLinkTypeTrace
	dl.Sync = DPLinkSync
	dl.Len = 4 + TraceSampleSize/4
	tr := &TraceLayer{Tick: 123456789, Diag: -5268, Trigger: 1200, Intensity: 800}

	headerBytes := make([]byte, 12)
	dl.SerializeHeader(headerBytes)
	sampleBytes := make([]byte, TraceSampleSize)
	tr.Serialize(sampleBytes)
	dl.Crc = crc32.ChecksumIEEE(append(headerBytes, sampleBytes...))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, dl, tr))

	packet := gopacket.NewPacket(buf.Bytes(), DPLinkLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	gotTr := packet.Layer(TraceLayerType).(*TraceLayer)
	require.Equal(t, uint64(123456789), gotTr.Tick)
	require.Equal(t, int32(-5268), gotTr.Diag)
	require.Equal(t, int32(1200), gotTr.Trigger)
	require.Equal(t, int32(800), gotTr.Intensity)
}

func TestRegHexRoundTrip(t *testing.T) {
	r := &Reg{Index: 9, Value: 0x0000ffff}
	index, value := r.Hex()
	require.Equal(t, "0x0009", index)
	require.Equal(t, "0x0000ffff", value)

	parsed, err := NewRegFromHex(index, value)
	require.NoError(t, err)
	require.Equal(t, r, parsed)

	parsed, err = NewRegFromHex("12", "255")
	require.NoError(t, err)
	require.Equal(t, uint16(12), parsed.Index)
	require.Equal(t, uint32(255), parsed.Value)

	_, err = NewRegFromHex("nope", "0x1")
	require.Error(t, err)
}
