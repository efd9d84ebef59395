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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	DPLinkHostAddr   = 1
	DPLinkDeviceAddr = 0xd1d0
)

const (
	// DPLinkLayerNum identifies the layer
	DPLinkLayerNum = 2100
	// DPLinkSync is a magic number that appears in the beginning of each DPLink frame
	DPLinkSync = 0x4450
	// DPLinkMaxFrameSize is the max size of a DPLink frame including header and CRC
	DPLinkMaxFrameSize = 1400
	// DPLink header 12 bytes, CRC 4 bytes
	DPLinkMaxPayloadSize = DPLinkMaxFrameSize - 16
)

type DPLinkType uint16

const (
	DPLinkTypeRegRequest  DPLinkType = 0x0101
	DPLinkTypeRegResponse DPLinkType = 0x0102
	DPLinkTypeTrace       DPLinkType = 0x5452
)

// LayerType returns the gopacket layer type carried after the DPLink header
func (t DPLinkType) LayerType() gopacket.LayerType {
	switch t {
	case DPLinkTypeRegRequest, DPLinkTypeRegResponse:
		return RegLayerType
	case DPLinkTypeTrace:
		return TraceLayerType
	}
	return gopacket.LayerTypeZero
}

func (t DPLinkType) String() string {
	switch t {
	case DPLinkTypeRegRequest:
		return "RegRequest"
	case DPLinkTypeRegResponse:
		return "RegResponse"
	case DPLinkTypeTrace:
		return "Trace"
	}
	return "UnknownDPLinkType"
}

type DPLinkHeader struct {
	Type DPLinkType
	Sync uint16
	Seq  uint16
	Len  uint16 // frame length including header, payload and CRC in 4-byte words, NOT bytes
	Src  uint16
	Dst  uint16
}

type DPLinkLayer struct {
	layers.BaseLayer
	DPLinkHeader
	Crc uint32
}

var DPLinkLayerType = gopacket.RegisterLayerType(DPLinkLayerNum,
	gopacket.LayerTypeMetadata{Name: "DPLinkLayerType", Decoder: gopacket.DecodeFunc(DecodeDPLinkLayer)})

func (dl *DPLinkLayer) LayerType() gopacket.LayerType {
	return DPLinkLayerType
}

// SerializeHeader serializes only the DPLink header (not the tail) to a buffer.
// The CRC field covers the whole frame, so upper layers serialize the header
// first, compute the checksum over header plus payload and set Crc before
// calling SerializeTo.
func (dl *DPLinkLayer) SerializeHeader(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(dl.Type))
	binary.LittleEndian.PutUint16(buf[2:4], dl.Sync)
	binary.LittleEndian.PutUint16(buf[4:6], dl.Seq)
	binary.LittleEndian.PutUint16(buf[6:8], dl.Len)
	binary.LittleEndian.PutUint16(buf[8:10], dl.Src)
	binary.LittleEndian.PutUint16(buf[10:12], dl.Dst)
}

// SerializeTo serializes the layer into bytes and writes the bytes to the SerializeBuffer
func (dl *DPLinkLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	headerBytes, err := b.PrependBytes(12)
	if err != nil {
		return err
	}
	dl.SerializeHeader(headerBytes)

	tailBytes, err := b.AppendBytes(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(tailBytes[0:4], dl.Crc)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a DPLink frame
func (dl *DPLinkLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 16 {
		df.SetTruncated()
		return errors.New("DPLink frame too short")
	}

	if binary.LittleEndian.Uint16(data[2:4]) != DPLinkSync {
		return fmt.Errorf("Wrong DPLink sync. Must be 0x%04x", DPLinkSync)
	}

	dl.BaseLayer = layers.BaseLayer{
		Contents: data[0:12],
		Payload:  data[12 : len(data)-4],
	}

	dl.Type = DPLinkType(binary.LittleEndian.Uint16(data[0:2]))
	dl.Sync = binary.LittleEndian.Uint16(data[2:4])
	dl.Seq = binary.LittleEndian.Uint16(data[4:6])
	dl.Len = binary.LittleEndian.Uint16(data[6:8])
	dl.Src = binary.LittleEndian.Uint16(data[8:10])
	dl.Dst = binary.LittleEndian.Uint16(data[10:12])
	dl.Crc = binary.LittleEndian.Uint32(data[len(data)-4:])
	return nil
}

func (dl *DPLinkLayer) NextLayerType() gopacket.LayerType {
	return dl.Type.LayerType()
}

func (dl *DPLinkLayer) CanDecode() gopacket.LayerClass {
	return DPLinkLayerType
}

func DecodeDPLinkLayer(data []byte, p gopacket.PacketBuilder) error {
	dl := &DPLinkLayer{}
	err := dl.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(dl)
	return p.NextDecoder(dl.NextLayerType())
}
