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
	"fmt"
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RegLayerNum identifies the layer
	RegLayerNum = 2101
	// RegOpSize is the wire size of one register operation in bytes
	RegOpSize = 8
)

// Reg is one control word: a bank index and a 32-bit value
type Reg struct {
	Index uint16
	Value uint32
}

func (r *Reg) Hex() (string, string) {
	return fmt.Sprintf("0x%04x", r.Index), fmt.Sprintf("0x%08x", r.Value)
}

func NewRegFromHex(index, value string) (*Reg, error) {
	parsedIndex, err := strconv.ParseUint(index, 0, 16)
	if err != nil {
		return nil, err
	}
	parsedValue, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return nil, err
	}
	return &Reg{
		Index: uint16(parsedIndex),
		Value: uint32(parsedValue),
	}, nil
}

// RegOp is a single read or write of one control word.
// For reads the value is ignored on request and filled in on response.
type RegOp struct {
	Read bool
	Reg  *Reg
}

type RegLayer struct {
	layers.BaseLayer
	RegOps []*RegOp
}

var RegLayerType = gopacket.RegisterLayerType(RegLayerNum,
	gopacket.LayerTypeMetadata{Name: "RegLayerType", Decoder: gopacket.DecodeFunc(DecodeRegLayer)})

func (reg *RegLayer) LayerType() gopacket.LayerType {
	return RegLayerType
}

// Serialize serializes the ops to a buffer. Kept separate from SerializeTo
// because the DPLink CRC depends on the payload bytes and is computed in
// the upper layer before the frame is assembled.
func (reg *RegLayer) Serialize(buf []byte) {
	for i, op := range reg.RegOps {
		head := uint32(op.Reg.Index) & 0x7fff
		if op.Read {
			head |= 0x80000000
		}
		binary.LittleEndian.PutUint32(buf[i*RegOpSize:i*RegOpSize+4], head)
		binary.LittleEndian.PutUint32(buf[i*RegOpSize+4:i*RegOpSize+8], op.Reg.Value)
	}
}

// SerializeTo serializes the register ops into bytes and writes the bytes to the SerializeBuffer
func (reg *RegLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(reg.RegOps) * RegOpSize)
	if err != nil {
		return err
	}
	reg.Serialize(bytes)
	return nil
}

func (reg *RegLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data)%RegOpSize != 0 {
		return fmt.Errorf("Reg payload length must be a multiple of %d bytes", RegOpSize)
	}
	reg.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	reg.RegOps = nil
	for i := 0; i < len(data); i += RegOpSize {
		head := binary.LittleEndian.Uint32(data[i : i+4])
		value := binary.LittleEndian.Uint32(data[i+4 : i+8])
		reg.RegOps = append(reg.RegOps, &RegOp{
			Read: head&0x80000000 != 0,
			Reg: &Reg{
				Index: uint16(head & 0x7fff),
				Value: value,
			},
		})
	}
	return nil
}

func DecodeRegLayer(data []byte, p gopacket.PacketBuilder) error {
	reg := &RegLayer{}
	err := reg.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(reg)
	return nil
}
