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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// TraceLayerNum identifies the layer
	TraceLayerNum = 2102
	// TraceSampleSize is the wire size of one trace sample in bytes
	TraceSampleSize = 20
)

// TraceLayer carries one per-tick output sample: the diagnostic scalar and
// the two analog-scale outputs
type TraceLayer struct {
	layers.BaseLayer
	Tick      uint64
	Diag      int32
	Trigger   int32
	Intensity int32
}

var TraceLayerType = gopacket.RegisterLayerType(TraceLayerNum,
	gopacket.LayerTypeMetadata{Name: "TraceLayerType", Decoder: gopacket.DecodeFunc(DecodeTraceLayer)})

func (t *TraceLayer) LayerType() gopacket.LayerType {
	return TraceLayerType
}

func (t *TraceLayer) Serialize(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], t.Tick)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(t.Diag))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(t.Trigger))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(t.Intensity))
}

// SerializeTo serializes the trace sample into bytes and writes the bytes to the SerializeBuffer
func (t *TraceLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(TraceSampleSize)
	if err != nil {
		return err
	}
	t.Serialize(bytes)
	return nil
}

func (t *TraceLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < TraceSampleSize {
		df.SetTruncated()
		return errors.New("Trace payload too short")
	}
	t.BaseLayer = layers.BaseLayer{
		Contents: data[:TraceSampleSize],
		Payload:  []byte{},
	}
	t.Tick = binary.LittleEndian.Uint64(data[0:8])
	t.Diag = int32(binary.LittleEndian.Uint32(data[8:12]))
	t.Trigger = int32(binary.LittleEndian.Uint32(data[12:16]))
	t.Intensity = int32(binary.LittleEndian.Uint32(data[16:20]))
	return nil
}

func DecodeTraceLayer(data []byte, p gopacket.PacketBuilder) error {
	t := &TraceLayer{}
	err := t.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(t)
	return nil
}
