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

package trace

import (
	"fmt"
	"hash/crc32"
	"net"

	"github.com/google/gopacket"

	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/core"
	"github.com/sealablab/go-dpd/pkg/layers"
	"github.com/sealablab/go-dpd/pkg/log"
)

// Sender streams decimated per-tick output samples to the configured UDP
// peers. Samples that can not be sent are dropped, the tick loop never
// waits on the network.
type Sender struct {
	decimation int
	seq        uint16
	conn       *net.UDPConn
	peers      []*net.UDPAddr
	ch         chan layers.TraceLayer
}

func NewSender(cfg *config.Config) (*Sender, error) {
	if cfg.Trace == nil || !cfg.Trace.Enabled {
		return nil, nil
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: *cfg.IP})
	if err != nil {
		return nil, err
	}
	s := &Sender{
		decimation: cfg.Trace.Decimation,
		conn:       conn,
		ch:         make(chan layers.TraceLayer, 64),
	}
	if s.decimation <= 0 {
		s.decimation = 1
	}
	for _, peer := range cfg.Trace.Peers {
		udpAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", peer.Address, peer.Port))
		if err != nil {
			return nil, err
		}
		s.peers = append(s.peers, udpAddr)
	}
	go s.run()
	return s, nil
}

// Offer hands one tick's outputs to the sender. Only every Nth tick is
// kept and a full channel drops the sample.
func (s *Sender) Offer(tick uint64, out core.Outputs) {
	if s == nil || tick%uint64(s.decimation) != 0 {
		return
	}
	sample := layers.TraceLayer{
		Tick:      tick,
		Diag:      out.Diag,
		Trigger:   out.Trigger,
		Intensity: out.Intensity,
	}
	select {
	case s.ch <- sample:
	default:
	}
}

func (s *Sender) run() {
	for sample := range s.ch {
		data, err := s.frame(sample)
		if err != nil {
			log.Error("Error while serializing trace frame: %s", err)
			continue
		}
		for _, peer := range s.peers {
			if _, err := s.conn.WriteToUDP(data, peer); err != nil {
				log.Debug("Error while sending trace frame to %s: %s", peer, err)
			}
		}
	}
}

func (s *Sender) frame(sample layers.TraceLayer) ([]byte, error) {
	dl := &layers.DPLinkLayer{}
	dl.Type = layers.DPLinkTypeTrace
	dl.Sync = layers.DPLinkSync
	// 3 words header + 1 word CRC + 5 words sample
	dl.Len = uint16(4 + layers.TraceSampleSize/4)
	dl.Seq = s.seq
	s.seq++
	dl.Src = layers.DPLinkDeviceAddr
	dl.Dst = layers.DPLinkHostAddr

	headerBytes := make([]byte, 12)
	dl.SerializeHeader(headerBytes)
	sampleBytes := make([]byte, layers.TraceSampleSize)
	sample.Serialize(sampleBytes)
	dl.Crc = crc32.ChecksumIEEE(append(headerBytes, sampleBytes...))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, dl, &sample); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Sender) Close() {
	if s == nil {
		return
	}
	close(s.ch)
	s.conn.Close()
}
