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

package control

import (
	"context"
	"fmt"
	"hash/crc32"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"

	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/core"
	"github.com/sealablab/go-dpd/pkg/layers"
	"github.com/sealablab/go-dpd/pkg/log"
	"github.com/sealablab/go-dpd/pkg/regs"
	"github.com/sealablab/go-dpd/pkg/srv"
	"github.com/sealablab/go-dpd/pkg/srv/control/ifc"
	"github.com/sealablab/go-dpd/pkg/srv/trace"
)

// ControlServer owns the synchronous core. The tick loop is the only
// goroutine that touches the machine; the UDP transport and the API only
// ever mutate the control word bank, which the loop samples once per tick.
type ControlServer struct {
	srv.Server
	seq uint16

	mu       sync.RWMutex
	bank     regs.Bank
	feedback int16
	snap     core.Snapshot

	machine *core.Core
	state   *RegState
	tracer  *trace.Sender
	api     ifc.ApiServer
}

var _ ifc.ControlServer = &ControlServer{}

// NewControlServer ...
func NewControlServer(ctx context.Context, cfg *config.Config) (ifc.ControlServer, error) {
	log.Debug("Initializing control server with address: %s port: %d", cfg.IP, RegPort)

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.IP, RegPort))
	if err != nil {
		return nil, err
	}

	regState, err := NewRegState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &ControlServer{
		Server: srv.Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChIn:    make(chan srv.InPacket),
			ChOut:   make(chan srv.OutPacket),
		},
		seq:     0,
		machine: core.New(),
		state:   regState,
	}

	if err := regState.Restore(&s.bank); err != nil {
		log.Warning("Could not restore journaled words: %s", err)
	}

	tracer, err := trace.NewSender(cfg)
	if err != nil {
		return nil, err
	}
	s.tracer = tracer

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

func (s *ControlServer) Run() error {
	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}

	defer conn.Close()
	defer s.state.Close()
	defer s.tracer.Close()

	errChan := make(chan error, 1)
	buffer := make([]byte, 65536)

	// Read UDP packets from wire and put them to the input queue
	go func() {
		for {
			length, addr, readErr := conn.ReadFrom(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			udpAddr, readErr := net.ResolveUDPAddr("udp", addr.String())
			if readErr != nil {
				errChan <- readErr
				return
			}

			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{udpAddr},
			}

			s.ChIn <- srv.InPacket{Data: buffer[:length], CaptureInfo: captureInfo}
		}
	}()

	// Read captured packets from the input queue, parse them and apply
	// register ops to the word bank
	go func() {
		source := gopacket.NewPacketSource(s, layers.DPLinkLayerType)
		for packet := range source.Packets() {
			s.handlePacket(packet)
		}
	}()

	// Read packets from the output queue and send them to wire
	go func() {
		for {
			outPacket := <-s.ChOut
			_, sendErr := conn.WriteToUDP(outPacket.Data, outPacket.UDPAddr)
			if sendErr != nil {
				log.Error("Error while sending data to %s", outPacket.UDPAddr)
				errChan <- sendErr
				return
			}
		}
	}()

	go func() {
		errChan <- s.runTickLoop()
	}()

	go func() {
		s.api.Run()
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err = <-errChan:
		return err
	}
}

// runTickLoop drives the core at the configured tick rate
func (s *ControlServer) runTickLoop() error {
	interval := time.Duration(s.Config.TickMicros) * time.Microsecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	log.Info("Starting tick loop: interval: %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.Context.Done():
			return s.Context.Err()
		case <-ticker.C:
			s.mu.Lock()
			in := core.Inputs{Words: s.bank, Feedback: s.feedback}
			out := s.machine.Tick(in)
			s.snap = s.machine.Snapshot()
			tick := s.machine.TickCount()
			s.mu.Unlock()
			s.tracer.Offer(tick, out)
		}
	}
}

func (s *ControlServer) handlePacket(packet gopacket.Packet) {
	udpAddr, err := srv.GetAddrPort(packet)
	if err != nil {
		log.Error(err.Error())
		return
	}
	dplink := packet.Layer(layers.DPLinkLayerType)
	if dplink == nil {
		log.Debug("Drop packet. Not a DPLink frame from %s", udpAddr)
		return
	}
	reg := packet.Layer(layers.RegLayerType)
	if reg == nil {
		return
	}
	regLayer := reg.(*layers.RegLayer)
	var response []*layers.RegOp
	for _, op := range regLayer.RegOps {
		if op.Read {
			value, readErr := s.wordValue(op.Reg.Index)
			if readErr != nil {
				log.Error(readErr.Error())
				continue
			}
			response = append(response, &layers.RegOp{
				Read: true,
				Reg:  &layers.Reg{Index: op.Reg.Index, Value: value},
			})
			continue
		}
		if err := s.WordWrite(op.Reg); err != nil {
			log.Error(err.Error())
		}
	}
	if len(response) > 0 {
		if err := s.regFrame(layers.DPLinkTypeRegResponse, response, udpAddr); err != nil {
			log.Error("Error while sending reg response to %s: %s", udpAddr, err)
		}
	}
}

func (s *ControlServer) NextSeq() uint16 {
	seq := s.seq
	s.seq++
	return seq
}

// regFrame serializes register ops into a DPLink frame and queues it for
// sending
func (s *ControlServer) regFrame(frameType layers.DPLinkType, ops []*layers.RegOp, udpAddr *net.UDPAddr) error {
	dl := &layers.DPLinkLayer{}
	dl.Type = frameType
	dl.Sync = layers.DPLinkSync
	// 3 words for DPLink header + 1 word CRC + 2 words per op
	dl.Len = uint16(4 + 2*len(ops))
	dl.Seq = s.NextSeq()
	dl.Src = layers.DPLinkDeviceAddr
	dl.Dst = layers.DPLinkHostAddr

	headerBytes := make([]byte, 12)
	dl.SerializeHeader(headerBytes)

	reg := &layers.RegLayer{}
	reg.RegOps = ops
	regBytes := make([]byte, len(ops)*layers.RegOpSize)
	reg.Serialize(regBytes)

	dl.Crc = crc32.ChecksumIEEE(append(headerBytes, regBytes...))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	err := gopacket.SerializeLayers(buf, opts, dl, reg)
	if err != nil {
		return err
	}

	s.ChOut <- srv.OutPacket{
		Data:    buf.Bytes(),
		UDPAddr: udpAddr,
	}
	return nil
}

func (s *ControlServer) wordValue(index uint16) (uint32, error) {
	if int(index) >= regs.NumWords {
		return 0, srv.ErrWordIndex{Index: index}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bank[index], nil
}

// WordWrite accepts an external control word write. Writes always land in
// the bank; the core decides when it is safe to look at them.
func (s *ControlServer) WordWrite(reg *layers.Reg) error {
	if int(reg.Index) >= regs.NumWords {
		return srv.ErrWordIndex{Index: reg.Index}
	}
	log.Debug("Writing word: index: %d value: %x", reg.Index, reg.Value)
	s.mu.Lock()
	s.bank[reg.Index] = reg.Value
	s.mu.Unlock()
	return s.state.SetWord(reg.Index, reg.Value)
}

func (s *ControlServer) WordRead(index uint16) (*layers.Reg, error) {
	value, err := s.wordValue(index)
	if err != nil {
		return nil, err
	}
	return &layers.Reg{Index: index, Value: value}, nil
}

func (s *ControlServer) WordReadAll() ([]*layers.Reg, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*layers.Reg, 0, regs.NumWords)
	for i := 0; i < regs.NumWords; i++ {
		all = append(all, &layers.Reg{Index: uint16(i), Value: s.bank[i]})
	}
	return all, nil
}

// CommandUpdate applies a read-modify-write to the command word
func (s *ControlServer) CommandUpdate(update func(regs.Command) regs.Command) error {
	s.mu.Lock()
	cmd := update(regs.DecodeCommand(s.bank[regs.WordCommand]))
	word := cmd.Encode()
	s.bank[regs.WordCommand] = word
	s.mu.Unlock()
	return s.state.SetWord(uint16(regs.WordCommand), word)
}

// SetFeedback injects the analog feedback sample used by the hardware
// trigger comparator and the monitor window
func (s *ControlServer) SetFeedback(value int16) {
	s.mu.Lock()
	s.feedback = value
	s.mu.Unlock()
}

func (s *ControlServer) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
