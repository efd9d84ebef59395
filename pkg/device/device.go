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

package device

import (
	"fmt"
	"time"

	"github.com/sealablab/go-dpd/pkg/command/ifc"
	"github.com/sealablab/go-dpd/pkg/core"
	"github.com/sealablab/go-dpd/pkg/regs"
)

const (
	// SettleDelay gives the tick loop time to observe a written word
	// before the next protocol step
	SettleDelay = 20 * time.Millisecond
)

// PulseSetup is the client-side view of the application configuration
type PulseSetup struct {
	TrigDuration      uint32
	IntensityDuration uint32
	Cooldown          uint32
	ArmTimeout        uint32
	MonitorDelay      uint16
	MonitorWindow     uint16
	MonitorEnabled    bool
	MonitorPolarity   bool
	AutoRearm         bool
	HwTrigEnabled     bool
	MonitorThreshold  int16
	HwTrigThreshold   int16
	TriggerVolts      int16
	IntensityVolts    int16
}

// Device drives the instrument protocol through the REST API: it encodes
// configuration into control words and sequences the dispatcher handshakes.
type Device struct {
	client ifc.ApiClient
}

func NewDevice(client ifc.ApiClient) *Device {
	return &Device{client: client}
}

func (d *Device) writeWord(alias regs.WordAlias, value uint32) error {
	return d.client.RegWrite(fmt.Sprintf("%d", alias), fmt.Sprintf("0x%08x", value))
}

func (d *Device) writeCommand(cmd regs.Command) error {
	if err := d.writeWord(regs.WordCommand, cmd.Encode()); err != nil {
		return err
	}
	time.Sleep(SettleDelay)
	return nil
}

// WriteSetup pushes the full application configuration into the bank.
// The core latches it on its next Initializing entry, not before.
func (d *Device) WriteSetup(setup PulseSetup) error {
	words := map[regs.WordAlias]uint32{
		regs.WordTrigDuration:      setup.TrigDuration,
		regs.WordIntensityDuration: setup.IntensityDuration,
		regs.WordCooldown:          setup.Cooldown,
		regs.WordArmTimeout:        setup.ArmTimeout,
		regs.WordMonitorTiming: regs.MonitorTiming{
			Delay:  setup.MonitorDelay,
			Window: setup.MonitorWindow,
		}.Encode(),
		regs.WordMonitorFlags: regs.MonitorFlags{
			Enabled:   setup.MonitorEnabled,
			Polarity:  setup.MonitorPolarity,
			AutoRearm: setup.AutoRearm,
			HwTrig:    setup.HwTrigEnabled,
			Threshold: setup.MonitorThreshold,
		}.Encode(),
		regs.WordVoltages: regs.Voltages{
			Trigger:   setup.TriggerVolts,
			Intensity: setup.IntensityVolts,
		}.Encode(),
		regs.WordHwTrigThreshold: uint32(uint16(setup.HwTrigThreshold)),
	}
	for alias, value := range words {
		if err := d.writeWord(alias, value); err != nil {
			return err
		}
	}
	return nil
}

// Enable raises the run gate, bringing the dispatcher out of its disabled
// state
func (d *Device) Enable() error {
	return d.writeCommand(regs.Command{RunReady: true, RunUser: true, RunClock: true})
}

// Disable drops the run gate: full reset
func (d *Device) Disable() error {
	return d.writeCommand(regs.Command{})
}

// StartProgram hands focus to the application controller. One-way: only a
// full reset gets it back.
func (d *Device) StartProgram() error {
	if err := d.Enable(); err != nil {
		return err
	}
	if err := d.writeCommand(regs.Command{
		RunReady: true, RunUser: true, RunClock: true,
		SelectProgram: true,
	}); err != nil {
		return err
	}
	// drop the select bit again, focus has been granted
	return d.Enable()
}

// Load drives a complete loader cycle: it precomputes the expected
// checksum, walks the dispatcher into loader focus, strobes every word and
// returns focus. The caller checks the outcome through Status.
func (d *Device) Load(words []uint32, bufCount int) error {
	if bufCount < 1 || bufCount > core.NumBuffers {
		return fmt.Errorf("Buffer count must be 1..%d", core.NumBuffers)
	}
	if len(words) == 0 || len(words) > core.BufferWords {
		return fmt.Errorf("Word count must be 1..%d", core.BufferWords)
	}

	crc := core.Crc16Words(words)
	// all active buffers receive the same words, so they share the checksum
	pair := regs.CrcPair{Lo: crc, Hi: crc}.Encode()
	if err := d.writeWord(regs.WordLoadCount, uint32(len(words))); err != nil {
		return err
	}
	if err := d.writeWord(regs.WordCrcExpect10, pair); err != nil {
		return err
	}
	if err := d.writeWord(regs.WordCrcExpect32, pair); err != nil {
		return err
	}

	if err := d.Enable(); err != nil {
		return err
	}
	gate := regs.Command{RunReady: true, RunUser: true, RunClock: true, LoaderBufCount: bufCount}
	grant := gate
	grant.SelectLoader = true
	if err := d.writeCommand(grant); err != nil {
		return err
	}
	if err := d.writeCommand(gate); err != nil {
		return err
	}

	for _, word := range words {
		if err := d.writeWord(regs.WordLoadData, word); err != nil {
			return err
		}
		up := gate
		up.LoaderStrobe = true
		if err := d.writeCommand(up); err != nil {
			return err
		}
		// the loader advances on the falling edge
		if err := d.writeCommand(gate); err != nil {
			return err
		}
	}

	ret := gate
	ret.Return = true
	if err := d.writeCommand(ret); err != nil {
		return err
	}
	return d.writeCommand(gate)
}
