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

package regs

// NumWords is the size of the externally writable control word bank.
// Word 0 carries the command bits, the rest carry configuration values.
const NumWords = 16

type WordAlias int

const (
	WordCommand WordAlias = iota
	WordTrigDuration
	WordIntensityDuration
	WordCooldown
	WordArmTimeout
	WordMonitorTiming
	WordMonitorFlags
	WordVoltages
	WordHwTrigThreshold
	WordLoadCount
	WordCrcExpect10
	WordCrcExpect32
	WordLoadData
	WordReserved13
	WordReserved14
	WordReserved15
	WordAliasLimit
)

var WordNames = map[WordAlias]string{
	WordCommand:           "command",
	WordTrigDuration:      "trig_duration",
	WordIntensityDuration: "intensity_duration",
	WordCooldown:          "cooldown",
	WordArmTimeout:        "arm_timeout",
	WordMonitorTiming:     "monitor_timing",
	WordMonitorFlags:      "monitor_flags",
	WordVoltages:          "voltages",
	WordHwTrigThreshold:   "hw_trig_threshold",
	WordLoadCount:         "load_count",
	WordCrcExpect10:       "crc_expect_10",
	WordCrcExpect32:       "crc_expect_32",
	WordLoadData:          "load_data",
	WordReserved13:        "reserved13",
	WordReserved14:        "reserved14",
	WordReserved15:        "reserved15",
}

// Bank is one tick's sample of the control words. The external client is
// the only writer, the core only ever reads it.
type Bank [NumWords]uint32

// Command is the decoded view of word 0
type Command struct {
	RunReady  bool
	RunUser   bool
	RunClock  bool

	SelectProgram bool
	SelectDiag    bool
	SelectLoader  bool
	SelectReset   bool

	Return bool

	LoaderBufCount int // 1..4
	LoaderStrobe   bool

	Arm         bool
	FaultClear  bool
	SoftTrigger bool
}

const (
	cmdBitRunReady  = 31
	cmdBitRunUser   = 30
	cmdBitRunClock  = 29
	cmdBitSelProg   = 28
	cmdBitSelDiag   = 27
	cmdBitSelLoader = 26
	cmdBitSelReset  = 25
	cmdBitReturn    = 24
	cmdBitBufCount  = 22 // bits 23:22
	cmdBitStrobe    = 21
	cmdBitArm       = 2
	cmdBitClear     = 1
	cmdBitSoftTrig  = 0
)

func bit(word uint32, n uint) bool {
	return word&(1<<n) != 0
}

// DecodeCommand unpacks word 0 into its named fields
func DecodeCommand(word uint32) Command {
	return Command{
		RunReady:       bit(word, cmdBitRunReady),
		RunUser:        bit(word, cmdBitRunUser),
		RunClock:       bit(word, cmdBitRunClock),
		SelectProgram:  bit(word, cmdBitSelProg),
		SelectDiag:     bit(word, cmdBitSelDiag),
		SelectLoader:   bit(word, cmdBitSelLoader),
		SelectReset:    bit(word, cmdBitSelReset),
		Return:         bit(word, cmdBitReturn),
		LoaderBufCount: int((word>>cmdBitBufCount)&0x3) + 1,
		LoaderStrobe:   bit(word, cmdBitStrobe),
		Arm:            bit(word, cmdBitArm),
		FaultClear:     bit(word, cmdBitClear),
		SoftTrigger:    bit(word, cmdBitSoftTrig),
	}
}

// Encode packs the command back into word 0 form. The CLI and the script
// harness build command words through this instead of shifting bits inline.
func (c Command) Encode() uint32 {
	var word uint32
	set := func(on bool, n uint) {
		if on {
			word |= 1 << n
		}
	}
	set(c.RunReady, cmdBitRunReady)
	set(c.RunUser, cmdBitRunUser)
	set(c.RunClock, cmdBitRunClock)
	set(c.SelectProgram, cmdBitSelProg)
	set(c.SelectDiag, cmdBitSelDiag)
	set(c.SelectLoader, cmdBitSelLoader)
	set(c.SelectReset, cmdBitSelReset)
	set(c.Return, cmdBitReturn)
	if c.LoaderBufCount > 0 {
		word |= uint32((c.LoaderBufCount-1)&0x3) << cmdBitBufCount
	}
	set(c.LoaderStrobe, cmdBitStrobe)
	set(c.Arm, cmdBitArm)
	set(c.FaultClear, cmdBitClear)
	set(c.SoftTrigger, cmdBitSoftTrig)
	return word
}

// RunGate reports whether all three run bits are asserted
func (c Command) RunGate() bool {
	return c.RunReady && c.RunUser && c.RunClock
}

// SelectCount counts asserted module-select bits. More than one is an
// invalid command.
func (c Command) SelectCount() int {
	n := 0
	for _, b := range []bool{c.SelectProgram, c.SelectDiag, c.SelectLoader, c.SelectReset} {
		if b {
			n++
		}
	}
	return n
}

// MonitorFlags is the decoded view of word 6
type MonitorFlags struct {
	Enabled   bool
	Polarity  bool // true: triggered when feedback >= threshold, false: <=
	AutoRearm bool
	HwTrig    bool
	Threshold int16
}

const (
	monBitEnabled   = 31
	monBitPolarity  = 30
	monBitAutoRearm = 29
	monBitHwTrig    = 28
)

func DecodeMonitorFlags(word uint32) MonitorFlags {
	return MonitorFlags{
		Enabled:   bit(word, monBitEnabled),
		Polarity:  bit(word, monBitPolarity),
		AutoRearm: bit(word, monBitAutoRearm),
		HwTrig:    bit(word, monBitHwTrig),
		Threshold: int16(word & 0xffff),
	}
}

func (m MonitorFlags) Encode() uint32 {
	var word uint32
	if m.Enabled {
		word |= 1 << monBitEnabled
	}
	if m.Polarity {
		word |= 1 << monBitPolarity
	}
	if m.AutoRearm {
		word |= 1 << monBitAutoRearm
	}
	if m.HwTrig {
		word |= 1 << monBitHwTrig
	}
	word |= uint32(uint16(m.Threshold))
	return word
}

// MonitorTiming is the decoded view of word 5
type MonitorTiming struct {
	Delay  uint16
	Window uint16
}

func DecodeMonitorTiming(word uint32) MonitorTiming {
	return MonitorTiming{
		Delay:  uint16(word >> 16),
		Window: uint16(word & 0xffff),
	}
}

func (t MonitorTiming) Encode() uint32 {
	return uint32(t.Delay)<<16 | uint32(t.Window)
}

// Voltages is the decoded view of word 7, device units, semantics opaque here
type Voltages struct {
	Trigger   int16
	Intensity int16
}

func DecodeVoltages(word uint32) Voltages {
	return Voltages{
		Trigger:   int16(word >> 16),
		Intensity: int16(word & 0xffff),
	}
}

func (v Voltages) Encode() uint32 {
	return uint32(uint16(v.Trigger))<<16 | uint32(uint16(v.Intensity))
}

// CrcPair is the decoded view of words 10 and 11: expected 16-bit checksums
// for a pair of shared buffers, low buffer in the low half.
type CrcPair struct {
	Lo uint16
	Hi uint16
}

func DecodeCrcPair(word uint32) CrcPair {
	return CrcPair{
		Lo: uint16(word & 0xffff),
		Hi: uint16(word >> 16),
	}
}

func (p CrcPair) Encode() uint32 {
	return uint32(p.Hi)<<16 | uint32(p.Lo)
}

func DecodeHwTrigThreshold(word uint32) int16 {
	return int16(word & 0xffff)
}
