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

package core

import (
	"github.com/sealablab/go-dpd/pkg/regs"
)

type LoaderState int

const (
	LoadSetup LoaderState = iota
	LoadTransfer
	LoadValidate
	LoadDone
	LoadFault
)

func (s LoaderState) String() string {
	switch s {
	case LoadSetup:
		return "setup"
	case LoadTransfer:
		return "transfer"
	case LoadValidate:
		return "validate"
	case LoadDone:
		return "done"
	case LoadFault:
		return "fault"
	}
	return "unknown"
}

// Loader is the strobe-driven bulk transfer FSM. Each strobe falling edge
// writes one word in parallel to all active buffers at a shared offset and
// folds it into each buffer's running checksum. There is no watchdog here:
// the client is solely responsible for completing or abandoning a transfer.
type Loader struct {
	state LoaderState

	bufCount  int
	wordCount int
	expect    [NumBuffers]uint16
	crc       [NumBuffers]uint16
	offset    int
}

func NewLoader() *Loader {
	return &Loader{state: LoadSetup}
}

func (l *Loader) State() LoaderState { return l.state }

// parked reports whether the loader is waiting to hand focus back
func (l *Loader) parked() bool {
	return l.state == LoadDone || l.state == LoadFault
}

func (l *Loader) View() FSMView {
	var status uint8
	if l.state == LoadFault {
		status |= StatusFault
	}
	return FSMView{State: int(l.state), Status: status}
}

// reset puts the loader back into Setup. Called when the dispatcher grants
// focus, so every load cycle is independent.
func (l *Loader) reset() {
	l.state = LoadSetup
	l.offset = 0
}

// step advances the loader by one tick while it holds focus
func (l *Loader) step(cmd regs.Command, bank *regs.Bank, strobeFell bool, buffers *BufferBank) {
	switch l.state {
	case LoadSetup:
		l.bufCount = cmd.LoaderBufCount
		l.wordCount = int(bank[regs.WordLoadCount])
		if l.wordCount == 0 || l.wordCount > BufferWords {
			l.wordCount = BufferWords
		}
		p10 := regs.DecodeCrcPair(bank[regs.WordCrcExpect10])
		p32 := regs.DecodeCrcPair(bank[regs.WordCrcExpect32])
		l.expect = [NumBuffers]uint16{p10.Lo, p10.Hi, p32.Lo, p32.Hi}
		for i := range l.crc {
			l.crc[i] = Crc16Init
		}
		l.offset = 0
		l.state = LoadTransfer
	case LoadTransfer:
		if strobeFell {
			word := bank[regs.WordLoadData]
			for i := 0; i < l.bufCount; i++ {
				buffers.Write(i, l.offset, word)
				l.crc[i] = Crc16Word(l.crc[i], word)
			}
			l.offset++
			if l.offset >= l.wordCount {
				l.state = LoadValidate
			}
		}
	case LoadValidate:
		l.state = LoadDone
		for i := 0; i < l.bufCount; i++ {
			if l.crc[i] != l.expect[i] {
				l.state = LoadFault
				break
			}
		}
	case LoadDone, LoadFault:
		// wait for return_flag, the dispatcher takes focus back
	}
}
