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

// Inputs is one tick's sample of everything the core consumes: the control
// word bank and the analog feedback input.
type Inputs struct {
	Words    regs.Bank
	Feedback int16
}

// Outputs is what the core drives after each tick
type Outputs struct {
	Diag      int32 `json:"diag"`
	Trigger   int32 `json:"trigger"`
	Intensity int32 `json:"intensity"`
}

// Core evaluates the dispatcher, loader, diag stub and application
// controller once per tick in a fixed order: sample, edge detect,
// next-state from the previous tick's committed values, commit, outputs.
// Nothing here blocks and nothing runs concurrently.
type Core struct {
	tick uint64

	dispatcher *Dispatcher
	loader     *Loader
	app        *App
	diag       *DiagStub
	buffers    *BufferBank

	softTrig   EdgeStretch
	faultClear EdgeStretch
	strobe     FallingEdge

	out Outputs
}

func New() *Core {
	return &Core{
		dispatcher: NewDispatcher(),
		loader:     NewLoader(),
		app:        NewApp(),
		diag:       NewDiagStub(),
		buffers:    &BufferBank{},
	}
}

func (c *Core) Dispatcher() *Dispatcher { return c.dispatcher }
func (c *Core) Loader() *Loader         { return c.loader }
func (c *Core) App() *App               { return c.app }
func (c *Core) Buffers() *BufferBank    { return c.buffers }
func (c *Core) TickCount() uint64       { return c.tick }
func (c *Core) Focus() Focus            { return c.dispatcher.Focus() }

// FocusedView returns the (state, status) pair of whichever subsystem
// currently holds focus
func (c *Core) FocusedView() FSMView {
	switch c.dispatcher.Focus() {
	case FocusDiag:
		return c.diag.View()
	case FocusLoader:
		return c.loader.View()
	case FocusProgram:
		return c.app.View()
	}
	return c.dispatcher.View()
}

// Tick runs one evaluation step and returns the recomputed outputs
func (c *Core) Tick(in Inputs) Outputs {
	cmd := regs.DecodeCommand(in.Words[regs.WordCommand])

	// register synchronization: edges first, everything downstream sees
	// stretched pulses instead of raw bits
	softTrig := c.softTrig.Sample(cmd.SoftTrigger)
	faultClear := c.faultClear.Sample(cmd.FaultClear)
	strobeFell := c.strobe.Sample(cmd.LoaderStrobe)

	// next-state for the dispatcher is computed before any subsystem has
	// stepped, so it only ever sees the previous tick's commits
	prevFocus := c.dispatcher.Focus()
	r := c.dispatcher.next(cmd, c.loader.parked())

	switch prevFocus {
	case FocusLoader:
		c.loader.step(cmd, &in.Words, strobeFell, c.buffers)
	case FocusProgram:
		c.app.step(cmd, &in.Words, softTrig, faultClear, in.Feedback)
	}

	c.dispatcher.commit(r)
	if r.zeroBuffers {
		c.buffers.Zero()
	}
	if r.grantLoader {
		c.loader.reset()
	}
	if r.grantDiag {
		c.diag.activate()
	}
	if prevFocus == FocusDiag && r.focus != FocusDiag {
		c.diag.deactivate()
	}
	if r.grantApp || r.resetApp {
		c.app.reset()
	}

	var trigger, intensity int32
	if c.dispatcher.Focus() == FocusProgram {
		trigger, intensity = c.app.outputs()
	}
	c.out = Outputs{
		Diag:      EncodeDiag(c.dispatcher.Focus(), c.FocusedView()),
		Trigger:   trigger,
		Intensity: intensity,
	}
	c.tick++
	return c.out
}

// Outputs returns the last committed outputs without advancing the clock
func (c *Core) Outputs() Outputs {
	return c.out
}

// SubsystemSnapshot is the externally visible state of one FSM
type SubsystemSnapshot struct {
	State  string `json:"state"`
	Status uint8  `json:"status"`
}

// Snapshot is the full externally visible machine state, served by the API
type Snapshot struct {
	Tick       uint64            `json:"tick"`
	Focus      string            `json:"focus"`
	Dispatcher SubsystemSnapshot `json:"dispatcher"`
	Loader     SubsystemSnapshot `json:"loader"`
	Diag       SubsystemSnapshot `json:"diag"`
	App        SubsystemSnapshot `json:"app"`
	Outputs    Outputs           `json:"outputs"`
}

func (c *Core) Snapshot() Snapshot {
	return Snapshot{
		Tick:  c.tick,
		Focus: c.dispatcher.Focus().String(),
		Dispatcher: SubsystemSnapshot{
			State:  c.dispatcher.State().String(),
			Status: c.dispatcher.View().Status,
		},
		Loader: SubsystemSnapshot{
			State:  c.loader.State().String(),
			Status: c.loader.View().Status,
		},
		Diag: SubsystemSnapshot{
			State:  c.diag.State().String(),
			Status: c.diag.View().Status,
		},
		App: SubsystemSnapshot{
			State:  c.app.State().String(),
			Status: c.app.View().Status,
		},
		Outputs: c.out,
	}
}
