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

type DispatcherState int

const (
	DispDisabled DispatcherState = iota
	DispReady
	DispProgram
	DispDiag
	DispLoader
	DispFault
)

func (s DispatcherState) String() string {
	switch s {
	case DispDisabled:
		return "disabled"
	case DispReady:
		return "ready"
	case DispProgram:
		return "program"
	case DispDiag:
		return "diag"
	case DispLoader:
		return "loader"
	case DispFault:
		return "fault"
	}
	return "unknown"
}

// dispatcherResult is everything one evaluation of the dispatcher decides:
// its own next state, the next focus, and the side effects the core must
// apply at commit time.
type dispatcherResult struct {
	state       DispatcherState
	focus       Focus
	zeroBuffers bool
	grantLoader bool
	grantDiag   bool
	grantApp    bool
	resetApp    bool
}

// Dispatcher is the boot dispatcher FSM. It arbitrates module-select bits
// into a single focus and owns the shared buffer bank.
type Dispatcher struct {
	state DispatcherState
	focus Focus
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{state: DispDisabled, focus: FocusDispatcher}
}

func (d *Dispatcher) State() DispatcherState { return d.state }
func (d *Dispatcher) Focus() Focus           { return d.focus }

func (d *Dispatcher) View() FSMView {
	var status uint8
	if d.state == DispFault {
		status |= StatusFault
	}
	return FSMView{State: int(d.state), Status: status}
}

// next computes the dispatcher transition from the previous committed state.
// loaderDone tells whether the loader is parked in Done or Fault, which is
// the only point where a loader return is honored.
func (d *Dispatcher) next(cmd regs.Command, loaderDone bool) dispatcherResult {
	r := dispatcherResult{state: d.state, focus: d.focus}

	// Dropping the run gate is a full reset from any state. This is also
	// the only way out of Program and out of a dispatcher fault.
	if !cmd.RunGate() {
		if d.state != DispDisabled {
			r.zeroBuffers = true
			r.resetApp = true
		}
		r.state = DispDisabled
		r.focus = FocusDispatcher
		return r
	}

	switch d.state {
	case DispDisabled:
		r.state = DispReady
	case DispReady:
		switch n := cmd.SelectCount(); {
		case n > 1:
			r.state = DispFault
		case cmd.SelectProgram:
			// one-way handoff, return is ignored from here on
			r.state = DispProgram
			r.focus = FocusProgram
			r.grantApp = true
		case cmd.SelectDiag:
			r.state = DispDiag
			r.focus = FocusDiag
			r.grantDiag = true
		case cmd.SelectLoader:
			r.state = DispLoader
			r.focus = FocusLoader
			r.grantLoader = true
		case cmd.SelectReset:
			r.state = DispDisabled
			r.zeroBuffers = true
			r.resetApp = true
		}
	case DispDiag:
		if cmd.Return {
			r.state = DispReady
			r.focus = FocusDispatcher
		}
	case DispLoader:
		if cmd.Return && loaderDone {
			r.state = DispReady
			r.focus = FocusDispatcher
		}
	case DispProgram:
		// terminal, handled by the run-gate check above
	case DispFault:
		// sticky, handled by the run-gate check above
	}
	return r
}

func (d *Dispatcher) commit(r dispatcherResult) {
	d.state = r.state
	d.focus = r.focus
}
