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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealablab/go-dpd/pkg/regs"
)

// sim drives a core the way the tick loop does: the bank is sampled whole
// on every tick
type sim struct {
	c    *Core
	bank regs.Bank
	fb   int16
	out  Outputs
}

func newSim() *sim {
	return &sim{c: New()}
}

func (s *sim) cmd(c regs.Command) {
	s.bank[regs.WordCommand] = c.Encode()
}

func (s *sim) tick(n int) Outputs {
	for i := 0; i < n; i++ {
		s.out = s.c.Tick(Inputs{Words: s.bank, Feedback: s.fb})
	}
	return s.out
}

func gate() regs.Command {
	return regs.Command{RunReady: true, RunUser: true, RunClock: true}
}

// setupPulse writes a valid pulse configuration into the bank
func (s *sim) setupPulse(trig, intens, cool, timeout uint32) {
	s.bank[regs.WordTrigDuration] = trig
	s.bank[regs.WordIntensityDuration] = intens
	s.bank[regs.WordCooldown] = cool
	s.bank[regs.WordArmTimeout] = timeout
	s.bank[regs.WordVoltages] = regs.Voltages{Trigger: 1200, Intensity: 800}.Encode()
}

// startProgram walks the dispatcher into program focus and leaves the
// controller in Idle
func (s *sim) startProgram(t *testing.T) {
	t.Helper()
	s.cmd(gate())
	s.tick(1)
	sel := gate()
	sel.SelectProgram = true
	s.cmd(sel)
	s.tick(1)
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, FocusProgram, s.c.Focus())
	require.Equal(t, AppIdle, s.c.App().State())
}

func TestBootHoldsDisabledWithoutRunGate(t *testing.T) {
	s := newSim()
	s.tick(5)
	require.Equal(t, DispDisabled, s.c.Dispatcher().State())
	require.Equal(t, FocusDispatcher, s.c.Focus())
	require.Equal(t, int32(0), s.out.Diag)
}

func TestRunGateBringsDispatcherReady(t *testing.T) {
	s := newSim()
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, DispReady, s.c.Dispatcher().State())
	require.Equal(t, int32(1*UnitsPerState), s.out.Diag)
}

func TestPartialRunGateStaysDisabled(t *testing.T) {
	s := newSim()
	s.cmd(regs.Command{RunReady: true, RunClock: true})
	s.tick(3)
	require.Equal(t, DispDisabled, s.c.Dispatcher().State())
}

func TestMultipleSelectsFaultTheDispatcher(t *testing.T) {
	s := newSim()
	s.cmd(gate())
	s.tick(1)

	sel := gate()
	sel.SelectProgram = true
	sel.SelectDiag = true
	s.cmd(sel)
	s.tick(1)
	require.Equal(t, DispFault, s.c.Dispatcher().State())
	require.Equal(t, int32(-(5*UnitsPerState + int32(StatusFault))), s.out.Diag)

	// sticky: dropping the selects does not recover
	s.cmd(gate())
	s.tick(3)
	require.Equal(t, DispFault, s.c.Dispatcher().State())

	// only a run-gate drop does
	s.cmd(regs.Command{})
	s.tick(1)
	require.Equal(t, DispDisabled, s.c.Dispatcher().State())
}

func TestDiagGrantAndReturn(t *testing.T) {
	s := newSim()
	s.cmd(gate())
	s.tick(1)

	sel := gate()
	sel.SelectDiag = true
	s.cmd(sel)
	s.tick(1)
	require.Equal(t, FocusDiag, s.c.Focus())
	require.Equal(t, int32((BandDiag+1)*UnitsPerState), s.out.Diag)

	ret := gate()
	ret.Return = true
	s.cmd(ret)
	s.tick(1)
	require.Equal(t, FocusDispatcher, s.c.Focus())
	require.Equal(t, DispReady, s.c.Dispatcher().State())
	require.Equal(t, int32(1*UnitsPerState), s.out.Diag)
}

func TestResetSelectZeroesBuffers(t *testing.T) {
	s := newSim()
	s.c.Buffers().Write(0, 0, 0xdeadbeef)
	s.cmd(gate())
	s.tick(1)

	sel := gate()
	sel.SelectReset = true
	s.cmd(sel)
	s.tick(1)
	require.Equal(t, DispDisabled, s.c.Dispatcher().State())
	require.Equal(t, uint32(0), s.c.Buffers().Read(0, 0))
}

func TestRunGateDropResetsEverything(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)
	s.c.Buffers().Write(1, 7, 0xc0ffee)

	s.cmd(regs.Command{})
	s.tick(1)
	require.Equal(t, DispDisabled, s.c.Dispatcher().State())
	require.Equal(t, FocusDispatcher, s.c.Focus())
	require.Equal(t, AppInitializing, s.c.App().State())
	require.Equal(t, uint32(0), s.c.Buffers().Read(1, 7))
}

func TestProgramHandoffIsOneWay(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)

	ret := gate()
	ret.Return = true
	s.cmd(ret)
	s.tick(3)
	require.Equal(t, FocusProgram, s.c.Focus())
	require.Equal(t, DispProgram, s.c.Dispatcher().State())
}
