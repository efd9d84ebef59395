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

func (s *sim) arm(t *testing.T) {
	t.Helper()
	a := gate()
	a.Arm = true
	s.cmd(a)
	s.tick(1)
	s.cmd(gate())
	require.Equal(t, AppArmed, s.c.App().State())
}

func (s *sim) softTrigger(t *testing.T) {
	t.Helper()
	tr := gate()
	tr.SoftTrigger = true
	s.cmd(tr)
	s.tick(1)
	s.cmd(gate())
	require.Equal(t, AppFiring, s.c.App().State())
}

func TestInvalidConfigFaultsOnInit(t *testing.T) {
	s := newSim()
	s.setupPulse(0, 5, 4, 100) // zero trigger duration
	s.cmd(gate())
	s.tick(1)
	sel := gate()
	sel.SelectProgram = true
	s.cmd(sel)
	s.tick(1)
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, AppFault, s.c.App().State())
	require.Equal(t, StatusFault, s.c.App().View().Status)
	require.Equal(t, int32(-((BandApp+int(AppFault))*UnitsPerState+int(StatusFault))), s.out.Diag)
}

func TestFaultClearReinitializes(t *testing.T) {
	s := newSim()
	s.setupPulse(0, 5, 4, 100)
	s.cmd(gate())
	s.tick(1)
	sel := gate()
	sel.SelectProgram = true
	s.cmd(sel)
	s.tick(1)
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, AppFault, s.c.App().State())

	// fix the configuration, then pulse the clear bit for a single tick
	s.bank[regs.WordTrigDuration] = 3
	clr := gate()
	clr.FaultClear = true
	s.cmd(clr)
	s.tick(1)
	require.Equal(t, AppInitializing, s.c.App().State())
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, AppIdle, s.c.App().State())
}

func TestConfigWritesDeferredUntilReinit(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)

	s.bank[regs.WordTrigDuration] = 7
	s.tick(3)
	require.Equal(t, uint32(3), s.c.App().Config().TrigDuration)

	// a full reset and regrant picks the new value up
	s.cmd(regs.Command{})
	s.tick(1)
	s.startProgram(t)
	require.Equal(t, uint32(7), s.c.App().Config().TrigDuration)
}

func TestArmTimeoutFaults(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)
	s.arm(t)

	s.tick(100)
	require.Equal(t, AppArmed, s.c.App().State())
	s.tick(1)
	require.Equal(t, AppFault, s.c.App().State())
	require.Equal(t, StatusFault|StatusTimeout, s.c.App().View().Status)
	require.True(t, s.out.Diag < 0)
}

func TestFiringDrivesOutputsForConfiguredDurations(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)
	s.arm(t)
	s.softTrigger(t)
	require.Equal(t, Outputs{Diag: s.out.Diag, Trigger: 1200, Intensity: 800}, s.out)

	wantTrigger := []int32{1200, 1200, 0, 0, 0}
	wantIntensity := []int32{800, 800, 800, 800, 0}
	for i := range wantTrigger {
		s.tick(1)
		require.Equal(t, wantTrigger[i], s.out.Trigger, "tick %d", i)
		require.Equal(t, wantIntensity[i], s.out.Intensity, "tick %d", i)
	}
	require.Equal(t, AppCooldown, s.c.App().State())
	require.Equal(t, StatusFiringComplete, s.c.App().View().Status)

	s.tick(4)
	require.Equal(t, AppIdle, s.c.App().State())
	require.Equal(t, StatusFiringComplete|StatusCooldownComplete, s.c.App().View().Status)
}

func TestTriggerIgnoredInIdle(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)

	tr := gate()
	tr.SoftTrigger = true
	s.cmd(tr)
	s.tick(1)
	require.Equal(t, AppIdle, s.c.App().State())
	s.cmd(gate())
	s.tick(4) // let the stretched pulse expire

	s.arm(t)
	s.tick(3)
	require.Equal(t, AppArmed, s.c.App().State())
}

func TestTriggerIgnoredInCooldown(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.startProgram(t)
	s.arm(t)
	s.softTrigger(t)
	s.tick(5)
	require.Equal(t, AppCooldown, s.c.App().State())

	tr := gate()
	tr.SoftTrigger = true
	s.cmd(tr)
	s.tick(1)
	s.cmd(gate())
	s.tick(3)
	require.Equal(t, AppIdle, s.c.App().State())

	s.arm(t)
	s.tick(3)
	require.Equal(t, AppArmed, s.c.App().State())
}

func TestMonitorWindowLatchesCrossing(t *testing.T) {
	s := newSim()
	s.setupPulse(10, 10, 4, 100)
	s.bank[regs.WordMonitorTiming] = regs.MonitorTiming{Delay: 2, Window: 3}.Encode()
	s.bank[regs.WordMonitorFlags] = regs.MonitorFlags{
		Enabled:   true,
		Polarity:  true,
		Threshold: 100,
	}.Encode()
	s.startProgram(t)
	s.arm(t)
	s.fb = 150
	s.softTrigger(t)

	s.tick(2)
	require.Equal(t, uint8(0), s.c.App().View().Status&(StatusMonitorWindow|StatusMonitorTriggered))
	s.tick(1)
	require.Equal(t, StatusMonitorWindow|StatusMonitorTriggered,
		s.c.App().View().Status&(StatusMonitorWindow|StatusMonitorTriggered))
	s.tick(3)
	// window closed, the crossing stays latched
	require.Equal(t, StatusMonitorTriggered,
		s.c.App().View().Status&(StatusMonitorWindow|StatusMonitorTriggered))
}

func TestMonitorBelowThresholdDoesNotLatch(t *testing.T) {
	s := newSim()
	s.setupPulse(10, 10, 4, 100)
	s.bank[regs.WordMonitorTiming] = regs.MonitorTiming{Delay: 0, Window: 5}.Encode()
	s.bank[regs.WordMonitorFlags] = regs.MonitorFlags{
		Enabled:   true,
		Polarity:  true,
		Threshold: 100,
	}.Encode()
	s.startProgram(t)
	s.arm(t)
	s.fb = 50
	s.softTrigger(t)
	s.tick(6)
	require.Equal(t, uint8(0), s.c.App().View().Status&StatusMonitorTriggered)
}

func TestMonitorEnabledRequiresWindow(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.bank[regs.WordMonitorFlags] = regs.MonitorFlags{Enabled: true}.Encode()
	s.cmd(gate())
	s.tick(1)
	sel := gate()
	sel.SelectProgram = true
	s.cmd(sel)
	s.tick(1)
	s.cmd(gate())
	s.tick(1)
	require.Equal(t, AppFault, s.c.App().State())
}

func TestHardwareTriggerFires(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.bank[regs.WordMonitorFlags] = regs.MonitorFlags{HwTrig: true}.Encode()
	s.bank[regs.WordHwTrigThreshold] = uint32(uint16(int16(600)))
	s.startProgram(t)
	s.arm(t)

	s.fb = 500
	s.tick(3)
	require.Equal(t, AppArmed, s.c.App().State())
	s.fb = 700
	s.tick(1)
	require.Equal(t, AppFiring, s.c.App().State())
}

func TestAutoRearmReturnsToArmed(t *testing.T) {
	s := newSim()
	s.setupPulse(3, 5, 4, 100)
	s.bank[regs.WordMonitorFlags] = regs.MonitorFlags{AutoRearm: true}.Encode()
	s.startProgram(t)
	s.arm(t)
	s.softTrigger(t)
	s.tick(5)
	require.Equal(t, AppCooldown, s.c.App().State())
	s.tick(4)
	require.Equal(t, AppArmed, s.c.App().State())
	// cycle latches were cleared on re-arm
	require.Equal(t, uint8(0), s.c.App().View().Status)
}
