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

type AppState int

const (
	AppInitializing AppState = iota
	AppIdle
	AppArmed
	AppFiring
	AppCooldown
	AppFault
)

func (s AppState) String() string {
	switch s {
	case AppInitializing:
		return "initializing"
	case AppIdle:
		return "idle"
	case AppArmed:
		return "armed"
	case AppFiring:
		return "firing"
	case AppCooldown:
		return "cooldown"
	case AppFault:
		return "fault"
	}
	return "unknown"
}

// LatchedConfig is the snapshot of the configuration words taken in
// Initializing. All timing and voltage decisions within an operating cycle
// reference this snapshot, never the live control words.
type LatchedConfig struct {
	TrigDuration      uint32
	IntensityDuration uint32
	Cooldown          uint32
	ArmTimeout        uint32
	Monitor           regs.MonitorTiming
	Flags             regs.MonitorFlags
	Volts             regs.Voltages
	HwThreshold       int16
}

func latchConfig(bank *regs.Bank) LatchedConfig {
	return LatchedConfig{
		TrigDuration:      bank[regs.WordTrigDuration],
		IntensityDuration: bank[regs.WordIntensityDuration],
		Cooldown:          bank[regs.WordCooldown],
		ArmTimeout:        bank[regs.WordArmTimeout],
		Monitor:           regs.DecodeMonitorTiming(bank[regs.WordMonitorTiming]),
		Flags:             regs.DecodeMonitorFlags(bank[regs.WordMonitorFlags]),
		Volts:             regs.DecodeVoltages(bank[regs.WordVoltages]),
		HwThreshold:       regs.DecodeHwTrigThreshold(bank[regs.WordHwTrigThreshold]),
	}
}

// valid checks that every required duration latched strictly positive
func (c LatchedConfig) valid() bool {
	if c.TrigDuration == 0 || c.IntensityDuration == 0 || c.Cooldown == 0 || c.ArmTimeout == 0 {
		return false
	}
	if c.Flags.Enabled && c.Monitor.Window == 0 {
		return false
	}
	return true
}

// App is the application pulse controller. Initializing is its sync-safe
// state: configuration words are copied here and nowhere else, so writes
// that arrive mid-cycle take effect only on the next Initializing entry.
type App struct {
	state AppState
	cfg   LatchedConfig

	armCounter  uint32
	trigTimer   uint32
	intensTimer uint32
	coolCounter uint32
	monCounter  uint32

	windowOpen       bool
	monitorTriggered bool
	timeoutOccurred  bool
	firingComplete   bool
	cooldownComplete bool

	// status is registered once per tick for glitch-free consumption
	status uint8
}

func NewApp() *App {
	return &App{state: AppInitializing}
}

func (a *App) State() AppState       { return a.state }
func (a *App) Config() LatchedConfig { return a.cfg }

func (a *App) View() FSMView {
	return FSMView{State: int(a.state), Status: a.status}
}

// reset forces the controller back to Initializing, dropping every latch.
// Used on handoff and on full reset. Fault recovery goes through here as
// well: there is no resume-from-fault path.
func (a *App) reset() {
	*a = App{state: AppInitializing}
}

func (a *App) enterArmed() {
	a.state = AppArmed
	a.armCounter = 0
	a.windowOpen = false
	a.monitorTriggered = false
	a.firingComplete = false
	a.cooldownComplete = false
}

func (a *App) enterFiring() {
	a.state = AppFiring
	a.trigTimer = 0
	a.intensTimer = 0
	a.monCounter = 0
}

func (a *App) monitorCrossed(feedback int16) bool {
	if a.cfg.Flags.Polarity {
		return feedback >= a.cfg.Flags.Threshold
	}
	return feedback <= a.cfg.Flags.Threshold
}

// step advances the controller by one tick while it holds focus.
// softTrig and faultClear are the stretched pulses from the sync layer,
// feedback is this tick's sample of the feedback input.
func (a *App) step(cmd regs.Command, bank *regs.Bank, softTrig, faultClear bool, feedback int16) {
	switch a.state {
	case AppInitializing:
		a.cfg = latchConfig(bank)
		if a.cfg.valid() {
			a.state = AppIdle
		} else {
			a.state = AppFault
		}
	case AppIdle:
		if cmd.Arm {
			a.enterArmed()
		}
	case AppArmed:
		trigger := softTrig
		if a.cfg.Flags.HwTrig && feedback >= a.cfg.HwThreshold {
			trigger = true
		}
		if trigger {
			a.enterFiring()
		} else {
			a.armCounter++
			if a.armCounter > a.cfg.ArmTimeout {
				a.state = AppFault
				a.timeoutOccurred = true
			}
		}
	case AppFiring:
		if a.cfg.Flags.Enabled {
			a.windowOpen = a.monCounter >= uint32(a.cfg.Monitor.Delay) &&
				a.monCounter < uint32(a.cfg.Monitor.Delay)+uint32(a.cfg.Monitor.Window)
			if a.windowOpen && a.monitorCrossed(feedback) {
				a.monitorTriggered = true
			}
			a.monCounter++
		}
		a.trigTimer++
		a.intensTimer++
		if a.trigTimer >= a.cfg.TrigDuration && a.intensTimer >= a.cfg.IntensityDuration {
			a.state = AppCooldown
			a.firingComplete = true
			a.windowOpen = false
			a.coolCounter = 0
		}
	case AppCooldown:
		a.coolCounter++
		if a.coolCounter >= a.cfg.Cooldown {
			a.cooldownComplete = true
			if a.cfg.Flags.AutoRearm {
				a.enterArmed()
			} else {
				a.state = AppIdle
			}
		}
	case AppFault:
		if faultClear {
			a.reset()
		}
	}
	a.registerStatus()
}

func (a *App) registerStatus() {
	var s uint8
	if a.state == AppFault {
		s |= StatusFault
	}
	if a.timeoutOccurred {
		s |= StatusTimeout
	}
	if a.monitorTriggered {
		s |= StatusMonitorTriggered
	}
	if a.windowOpen {
		s |= StatusMonitorWindow
	}
	if a.firingComplete {
		s |= StatusFiringComplete
	}
	if a.cooldownComplete {
		s |= StatusCooldownComplete
	}
	a.status = s
}

// outputs returns the two analog-scale outputs for the committed state.
// Each pulse drives its configured voltage while its own timer runs.
func (a *App) outputs() (trigger, intensity int32) {
	if a.state == AppFiring {
		if a.trigTimer < a.cfg.TrigDuration {
			trigger = int32(a.cfg.Volts.Trigger)
		}
		if a.intensTimer < a.cfg.IntensityDuration {
			intensity = int32(a.cfg.Volts.Intensity)
		}
	}
	return trigger, intensity
}
