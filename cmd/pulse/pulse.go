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

package pulse

import (
	"github.com/spf13/cobra"

	"github.com/sealablab/go-dpd/pkg/command"
	"github.com/sealablab/go-dpd/pkg/config"
	"github.com/sealablab/go-dpd/pkg/device"
)

const (
	TrigDurationOptionName      = "trig-duration"
	IntensityDurationOptionName = "intensity-duration"
	CooldownOptionName          = "cooldown"
	ArmTimeoutOptionName        = "arm-timeout"
	MonitorDelayOptionName      = "monitor-delay"
	MonitorWindowOptionName     = "monitor-window"
	MonitorEnabledOptionName    = "monitor"
	MonitorPolarityOptionName   = "monitor-rising"
	MonitorThresholdOptionName  = "monitor-threshold"
	AutoRearmOptionName         = "auto-rearm"
	HwTrigOptionName            = "hw-trig"
	HwTrigThresholdOptionName   = "hw-trig-threshold"
	TriggerVoltsOptionName      = "trigger-volts"
	IntensityVoltsOptionName    = "intensity-volts"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Configure and drive the pulse controller",
	}
	cmd.AddCommand(NewSetupCommand())
	cmd.AddCommand(NewStartCommand())
	cmd.AddCommand(NewEnableCommand())
	cmd.AddCommand(NewDisableCommand())
	for _, action := range []string{"arm", "disarm", "trigger", "clear"} {
		cmd.AddCommand(NewActionCommand(action))
	}
	return cmd
}

func NewSetupCommand() *cobra.Command {
	var setup device.PulseSetup
	var monitorDelay, monitorWindow uint16
	var monitorThreshold, hwTrigThreshold, triggerVolts, intensityVolts int16
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write the pulse configuration words",
		RunE: func(cmd *cobra.Command, args []string) error {
			setup.MonitorDelay = monitorDelay
			setup.MonitorWindow = monitorWindow
			setup.MonitorThreshold = monitorThreshold
			setup.HwTrigThreshold = hwTrigThreshold
			setup.TriggerVolts = triggerVolts
			setup.IntensityVolts = intensityVolts
			dev := device.NewDevice(command.NewApiClient(cfg))
			return dev.WriteSetup(setup)
		},
	}
	flags := cmd.Flags()
	flags.Uint32Var(&setup.TrigDuration, TrigDurationOptionName, 10, "Trigger pulse duration, ticks")
	flags.Uint32Var(&setup.IntensityDuration, IntensityDurationOptionName, 10, "Intensity pulse duration, ticks")
	flags.Uint32Var(&setup.Cooldown, CooldownOptionName, 100, "Cooldown duration, ticks")
	flags.Uint32Var(&setup.ArmTimeout, ArmTimeoutOptionName, 1000, "Armed state timeout, ticks")
	flags.Uint16Var(&monitorDelay, MonitorDelayOptionName, 0, "Monitor window delay, ticks")
	flags.Uint16Var(&monitorWindow, MonitorWindowOptionName, 0, "Monitor window length, ticks")
	flags.BoolVar(&setup.MonitorEnabled, MonitorEnabledOptionName, false, "Enable the feedback monitor")
	flags.BoolVar(&setup.MonitorPolarity, MonitorPolarityOptionName, true, "Monitor rising crossings instead of falling")
	flags.Int16Var(&monitorThreshold, MonitorThresholdOptionName, 0, "Monitor crossing threshold")
	flags.BoolVar(&setup.AutoRearm, AutoRearmOptionName, false, "Re-arm automatically after cooldown")
	flags.BoolVar(&setup.HwTrigEnabled, HwTrigOptionName, false, "Enable the hardware trigger comparator")
	flags.Int16Var(&hwTrigThreshold, HwTrigThresholdOptionName, 0, "Hardware trigger threshold")
	flags.Int16Var(&triggerVolts, TriggerVoltsOptionName, 0, "Trigger output level")
	flags.Int16Var(&intensityVolts, IntensityVoltsOptionName, 0, "Intensity output level")

	return cmd
}

func NewStartCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "start",
		Short: "Hand focus to the pulse controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := device.NewDevice(command.NewApiClient(cfg))
			return dev.StartProgram()
		},
	}
}

func NewEnableCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "enable",
		Short: "Raise the run gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := device.NewDevice(command.NewApiClient(cfg))
			return dev.Enable()
		},
	}
}

func NewDisableCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "disable",
		Short: "Drop the run gate and reset the machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := device.NewDevice(command.NewApiClient(cfg))
			return dev.Disable()
		},
	}
}

func NewActionCommand(action string) *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   action,
		Short: "Send the " + action + " command bit",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.Pulse(action)
		},
	}
}
