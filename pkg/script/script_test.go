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

package script

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealablab/go-dpd/pkg/core"
)

func TestScenarioDrivesTheMachine(t *testing.T) {
	src := `
GATE = 0xE0000000

# pulse configuration
write(1, 3)    # trigger duration
write(2, 5)    # intensity duration
write(3, 4)    # cooldown
write(4, 100)  # arm timeout

write(0, GATE)
tick()
assert_eq(diag(), 257)
assert_eq(focus(), "dispatcher")

write(0, GATE | (1 << 28))
tick()
write(0, GATE)
tick()
assert_eq(focus(), "program")
assert_eq(state(), "idle")

write(0, GATE | (1 << 2))
tick()
assert_eq(state(), "armed")

assert_eq(crc16([]), 0xFFFF)
`
	h := NewHarness()
	require.NoError(t, h.Run("scenario.star", src))
	require.Equal(t, core.AppArmed, h.Machine().App().State())
}

func TestScenarioAssertFailureSurfaces(t *testing.T) {
	h := NewHarness()
	err := h.Run("bad.star", `assert_eq(1, 2)`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "assert_eq")
}

func TestScenarioWriteBoundsChecked(t *testing.T) {
	h := NewHarness()
	require.Error(t, h.Run("oob.star", `write(16, 1)`))
}

func TestScenarioFeedbackReachesComparator(t *testing.T) {
	src := `
GATE = 0xE0000000
write(1, 3)
write(2, 5)
write(3, 4)
write(4, 100)
write(6, 1 << 28)  # hardware trigger enable
write(7, (1200 << 16) | 800)
write(8, 600)      # hardware trigger threshold

write(0, GATE)
tick()
write(0, GATE | (1 << 28))
tick()
write(0, GATE)
tick()
write(0, GATE | (1 << 2))
tick()
assert_eq(state(), "armed")

feedback(700)
tick()
assert_eq(state(), "firing")

_, trigger, intensity = outputs()
assert_eq(trigger, 1200)
assert_eq(intensity, 800)
`
	h := NewHarness()
	require.NoError(t, h.Run("hwtrig.star", src))
	require.Equal(t, core.AppFiring, h.Machine().App().State())
}
