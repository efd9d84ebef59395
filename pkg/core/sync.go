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

// Register synchronization: external writes land in the word bank at any
// time, so single-tick command bits can jitter across tick boundaries.
// Edge-triggered bits are stretched into a fixed-minimum pulse and the
// strobe is taken on its falling edge.

// StretchTicks is the guaranteed minimum width of a stretched pulse
const StretchTicks = 4

// EdgeStretch converts a false->true transition of a sampled bit into a
// pulse asserted for at least StretchTicks ticks. The pulse self-clears,
// no acknowledgement is expected.
type EdgeStretch struct {
	prev      bool
	remaining int
}

// Sample feeds one tick's value and reports whether the pulse is asserted
// on this tick
func (e *EdgeStretch) Sample(cur bool) bool {
	if cur && !e.prev {
		e.remaining = StretchTicks
	}
	e.prev = cur
	if e.remaining > 0 {
		e.remaining--
		return true
	}
	return false
}

// Reset forgets history so a level held across a reset does not retrigger
func (e *EdgeStretch) Reset() {
	e.prev = false
	e.remaining = 0
}

// FallingEdge reports true->false transitions of a sampled bit. The loader
// strobe advances on the falling edge so the client's "prepare data, then
// drop strobe" pattern is debounced against write jitter.
type FallingEdge struct {
	prev bool
}

// Sample feeds one tick's value and reports whether the bit fell this tick
func (e *FallingEdge) Sample(cur bool) bool {
	fell := e.prev && !cur
	e.prev = cur
	return fell
}

func (e *FallingEdge) Reset() {
	e.prev = false
}
