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

// Diagnostic state encoder. Every context gets a disjoint band of state
// indices so an observer can tell which subsystem holds focus from the
// value alone:
//
//	dispatcher 0-7, diag 8-15, loader 16-23, application 24 and up
//
// The encoded value is index*UnitsPerState + status*UnitsPerStatusLSB.
// 257 and 1 are coprime and status is always below 257, so the receiver
// recovers the pair with plain integer division and modulo. If the status
// fault bit is set the magnitude is negated, so "something is wrong" is
// visible from the sign alone.

const (
	UnitsPerState     = 257
	UnitsPerStatusLSB = 1

	BandDispatcher = 0
	BandDiag       = 8
	BandLoader     = 16
	BandApp        = 24
)

func bandBase(focus Focus) int {
	switch focus {
	case FocusDiag:
		return BandDiag
	case FocusLoader:
		return BandLoader
	case FocusProgram:
		return BandApp
	}
	return BandDispatcher
}

// EncodeDiag maps the focused subsystem's (state, status) pair onto the
// scalar diagnostic output
func EncodeDiag(focus Focus, view FSMView) int32 {
	index := bandBase(focus) + view.State
	value := int32(index)*UnitsPerState + int32(view.Status)*UnitsPerStatusLSB
	if view.Status&StatusFault != 0 {
		value = -value
	}
	return value
}

// DecodeDiag is the receiving-side inverse of EncodeDiag
func DecodeDiag(value int32) (index int, status uint8, fault bool) {
	if value < 0 {
		fault = true
		value = -value
	}
	index = int(value / UnitsPerState)
	status = uint8(value % UnitsPerState)
	return index, status, fault
}
