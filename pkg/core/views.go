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

// FSMView is the (state, status) pair every subsystem exports. Status bit 7
// is the fault flag across all subsystems.
type FSMView struct {
	State  int
	Status uint8
}

const (
	StatusFault            uint8 = 0x80
	StatusTimeout          uint8 = 0x40
	StatusMonitorTriggered uint8 = 0x20
	StatusMonitorWindow    uint8 = 0x10
	StatusFiringComplete   uint8 = 0x08
	StatusCooldownComplete uint8 = 0x04
)

// Focus identifies which subsystem currently owns the shared buffers and
// the diagnostic output path
type Focus int

const (
	FocusDispatcher Focus = iota
	FocusDiag
	FocusLoader
	FocusProgram
)

func (f Focus) String() string {
	switch f {
	case FocusDispatcher:
		return "dispatcher"
	case FocusDiag:
		return "diag"
	case FocusLoader:
		return "loader"
	case FocusProgram:
		return "program"
	}
	return "unknown"
}
