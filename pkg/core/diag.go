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

type DiagState int

const (
	DiagIdle DiagState = iota
	DiagActive
)

func (s DiagState) String() string {
	if s == DiagActive {
		return "active"
	}
	return "idle"
}

// DiagStub is the BIOS-equivalent diagnostic subsystem. It does nothing but
// hold focus until the client raises the return flag.
type DiagStub struct {
	state DiagState
}

func NewDiagStub() *DiagStub {
	return &DiagStub{state: DiagIdle}
}

func (d *DiagStub) State() DiagState { return d.state }

func (d *DiagStub) View() FSMView {
	return FSMView{State: int(d.state)}
}

func (d *DiagStub) activate()   { d.state = DiagActive }
func (d *DiagStub) deactivate() { d.state = DiagIdle }
