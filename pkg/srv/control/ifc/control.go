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

package ifc

import (
	"github.com/sealablab/go-dpd/pkg/core"
	"github.com/sealablab/go-dpd/pkg/layers"
	"github.com/sealablab/go-dpd/pkg/regs"
)

type ControlServer interface {
	Run() error
	WordWrite(reg *layers.Reg) error
	WordRead(index uint16) (*layers.Reg, error)
	WordReadAll() ([]*layers.Reg, error)
	CommandUpdate(update func(regs.Command) regs.Command) error
	SetFeedback(value int16)
	Snapshot() core.Snapshot
}

type ApiServer interface {
	Run() error
}
